package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/infrastructure/resilience"
)

const (
	workerQueueGroup = "reprocess-workers"
	publishOperation = "nats publish reprocess"

	defaultDrainTimeout = 30 * time.Second
)

// Queue carries issue reprocess requests over a NATS subject. Subscribers
// share a queue group so each request is handled by exactly one worker.
type Queue struct {
	conn           *nats.Conn
	subject        string
	executor       *resilience.Executor
	handlerTimeout time.Duration
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	// HandlerTimeout bounds a single reprocess run. Zero means no limit.
	HandlerTimeout time.Duration
}

type reprocessMessage struct {
	IssueID     int64     `json:"issue_id"`
	RequestedAt time.Time `json:"requested_at"`
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("civic-issues"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:           conn,
		subject:        subject,
		executor:       options.ResilienceExecutor,
		handlerTimeout: options.HandlerTimeout,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishReprocess(ctx context.Context, issueID int64) error {
	payload, err := encodeReprocess(issueID, time.Now().UTC())
	if err != nil {
		return err
	}
	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("publish issue %d to %q: %w", issueID, q.subject, err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	return wrapPublishError(err)
}

// classifyNATSError retries connection trouble. A rejected subject or payload
// will fail the same way every time, so it is never retried.
func classifyNATSError(err error) resilience.ErrorClassification {
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.Ignored
	case resilience.IsCircuitOpen(err):
		return resilience.Transient
	case errors.Is(err, nats.ErrBadSubject), errors.Is(err, nats.ErrMaxPayload), errors.Is(err, nats.ErrInvalidMsg):
		return resilience.Permanent
	case errors.Is(err, nats.ErrNoServers), errors.Is(err, nats.ErrTimeout),
		errors.Is(err, nats.ErrConnectionClosed), errors.Is(err, nats.ErrDisconnected),
		errors.Is(err, nats.ErrConnectionReconnecting):
		return resilience.Transient
	default:
		return resilience.Permanent
	}
}

// wrapPublishError gives publish failures a domain kind so the HTTP layer
// answers 503 for both a broken deployment and a flapping connection.
func wrapPublishError(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrConfiguration) {
		return err
	}
	if errors.Is(err, nats.ErrBadSubject) || errors.Is(err, nats.ErrMaxPayload) || errors.Is(err, nats.ErrInvalidMsg) {
		return domain.WrapError(domain.ErrConfiguration, publishOperation, err)
	}
	if classifyNATSError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, publishOperation, err)
	}
	return err
}

// SubscribeReprocess blocks until ctx is cancelled, then drains the
// subscription. Handlers run on a context that outlives ctx, bounded only by
// the handler timeout, so requests already delivered are finished before
// SubscribeReprocess returns.
func (q *Queue) SubscribeReprocess(ctx context.Context, handler func(context.Context, int64) error) error {
	base := context.WithoutCancel(ctx)
	sub, err := q.conn.QueueSubscribe(q.subject, workerQueueGroup, func(msg *nats.Msg) {
		q.deliver(base, msg.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	closed := sub.StatusChanged(nats.SubscriptionClosed)

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	timer := time.NewTimer(q.drainTimeout())
	defer timer.Stop()
	select {
	case <-closed:
	case <-timer.C:
		return fmt.Errorf("nats drain subscription: %w", nats.ErrTimeout)
	}
	slog.Info("reprocess_subscription_drained", "subject", q.subject)
	return nil
}

func (q *Queue) deliver(base context.Context, data []byte, handler func(context.Context, int64) error) {
	issueID, err := decodeReprocess(data)
	if err != nil {
		slog.Error("reprocess_message_invalid", "payload", string(data), "error", err)
		return
	}

	handlerCtx, cancel := q.handlerContext(base)
	defer cancel()
	if err := handler(handlerCtx, issueID); err != nil {
		slog.Error("reprocess_handler_failed", "issue_id", issueID, "error", err)
	}
}

func (q *Queue) handlerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if q.handlerTimeout > 0 {
		return context.WithTimeout(ctx, q.handlerTimeout)
	}
	return context.WithCancel(ctx)
}

func (q *Queue) drainTimeout() time.Duration {
	if q.handlerTimeout > 0 {
		return q.handlerTimeout + 5*time.Second
	}
	return defaultDrainTimeout
}

func encodeReprocess(issueID int64, at time.Time) ([]byte, error) {
	if issueID <= 0 {
		return nil, fmt.Errorf("invalid issue id %d", issueID)
	}
	payload, err := json.Marshal(reprocessMessage{IssueID: issueID, RequestedAt: at})
	if err != nil {
		return nil, fmt.Errorf("marshal reprocess message: %w", err)
	}
	return payload, nil
}

func decodeReprocess(data []byte) (int64, error) {
	var msg reprocessMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return 0, fmt.Errorf("unmarshal reprocess message: %w", err)
	}
	if msg.IssueID <= 0 {
		return 0, fmt.Errorf("invalid issue id %d", msg.IssueID)
	}
	return msg.IssueID, nil
}
