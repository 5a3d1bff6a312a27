package vertex

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "vertex status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("vertex %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("vertex %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func classifyVertexError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.Ignored
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Ignored
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.Transient
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return resilience.Transient
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			// Broken credentials or model name: trip the breaker, do not retry.
			return resilience.Permanent
		default:
			return resilience.Ignored
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Transient
	}

	return resilience.Permanent
}

// wrapVertexError tags the error with a domain kind: ErrTemporary when a
// later attempt may succeed, ErrExtractionUnavailable when the service
// rejects the caller outright.
func wrapVertexError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrExtractionUnavailable) {
		return err
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return domain.WrapError(domain.ErrExtractionUnavailable, operation, err)
		}
	}

	class := classifyVertexError(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
