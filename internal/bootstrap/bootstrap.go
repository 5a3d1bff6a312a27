package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/civic-issues/internal/config"
	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/core/ports"
	"github.com/kirillkom/civic-issues/internal/core/usecase"
	"github.com/kirillkom/civic-issues/internal/infrastructure/exif"
	"github.com/kirillkom/civic-issues/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/civic-issues/internal/infrastructure/queue/nats"
	"github.com/kirillkom/civic-issues/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/civic-issues/internal/infrastructure/resilience"
	"github.com/kirillkom/civic-issues/internal/infrastructure/seed"
	sessionredis "github.com/kirillkom/civic-issues/internal/infrastructure/session/redis"
	"github.com/kirillkom/civic-issues/internal/infrastructure/spatial/h3index"
	"github.com/kirillkom/civic-issues/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/civic-issues/internal/infrastructure/storage/s3"
	"github.com/kirillkom/civic-issues/internal/infrastructure/vision/vertex"
	"github.com/kirillkom/civic-issues/internal/observability/metrics"
)

const bcryptCost = 12

// Options selects which optional backends a binary needs.
type Options struct {
	Service string
	// Registerer receives pipeline and resilience metrics. Nil disables them.
	Registerer prometheus.Registerer
	// Sessions connects Redis; only the API serves logins.
	Sessions bool
	// Queue connects NATS for publishing or consuming reprocess requests.
	Queue bool
}

type App struct {
	Config config.Config

	Storage ports.ObjectStorage
	// Media serves local storage over HTTP; nil for the S3 backend.
	Media http.Handler
	Queue *nats.Queue

	Extractor   ports.WatermarkExtractor
	Uploader    *usecase.UploadBatchUseCase
	Reprocessor ports.IssueReprocessor
	Issues      ports.IssueService
	IssueTypes  ports.IssueTypeCatalog
	Auth        ports.Authenticator
	Users       ports.UserAdministrator
	Stats       ports.StatisticsService
	Map         ports.MapService

	closers []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	app := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.onClose(func() { _ = db.Close() })
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, media, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	app.Storage = storage
	app.Media = media

	var pipelineMetrics *metrics.PipelineMetrics
	if opts.Registerer != nil {
		pipelineMetrics = metrics.NewPipelineMetrics(opts.Service, opts.Registerer)
	}

	extractor, err := NewExtractor(ctx, cfg, pipelineMetrics)
	if err != nil {
		return nil, err
	}
	app.Extractor = extractor

	var queue ports.ReprocessQueue
	if opts.Queue {
		queueExecutor := resilience.NewExecutor(resilience.QueueConfig())
		if pipelineMetrics != nil {
			queueExecutor.WithObserver(pipelineMetrics)
		}
		q, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: queueExecutor,
			HandlerTimeout:     cfg.VertexTimeout * 3,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.onClose(q.Close)
		app.Queue = q
		queue = q
	}

	indexer, err := h3index.New(cfg.H3Resolution)
	if err != nil {
		return nil, fmt.Errorf("init h3 indexer: %w", err)
	}

	issueRepo := postgres.NewIssueRepository(db)
	typeRepo := postgres.NewIssueTypeRepository(db)
	userRepo := postgres.NewUserRepository(db)

	var recorder ports.PipelineMetrics
	if pipelineMetrics != nil {
		recorder = pipelineMetrics
	}

	issueTypes := usecase.NewIssueTypeUseCase(typeRepo, issueRepo)
	app.IssueTypes = issueTypes
	app.Uploader = usecase.NewUploadBatchUseCase(
		extractor,
		exif.NewReader(),
		storage,
		issueRepo,
		usecase.UploadConfig{TempDir: cfg.TempDir, ExifFallback: cfg.ExifFallbackEnabled},
		recorder,
	)
	app.Reprocessor = usecase.NewReprocessIssueUseCase(issueRepo, storage, extractor, cfg.TempDir)
	app.Issues = usecase.NewIssueUseCase(issueRepo, typeRepo, storage, queue, xlsx.NewExporter())
	app.Stats = usecase.NewStatisticsUseCase(issueRepo)
	app.Map = usecase.NewMapUseCase(issueRepo, indexer)

	hasher := usecase.NewBcryptHasher(bcryptCost)
	app.Users = usecase.NewUserAdminUseCase(userRepo, hasher)

	if opts.Sessions {
		client := sessionredis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		app.onClose(func() { _ = client.Close() })
		store := sessionredis.NewStore(client).WithSlidingTTL(cfg.SessionTTL)
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		app.Auth = usecase.NewAuthUseCase(userRepo, store, hasher, cfg.SessionTTL)
	}

	if cfg.IssueTypesSeedPath != "" {
		if err := seedIssueTypes(ctx, cfg.IssueTypesSeedPath, issueTypes); err != nil {
			return nil, err
		}
	}

	ok = true
	return app, nil
}

// NewExtractor builds the watermark extraction orchestrator. Without a GCP
// project and location every call fails with a configuration error, which
// the upload pipeline reports per file.
func NewExtractor(ctx context.Context, cfg config.Config, observer *metrics.PipelineMetrics) (ports.WatermarkExtractor, error) {
	var recorder ports.PipelineMetrics
	if observer != nil {
		recorder = observer
	}
	extractCfg := usecase.ExtractConfig{ProjectID: cfg.GCPProjectID, Location: cfg.GCPLocation}

	if !cfg.VisionConfigured() {
		slog.Warn("vision_not_configured", "hint", "set GCP_PROJECT_ID and GCP_LOCATION")
		return usecase.NewExtractWatermarkUseCase(nil, extractCfg, recorder), nil
	}

	httpClient, err := vertex.NewAuthorizedHTTPClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("init vertex credentials: %w", err)
	}
	executor := resilience.NewExecutor(resilience.DefaultConfig())
	if observer != nil {
		executor.WithObserver(observer)
	}
	model := vertex.New(vertex.Config{
		ProjectID: cfg.GCPProjectID,
		Location:  cfg.GCPLocation,
		Model:     cfg.VertexModel,
		Endpoint:  cfg.VertexEndpoint,
		Timeout:   cfg.VertexTimeout,
	}, httpClient, executor)

	return usecase.NewExtractWatermarkUseCase(model, extractCfg, recorder), nil
}

func newStorage(ctx context.Context, cfg config.Config) (ports.ObjectStorage, http.Handler, error) {
	switch cfg.StorageBackend {
	case "local":
		store, err := localfs.New(cfg.StoragePath, cfg.StoragePublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, http.FileServer(http.Dir(store.BasePath())), nil
	case "s3", "":
		store, err := s3.New(ctx, s3.Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Bucket:          cfg.S3Bucket,
			PublicBaseURL:   cfg.StoragePublicBaseURL,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		return nil, nil, domain.WrapError(
			domain.ErrConfiguration,
			"init storage",
			fmt.Errorf("unknown STORAGE_BACKEND %q (want s3 or local)", cfg.StorageBackend),
		)
	}
}

func seedIssueTypes(ctx context.Context, path string, catalog ports.IssueTypeCatalog) error {
	file, err := seed.Load(path)
	if err != nil {
		return fmt.Errorf("load issue type seed: %w", err)
	}
	if _, err := seed.ApplyIssueTypes(ctx, catalog, file); err != nil {
		return err
	}
	return nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
