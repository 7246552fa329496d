package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/conference-companion-go/internal/adapter"
	"github.com/kapu/conference-companion-go/internal/cms"
	"github.com/kapu/conference-companion-go/internal/config"
	"github.com/kapu/conference-companion-go/internal/constants"
	"github.com/kapu/conference-companion-go/internal/domain"
	"github.com/kapu/conference-companion-go/internal/idmap"
	"github.com/kapu/conference-companion-go/internal/normalize"
	"github.com/kapu/conference-companion-go/internal/server"
	"github.com/kapu/conference-companion-go/internal/service/assistant"
	"github.com/kapu/conference-companion-go/internal/service/cache"
	"github.com/kapu/conference-companion-go/internal/service/content"
	"github.com/kapu/conference-companion-go/internal/service/database"
	"github.com/kapu/conference-companion-go/internal/util"
	apperrors "github.com/kapu/conference-companion-go/pkg/errors"
)

// Container bundles the assembled services and owns their lifecycle.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Content   *content.Service
	Refresher *content.Refresher
	Server    *server.Server
	Hub       *server.Hub

	cache   *cache.CacheService
	closers []func()

	// runCtx is cancelled by Shutdown; mu guards the started/stopped handoff.
	runCtx  context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	stopped bool
}

// Build assembles all infrastructure services. Optional backends (Redis,
// Postgres, chat providers) are skipped when not configured.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	ids, err := LoadIdentifierTables(cfg.CMS.IDMapFile)
	if err != nil {
		return nil, err
	}

	// Cache and database
	var (
		cacheSvc   *cache.CacheService
		fetchCache cms.Cache
		convStore  assistant.ConversationStore
	)
	if cfg.Redis.Enabled() {
		cacheSvc, err = cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache service: %w", err)
		}
		closers = append(closers, func() {
			_ = cacheSvc.Close()
		})
		if err := cacheSvc.WaitUntilReady(ctx, constants.RedisConfig.ReadyTimeout); err != nil {
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		fetchCache = cacheSvc
		convStore = cacheSvc
	} else {
		logger.Info("Redis disabled, collections are fetched on every refresh")
	}

	var (
		archive     cms.Archive
		postgresSvc *database.PostgresService
	)
	if cfg.Postgres.Enabled() {
		var pgErr error
		postgresSvc, pgErr = database.NewPostgresService(ctx, database.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		}, logger)
		if pgErr != nil {
			return nil, fmt.Errorf("failed to create postgres service: %w", pgErr)
		}
		closers = append(closers, func() {
			_ = postgresSvc.Close()
		})

		snapshots := database.NewSnapshotRepository(postgresSvc.GetDB(), logger)
		if err := snapshots.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare snapshot table: %w", err)
		}
		if infos, listErr := snapshots.List(ctx); listErr == nil {
			logger.Info("CMS snapshot archive ready", zap.Int("collections", len(infos)))
		}
		archive = snapshots
	}

	// CMS
	client, err := cms.NewClient(cms.ClientConfig{
		BaseURL: cfg.CMS.BaseURL,
		Tokens:  cfg.CMS.Tokens,
		Timeout: cfg.CMS.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create CMS client: %w", err)
	}
	fetcher := cms.NewFetcher(client, cms.FetcherConfig{
		CollectionIDs: cfg.CMS.CollectionIDs,
		PageSize:      cfg.CMS.PageSize,
	}, fetchCache, archive, logger)

	// Content pipeline
	contentSvc := content.NewService(
		fetcher,
		normalize.New(ids),
		adapter.NewScheduleCardBuilder(cfg.Conference.Location),
		logger,
	)

	refresher, err := content.NewRefresher(contentSvc, cfg.Refresh.Schedule, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresher: %w", err)
	}

	hub := server.NewHub(logger)
	if cacheSvc != nil {
		contentSvc.AddNotifier(content.NewPubSubNotifier(cacheSvc))
	} else {
		contentSvc.AddNotifier(hub)
	}

	// Assistant
	var (
		asker        server.Asker
		assistantSvc *assistant.Assistant
	)
	if cfg.Gemini.APIKey != "" {
		gemini, gErr := assistant.NewGeminiProvider(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
		if gErr != nil {
			return nil, gErr
		}

		var fallback assistant.ChatProvider
		if cfg.OpenAI.EnableFallback {
			if openAI := assistant.NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger); openAI != nil {
				fallback = openAI
				logger.Info("OpenAI fallback enabled", zap.String("model", cfg.OpenAI.Model))
			}
		}

		assistantSvc = assistant.New(gemini, fallback, contentSvc, convStore, assistant.Config{
			ConferenceName: cfg.Conference.Name,
			Location:       cfg.Conference.Location,
		}, logger)
		asker = assistantSvc
	} else {
		logger.Info("Assistant disabled (no GEMINI_API_KEY)")
	}

	srv := server.New(server.Config{
		Addr: cfg.Server.Addr,
		Calendar: adapter.CalendarOptions{
			Name:     cfg.Conference.Name,
			Domain:   cfg.Conference.CalendarDomain,
			Location: cfg.Conference.Location,
		},
	}, contentSvc, asker, hub, logger)

	srv.AddHealthCheck("cms", circuitCheck(client.CircuitStatus))
	if cacheSvc != nil {
		srv.AddHealthCheck("redis", func(ctx context.Context) error {
			if !cacheSvc.IsConnected(ctx) {
				return fmt.Errorf("redis ping failed")
			}
			return nil
		})
	}
	if postgresSvc != nil {
		srv.AddHealthCheck("postgres", postgresSvc.Ping)
	}
	if assistantSvc != nil {
		srv.AddHealthCheck("assistant", circuitCheck(assistantSvc.CircuitStatus))
	}

	runCtx, cancel := context.WithCancel(context.Background())

	return &Container{
		Config:    cfg,
		Logger:    logger,
		Content:   contentSvc,
		Refresher: refresher,
		Server:    srv,
		Hub:       hub,
		cache:     cacheSvc,
		closers:   closers,
		runCtx:    runCtx,
		cancel:    cancel,
	}, nil
}

// Start runs the initial refresh, schedules the refresher and serves HTTP until
// Shutdown. A failed initial refresh is logged; the server still starts and
// reports 503 until a later refresh succeeds.
func (c *Container) Start(ctx context.Context) error {
	stopLink := context.AfterFunc(ctx, c.cancel)
	defer stopLink()
	runCtx := c.runCtx

	if c.cache != nil {
		go c.Hub.Listen(runCtx, c.cache.Subscribe(runCtx, content.RefreshChannel))
	}

	if c.Config.Refresh.OnStartup {
		refreshCtx, cancel := context.WithTimeout(runCtx, constants.ServerConfig.RefreshTimeout)
		if _, err := c.Content.Refresh(refreshCtx, false); err != nil {
			c.Logger.Error("Initial content refresh failed", zap.Error(err))
		}
		cancel()
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		c.Logger.Info("Shutdown requested during startup, not serving")
		return nil
	}
	c.Refresher.Start()
	c.mu.Unlock()

	return c.Server.Start()
}

// Shutdown stops the refresher and the server, then releases backends. It is
// safe to call from another goroutine while Start is still running.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	c.mu.Unlock()

	c.cancel()
	c.Refresher.Stop(ctx)
	err := c.Server.Shutdown(ctx)

	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	return err
}

// circuitCheck reports an open breaker as unhealthy.
func circuitCheck(status func() util.CircuitBreakerStatus) server.HealthCheck {
	return func(context.Context) error {
		st := status()
		if st.State != util.CircuitStateOpen {
			return nil
		}
		if st.NextRetryTime != nil {
			return fmt.Errorf("circuit open until %s", st.NextRetryTime.Format(time.RFC3339))
		}
		return fmt.Errorf("circuit open")
	}
}

// LoadIdentifierTables reads the YAML tables at path, or the embedded ones when
// path is empty.
func LoadIdentifierTables(path string) (*idmap.Map, error) {
	if path == "" {
		return idmap.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identifier tables: %w", err)
	}
	m, err := idmap.Load(data)
	if err != nil {
		return nil, err
	}
	if err := checkConferenceDays(m); err != nil {
		return nil, err
	}
	return m, nil
}

// checkConferenceDays rejects override tables that cannot resolve every agenda day.
func checkConferenceDays(m *idmap.Map) error {
	for _, day := range domain.ConferenceDays {
		if _, ok := m.IdentifierFor(idmap.CategoryScheduleDay, day.String()); !ok {
			return apperrors.NewConfigError(
				fmt.Sprintf("schedule-day table has no %q (labels: %s)", day, strings.Join(m.Labels(idmap.CategoryScheduleDay), ", ")),
				"idmap", nil)
		}
	}
	return nil
}
