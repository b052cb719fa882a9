package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/marque-app/marque/internal/auth"
	"github.com/marque-app/marque/internal/config"
	"github.com/marque-app/marque/internal/httpserver"
	"github.com/marque-app/marque/internal/httpserver/deps"
	"github.com/marque-app/marque/internal/logger"
	"github.com/marque-app/marque/internal/redis"
	"github.com/marque-app/marque/internal/session"
	"github.com/marque-app/marque/internal/sources/webexport"
	"github.com/marque-app/marque/internal/store"
	redisstore "github.com/marque-app/marque/internal/store/redis"
	supabasestore "github.com/marque-app/marque/internal/store/supabase"
	"github.com/marque-app/marque/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	sessions    *session.Manager
	importer    *webexport.Importer
	watcher     *webexport.Watcher
	redisClient *goredis.Client
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	st, resolver, redisClient := buildBackend(cfg, loggerClient)

	// Every backend call rides through the breaker so one slow outage
	// does not pile up blocked sync passes.
	guarded := store.WithBreaker(st)

	sessions := session.NewManager(resolver, guarded, loggerClient,
		cfg.SyncInterval, cfg.SessionIdleTTL, cfg.SessionSweep)

	var importer *webexport.Importer
	if cfg.ImportFile != "" {
		loggerClient.Info("import file configured",
			logger.String("file", cfg.ImportFile),
			logger.String("owner", cfg.ImportOwner))
		importer = webexport.NewImporter(guarded, cfg.ImportOwner, loggerClient)
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		Resolver:       resolver,
		Store:          guarded,
		Sessions:       sessions,
		StoreBackend:   cfg.StoreBackend,
		RedisClient:    redisClient,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		sessions:    sessions,
		importer:    importer,
		redisClient: redisClient,
	}
}

// buildBackend wires the configured storage backend and its matching
// identity resolver.
func buildBackend(cfg *config.Config, log logger.Logger) (store.Store, auth.Resolver, *goredis.Client) {
	switch cfg.StoreBackend {
	case config.BackendSupabase:
		sb, err := supabasestore.New(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			log.Errorf("Failed to initialize supabase client: %v", err)
			os.Exit(1)
		}
		log.Info("supabase backend initialized", logger.String("url", cfg.SupabaseURL))
		return sb, sb.NewResolver(), nil

	case config.BackendRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err := redis.New(redis.OptionsFromConfig(cfg), log)
		if err != nil {
			log.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		log.Info("Redis initialized successfully")

		resolver, err := auth.NewJWTResolver(cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			log.Errorf("Failed to initialize token resolver: %v", err)
			os.Exit(1)
		}
		return redisstore.NewStore(redisClient), resolver, redisClient

	default:
		// config.Load already validated the backend name
		log.Errorf("Unknown store backend %q", cfg.StoreBackend)
		os.Exit(1)
		return nil, nil, nil
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Marque v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Marque %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run the one-shot import before serving so first syncs see the rows
	if a.importer != nil {
		n, err := a.importer.ImportFile(ctx, a.cfg.ImportFile)
		if err != nil {
			a.logger.Warn("startup import failed", logger.Error(err))
		} else {
			a.logger.Info("startup import done", logger.Int("imported", n))
		}

		if a.cfg.WatchImport {
			watcher, err := webexport.NewWatcher(a.importer, a.cfg.ImportFile, a.logger)
			if err != nil {
				return fmt.Errorf("failed to start import watcher: %w", err)
			}
			a.watcher = watcher
		}
	}

	// Start the session manager (idle session sweeper)
	a.sessions.Start(ctx)
	a.logger.Info("session manager started",
		logger.Duration("sync_interval", a.cfg.SyncInterval),
		logger.Duration("idle_ttl", a.cfg.SessionIdleTTL))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.watcher != nil {
		a.watcher.Stop()
	}

	// Stop all live sessions and their pollers
	a.sessions.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Marque stopped cleanly")
	return nil
}
