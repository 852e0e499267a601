package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/pulse/internal/cache"
	"github.com/MrSnakeDoc/pulse/internal/config"
	"github.com/MrSnakeDoc/pulse/internal/fetch"
	"github.com/MrSnakeDoc/pulse/internal/httpserver"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/logger"
	"github.com/MrSnakeDoc/pulse/internal/mutation"
	"github.com/MrSnakeDoc/pulse/internal/notify"
	"github.com/MrSnakeDoc/pulse/internal/prefs"
	"github.com/MrSnakeDoc/pulse/internal/query"
	"github.com/MrSnakeDoc/pulse/internal/redis"
	"github.com/MrSnakeDoc/pulse/internal/scheduler"
	"github.com/MrSnakeDoc/pulse/internal/sources/seed"
	"github.com/MrSnakeDoc/pulse/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/pulse/internal/store/redis"
	"github.com/MrSnakeDoc/pulse/internal/version"
)

type App struct {
	cfg           *config.Config
	logger        logger.Logger
	server        *httpserver.Server
	redisClient   *goredis.Client
	queries       *query.Coordinator
	notifications *notify.Center
	poller        *scheduler.Poller
	gc            *scheduler.GarbageCollector
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	data, err := loadSeed(cfg.SeedFile)
	if err != nil {
		loggerClient.Errorf("Failed to load seed: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("seed loaded",
		logger.Int("services", len(data.Services)),
		logger.Int("events", len(data.Events)))

	// Entity store and the client that talks to it
	store := memory.New(data, storeOptions(cfg))
	client := fetch.New(store, loggerClient)

	// Query layer
	queries := query.New(query.Options{
		Cache: cache.New(cache.Options{
			Policies: cache.DefaultPolicies(cfg.CacheGCTime),
			Log:      loggerClient,
		}),
		Retry: query.RetryPolicy{
			Retries:   cfg.QueryRetries,
			BaseDelay: cfg.RetryBaseDelay,
			MaxDelay:  cfg.RetryMaxDelay,
		},
		Log: loggerClient,
	})
	services := query.NewServices(queries, client, cfg.PageSize)
	feeds := query.NewFeeds(queries, client, cfg.EventPageSize)

	// Notifications and mutations
	notifications := notify.NewCenter(notify.Options{Log: loggerClient})
	mutations := mutation.New(mutation.Options{
		Queries:  queries,
		Services: services,
		Writer:   client,
		Notifier: notifications,
		Retry: query.RetryPolicy{
			Retries:   cfg.MutationRetries,
			BaseDelay: cfg.RetryBaseDelay,
			MaxDelay:  cfg.RetryMaxDelay,
		},
		Log: loggerClient,
	})

	// Preferences: Redis when configured, process memory otherwise
	var redisClient *goredis.Client
	var prefsStore prefs.Store = &prefs.MemoryStore{}
	if cfg.UsesRedis() {
		redisClient, err = redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("Redis initialized successfully")
		prefsStore = redisstore.NewStore(redisClient, cfg.RedisPrefsName)
	} else {
		loggerClient.Info("redis not configured, preferences kept in memory")
	}

	preferences, err := prefs.Open(context.Background(), prefsStore, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to load preferences: %v", err)
		os.Exit(1)
	}

	// Schedulers
	pollTrigger := make(chan struct{}, 1)
	poller := scheduler.NewPoller(services, loggerClient, cfg.PollInterval, pollTrigger)
	gc := scheduler.NewGarbageCollector(queries.Cache(), queries, mutations, loggerClient, cfg.GCInterval)

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedOrigins: cfg.AllowedOrigins,
		Queries:        queries,
		Services:       services,
		Feeds:          feeds,
		Mutations:      mutations,
		Notifications:  notifications,
		Preferences:    preferences,
		RedisClient:    redisClient,
		PollTrigger:    pollTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:           cfg,
		logger:        loggerClient,
		server:        server,
		redisClient:   redisClient,
		queries:       queries,
		notifications: notifications,
		poller:        poller,
		gc:            gc,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting %s on %s", version.String(), a.cfg.ListenPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start status poller (first poll runs now)
	if err := a.poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start poller: %w", err)
	}
	a.logger.Info("status poller started",
		logger.Duration("interval", a.cfg.PollInterval))

	// Start garbage collector
	if err := a.gc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start garbage collector: %w", err)
	}
	a.logger.Info("garbage collector started",
		logger.Duration("interval", a.cfg.GCInterval))

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

	a.poller.Stop()
	a.gc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// Background refreshes and dismiss timers
	a.queries.Close()
	a.notifications.Close()

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Pulse stopped cleanly")
	_ = a.logger.Sync()
	return nil
}

// loadSeed reads path, or returns the built-in demo seed when path is empty.
func loadSeed(path string) (seed.Seed, error) {
	if path == "" {
		return seed.Default(), nil
	}
	config, err := seed.NewLoader(path).Load()
	if err != nil {
		return seed.Seed{}, err
	}
	return seed.NewMapper().Map(config)
}

func storeOptions(cfg *config.Config) memory.Options {
	changeRate := cfg.StatusChangeRate
	if changeRate == 0 {
		// zero means "default" to the store
		changeRate = -1
	}
	return memory.Options{
		Faults: memory.SplitFaults(
			memory.Fault{MinDelay: cfg.MinDelay, MaxDelay: cfg.MaxDelay, FailureRate: cfg.FailureRate},
			memory.Fault{MinDelay: cfg.PollMinDelay, MaxDelay: cfg.PollMaxDelay, FailureRate: cfg.FailureRate},
		),
		StatusChangeRate: changeRate,
		ListLimit:        cfg.PageSize,
		EventLimit:       cfg.EventPageSize,
	}
}
