package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sundayezeilo/shortlinks/codegen"
	"github.com/sundayezeilo/shortlinks/internal/allocator"
	"github.com/sundayezeilo/shortlinks/internal/config"
	"github.com/sundayezeilo/shortlinks/internal/db"
	"github.com/sundayezeilo/shortlinks/internal/idgen"
	"github.com/sundayezeilo/shortlinks/internal/link"
	"github.com/sundayezeilo/shortlinks/internal/server"
	"github.com/sundayezeilo/shortlinks/internal/storage"
	"github.com/sundayezeilo/shortlinks/internal/storage/memstore"
	"github.com/sundayezeilo/shortlinks/internal/storage/redisstore"
)

// Core holds the dependencies shared by the server and the command line tools.
type Core struct {
	Config    *config.Config
	Logger    *slog.Logger
	DBPool    *pgxpool.Pool
	Store     *db.Store
	Redis     *redis.Client // nil with the memory backend
	Keys      storage.Store
	Allocator *allocator.Allocator
	Links     link.Service
}

// App holds the application dependencies and configuration.
type App struct {
	*Core
	Server  *server.Server
	Handler *link.Handler
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	if err := LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := SetupLogger(cfg.App.LogLevel)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"version", cfg.Observability.ServiceVersion,
		"storage", cfg.Storage.Backend,
	)

	core, err := NewCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	handler := link.NewHandler(link.HandlerConfig{
		Service: core.Links,
		Logger:  logger,
	})

	srv := server.New(cfg, logger, handler, core.healthChecks())

	logger.Info("application initialized",
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	return &App{
		Core:    core,
		Server:  srv,
		Handler: handler,
	}, nil
}

// NewCore connects to Postgres and the key store and builds the link service.
func NewCore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Core, error) {
	dbPool, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.Migrate {
		if err := db.Migrate(ctx, dbPool); err != nil {
			dbPool.Close()
			return nil, err
		}
		logger.Info("database schema applied")
	}

	core := &Core{
		Config: cfg,
		Logger: logger,
		DBPool: dbPool,
		Store:  db.NewStore(dbPool),
	}

	if err := core.connectStorage(ctx); err != nil {
		core.Close()
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}

	gen, err := codegen.New(cfg.Codes.Generator)
	if err != nil {
		core.Close()
		return nil, err
	}

	core.Allocator = allocator.New(core.Keys, &allocator.Config{
		Generator:   gen,
		CodeLength:  cfg.Codes.Length,
		MaxAttempts: cfg.Codes.MaxAttempts,
		Logger:      logger,
	})

	repo := link.NewRepository(core.Store, &link.RepositoryConfig{
		IDGenerator: idgen.New(idgen.Version(cfg.App.IDVersion), idgen.WithRetries(1)),
	})
	core.Links = link.NewService(repo, &link.ServiceConfig{
		Store:       core.Keys,
		Allocator:   core.Allocator,
		MaxAttempts: cfg.Codes.MaxAttempts,
		Logger:      logger,
	})

	return core, nil
}

func (c *Core) connectStorage(ctx context.Context) error {
	switch c.Config.Storage.Backend {
	case config.StorageMemory:
		c.Logger.Warn("using in-memory key storage; published codes are lost on restart")
		c.Keys = memstore.New()
		return nil

	case config.StorageRedis:
		r := c.Config.Redis
		client, err := redisstore.Connect(ctx, redisstore.ConnectOptions{
			Addr:           r.Addr,
			Username:       r.Username,
			Password:       r.Password,
			DB:             r.DB,
			DialTimeout:    r.DialTimeout,
			ReadTimeout:    r.ReadTimeout,
			WriteTimeout:   r.WriteTimeout,
			PoolSize:       r.PoolSize,
			ConnectTimeout: r.ConnectTimeout,
			RetryInterval:  r.RetryInterval,
			MaxWait:        r.MaxWait,
			PingTimeout:    r.PingTimeout,
		}, c.Logger)
		if err != nil {
			return err
		}
		c.Redis = client
		c.Keys = redisstore.New(client)
		return nil

	default:
		return fmt.Errorf("unknown storage backend %q", c.Config.Storage.Backend)
	}
}

func (c *Core) healthChecks() map[string]server.HealthFunc {
	checks := map[string]server.HealthFunc{
		"postgres": c.DBPool.Ping,
	}
	if c.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		}
	}
	return checks
}

// Close releases the Redis client and the database pool.
func (c *Core) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Error("failed to close redis client", "error", err.Error())
		} else {
			c.Logger.Info("redis connection closed")
		}
	}
	if c.DBPool != nil {
		c.DBPool.Close()
		c.Logger.Info("database connection closed")
	}
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("server starting",
		"port", a.Config.Server.Port,
		"base_url", a.Config.Server.BaseURL,
	)

	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")
	a.Close()
	return nil
}

// LoadEnv loads a .env file from the working directory or its parent, only
// in non-production environments.
func LoadEnv() error {
	env := os.Getenv("APP_ENV")
	if env != "development" && env != "test" {
		return nil
	}
	for _, path := range []string{".env", "../.env"} {
		if err := godotenv.Load(path); err == nil {
			return nil
		}
	}
	log.Println("no .env file found.")
	return nil
}

// SetupLogger creates a structured logger based on the log level.
func SetupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// connectDatabase establishes a connection to the PostgreSQL database.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")

	return pool, nil
}
