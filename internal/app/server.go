package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/chs/internal/config"
	"github.com/MrSnakeDoc/chs/internal/httpserver"
	"github.com/MrSnakeDoc/chs/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chs/internal/logger"
	"github.com/MrSnakeDoc/chs/internal/notify"
	"github.com/MrSnakeDoc/chs/internal/redis"
	"github.com/MrSnakeDoc/chs/internal/registry"
	"github.com/MrSnakeDoc/chs/internal/render"
	"github.com/MrSnakeDoc/chs/internal/store"
	"github.com/MrSnakeDoc/chs/internal/store/dryrun"
	"github.com/MrSnakeDoc/chs/internal/store/sqlite"
	"github.com/MrSnakeDoc/chs/internal/utils"
	"github.com/MrSnakeDoc/chs/internal/version"
)

// Server is the chs-server process: HTTP API, store, renderer and notifier.
type Server struct {
	cfg         *config.ServerConfig
	logger      logger.Logger
	server      *httpserver.Server
	repo        store.Repository
	redisClient *goredis.Client
}

// NewServer loads configuration from the environment and wires every component.
func NewServer() (*Server, error) {
	cfg := config.LoadServer()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	var repo store.Repository
	if cfg.DryRun {
		loggerClient.Warn("dry-run mode: database and handler files will not be modified")
		repo = dryrun.New(loggerClient)
	} else {
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		loggerClient.Info("database ready", logger.String("path", db.Path()))
		repo = db
	}

	renderer := render.New(repo, render.Options{
		Dir:    cfg.HandlersDir,
		DryRun: cfg.DryRun,
		Prune:  cfg.PruneStaleFiles,
	}, loggerClient)

	// Notifications are optional; a Redis outage must not keep the API down.
	var (
		publisher   notify.Publisher = notify.Nop{}
		notifier    deps.Pinger
		redisClient *goredis.Client
	)
	if cfg.RedisAddr != "" {
		client, err := redis.Connect(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, loggerClient)
		if err != nil {
			loggerClient.Warn("redis unavailable, notifications disabled", logger.Error(err))
		} else {
			rp := notify.NewRedisPublisher(client, cfg.RedisChannel)
			publisher, notifier, redisClient = rp, rp, client
			loggerClient.Info("notifications enabled", logger.String("channel", rp.Channel()))
		}
	}

	reg := registry.New(repo, renderer, publisher, loggerClient)

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		HandshakeKey: cfg.HandshakeKey,
		DryRun:       cfg.DryRun,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		MaxBodyBytes: int64(cfg.MaxRequestBodyKB) << 10,
		HandlersDir:  cfg.HandlersDir,
		Registry:     reg,
		Store:        repo,
		Notifier:     notifier,
	}

	return &Server{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		repo:        repo,
		redisClient: redisClient,
	}, nil
}

// Run serves until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	s.logger.Infof("🚀 Starting chs-server v%s on %s", version.Version, s.cfg.ListenPort)
	s.logger.Infof("chs-server %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer s.close()

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	s.logger.Info("✅ chs-server stopped cleanly")
	return nil
}

func (s *Server) close() {
	utils.CloseLogged(s.repo, "store", s.logger)
	if s.redisClient != nil {
		utils.CloseLogged(s.redisClient, "redis", s.logger)
	}
	_ = s.logger.Sync()
}
