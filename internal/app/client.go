package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrSnakeDoc/chs/internal/apiclient"
	"github.com/MrSnakeDoc/chs/internal/config"
	"github.com/MrSnakeDoc/chs/internal/discovery"
	"github.com/MrSnakeDoc/chs/internal/logger"
	"github.com/MrSnakeDoc/chs/internal/scheduler"
	"github.com/MrSnakeDoc/chs/internal/sources/static"
	"github.com/MrSnakeDoc/chs/internal/utils"
	"github.com/MrSnakeDoc/chs/internal/version"
)

// Client is the chs-client process: Docker discovery posting to a chs-server.
type Client struct {
	cfg    *config.ClientConfig
	logger logger.Logger
	api    *apiclient.Client
	poller *scheduler.Poller
	closer func()
}

// NewClient loads configuration from the environment and wires the poller.
func NewClient() (*Client, error) {
	cfg := config.LoadClient()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	docker, err := discovery.NewDockerClient()
	if err != nil {
		return nil, err
	}

	scanner := discovery.NewScanner(docker, discovery.Options{
		Label:     cfg.Label,
		PortLabel: cfg.PortLabel,
	}, loggerClient)

	var staticSource scheduler.StaticSource
	if cfg.StaticFile != "" {
		loggerClient.Info("static services file configured", logger.String("file", cfg.StaticFile))
		staticSource = static.NewLoader(cfg.StaticFile)
	}

	api := apiclient.New(cfg.ServerURL, cfg.HandshakeKey, cfg.RequestTimeout)

	poller := scheduler.NewPoller(scanner, staticSource, api, scheduler.PollerOptions{
		HostIP:   cfg.HostIP,
		Interval: cfg.PollInterval,
		DryRun:   cfg.DryRun,
	}, loggerClient)

	return &Client{
		cfg:    cfg,
		logger: loggerClient,
		api:    api,
		poller: poller,
		closer: func() { utils.CloseLogged(docker, "docker", loggerClient) },
	}, nil
}

// Run polls until SIGINT/SIGTERM.
func (c *Client) Run() error {
	c.logger.Infof("🚀 Starting chs-client v%s (server=%s, host_ip=%s)",
		version.Version, c.cfg.ServerURL, c.cfg.HostIP)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer c.closer()

	if !c.cfg.DryRun {
		// Informational only; the poller retries on every tick anyway.
		if err := c.api.HealthCheck(ctx); err != nil {
			c.logger.Warn("server health check failed", logger.Error(err))
		} else {
			c.logger.Info("server reachable", logger.String("url", c.cfg.ServerURL))
		}
	}

	if err := c.poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start poller: %w", err)
	}
	c.logger.Info("poller started",
		logger.Duration("interval", c.cfg.PollInterval),
		logger.String("label", c.cfg.Label))

	<-ctx.Done()
	c.logger.Info("⏳ Shutting down gracefully...")
	c.poller.Stop()

	c.logger.Info("✅ chs-client stopped cleanly")
	_ = c.logger.Sync()
	return nil
}
