package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/chs/internal/domain"
	"github.com/MrSnakeDoc/chs/internal/logger"
	"github.com/MrSnakeDoc/chs/internal/sources/static"
)

// Scanner discovers the services running on this host.
type Scanner interface {
	Scan(ctx context.Context) ([]domain.Service, error)
}

// StaticSource provides services declared outside of Docker.
type StaticSource interface {
	Load() ([]domain.Service, error)
}

// Poster delivers a batch to the server.
type Poster interface {
	PostServices(ctx context.Context, batch domain.Batch) error
}

// PollerOptions configures a Poller.
type PollerOptions struct {
	HostIP   string
	Interval time.Duration
	DryRun   bool
}

// Poller periodically scans Docker and announces the result to the server.
type Poller struct {
	scanner  Scanner
	static   StaticSource // optional
	poster   Poster
	logger   logger.Logger
	opts     PollerOptions
	stopCh   chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	done     chan struct{}
}

// NewPoller creates a poller. static may be nil.
func NewPoller(scanner Scanner, static StaticSource, poster Poster, opts PollerOptions, log logger.Logger) *Poller {
	return &Poller{
		scanner: scanner,
		static:  static,
		poster:  poster,
		logger:  log.Named("poller"),
		opts:    opts,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start runs a first poll immediately, then one per interval until Stop or ctx is done.
// Poll failures are logged; the next tick retries.
func (p *Poller) Start(ctx context.Context) error {
	if p.opts.Interval <= 0 {
		return fmt.Errorf("poll interval must be > 0, got %v", p.opts.Interval)
	}

	if !p.started.CompareAndSwap(false, true) {
		return fmt.Errorf("poller already started")
	}
	p.runOnce(ctx)

	ticker := time.NewTicker(p.opts.Interval)
	go func() {
		defer close(p.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.runOnce(ctx)
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the loop and waits for an in-flight poll to return.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	if p.started.Load() {
		<-p.done
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	if err := p.Poll(ctx); err != nil {
		p.logger.Error("poll failed", logger.Error(err))
	}
}

// Poll performs one scan and posts the batch.
func (p *Poller) Poll(ctx context.Context) error {
	services, err := p.scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("docker scan failed: %w", err)
	}

	if p.static != nil {
		extra, err := p.static.Load()
		if err != nil {
			// Docker results are still announced.
			p.logger.Warn("failed to load static services", logger.Error(err))
		} else {
			services = static.Merge(services, extra)
		}
	}

	batch := domain.Batch{HostIP: p.opts.HostIP, Services: services}

	if p.opts.DryRun {
		for _, s := range services {
			p.logger.Info("dry-run: would announce service",
				logger.String("host_ip", batch.HostIP),
				logger.String("subdomain", s.Subdomain),
				logger.Int("port", s.Port))
		}
		p.logger.Info("dry-run: batch not posted", logger.Int("services", len(services)))
		return nil
	}

	if err := p.poster.PostServices(ctx, batch); err != nil {
		return fmt.Errorf("failed to post services: %w", err)
	}

	p.logger.Info("services announced",
		logger.String("host_ip", batch.HostIP),
		logger.Int("count", len(services)))
	return nil
}
