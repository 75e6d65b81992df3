package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/chs/internal/domain"
	"github.com/MrSnakeDoc/chs/internal/logger"
	"github.com/MrSnakeDoc/chs/internal/notify"
	"github.com/MrSnakeDoc/chs/internal/store"
)

// Regenerator rebuilds handler files from the current state.
type Regenerator interface {
	Regenerate(ctx context.Context) ([]string, error)
}

// Registry owns the write path: mutate the store, then regenerate every
// handler file from the full state, then notify. There is no lock around the
// two steps; concurrent requests may render a state slightly newer than
// their own write.
type Registry struct {
	repo      store.Repository
	renderer  Regenerator
	publisher notify.Publisher
	logger    logger.Logger
	now       func() time.Time
}

func New(repo store.Repository, renderer Regenerator, publisher notify.Publisher, log logger.Logger) *Registry {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &Registry{
		repo:      repo,
		renderer:  renderer,
		publisher: publisher,
		logger:    log.Named("registry"),
		now:       time.Now,
	}
}

// Apply upserts a batch and regenerates handler files.
func (r *Registry) Apply(ctx context.Context, batch domain.Batch) (domain.UpsertResult, error) {
	res, err := r.repo.Upsert(ctx, batch.HostIP, batch.Services)
	if err != nil {
		return res, fmt.Errorf("upsert failed: %w", err)
	}

	r.logger.Info("services upserted",
		logger.String("host_ip", batch.HostIP),
		logger.Int("inserted", res.Inserted),
		logger.Int("updated", res.Updated),
		logger.Int("unchanged", res.Unchanged))

	if err := r.regenerate(ctx, notify.ReasonUpsert); err != nil {
		return res, err
	}
	return res, nil
}

// Remove deletes a subdomain (a missing one is fine) and regenerates handler files.
func (r *Registry) Remove(ctx context.Context, subdomain string) error {
	existed, err := r.repo.Delete(ctx, subdomain)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	if existed {
		r.logger.Info("service deleted", logger.String("subdomain", subdomain))
	} else {
		r.logger.Debug("delete of unknown service ignored", logger.String("subdomain", subdomain))
	}

	return r.regenerate(ctx, notify.ReasonDelete)
}

// List returns every stored row.
func (r *Registry) List(ctx context.Context) ([]domain.ServiceRow, error) {
	rows, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list failed: %w", err)
	}
	return rows, nil
}

func (r *Registry) regenerate(ctx context.Context, reason notify.Reason) error {
	hosts, err := r.renderer.Regenerate(ctx)
	if err != nil {
		return fmt.Errorf("regenerate failed: %w", err)
	}

	// Notification is best effort; the files are already on disk.
	ev := notify.Event{Hosts: hosts, Reason: reason, At: r.now().UTC()}
	if err := r.publisher.Publish(ctx, ev); err != nil {
		r.logger.Warn("failed to publish regeneration event",
			logger.String("reason", string(reason)),
			logger.Error(err))
	}
	return nil
}
