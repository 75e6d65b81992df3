package store

import (
	"context"

	"github.com/MrSnakeDoc/chs/internal/domain"
)

// Repository persists the declared service set.
// Implementations: sqlite.Store (live) and dryrun.Store.
type Repository interface {
	// Upsert applies a batch atomically: insert new subdomains, rewrite
	// changed ones, leave identical ones untouched.
	Upsert(ctx context.Context, hostIP string, services []domain.Service) (domain.UpsertResult, error)
	// List returns every row.
	List(ctx context.Context) ([]domain.ServiceRow, error)
	// Delete removes a subdomain. Deleting a missing subdomain is not an error.
	Delete(ctx context.Context, subdomain string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}
