package dryrun

import (
	"context"

	"github.com/MrSnakeDoc/chs/internal/domain"
	"github.com/MrSnakeDoc/chs/internal/logger"
)

// Store replaces every write with a log line and never holds state.
type Store struct {
	logger logger.Logger
}

func New(log logger.Logger) *Store {
	return &Store{logger: log.Named("dry-run")}
}

// Upsert logs each service that would be written and reports them as unchanged.
func (s *Store) Upsert(_ context.Context, hostIP string, services []domain.Service) (domain.UpsertResult, error) {
	for _, svc := range services {
		s.logger.Info("dry-run: would upsert service",
			logger.String("subdomain", svc.Subdomain),
			logger.String("host_ip", hostIP),
			logger.Int("port", svc.Port))
	}
	return domain.UpsertResult{Unchanged: len(services)}, nil
}

// List always returns an empty set since nothing backs it.
func (s *Store) List(context.Context) ([]domain.ServiceRow, error) {
	return []domain.ServiceRow{}, nil
}

func (s *Store) Delete(_ context.Context, subdomain string) (bool, error) {
	s.logger.Info("dry-run: would delete service", logger.String("subdomain", subdomain))
	return false, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
