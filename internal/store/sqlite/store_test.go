package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/chs/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "chs.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func findRow(rows []domain.ServiceRow, subdomain string) (domain.ServiceRow, bool) {
	for _, r := range rows {
		if r.Subdomain == subdomain {
			return r, true
		}
	}
	return domain.ServiceRow{}, false
}

func TestUpsertInsertsNewRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	res, err := s.Upsert(ctx, "192.168.1.100", []domain.Service{
		{Subdomain: "test-app", Port: 3000},
		{Subdomain: "grafana", Port: 3001},
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if res.Inserted != 2 || res.Updated != 0 || res.Unchanged != 0 {
		t.Errorf("Upsert() result = %+v, want 2 inserted", res)
	}

	rows, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("List() returned %d rows, want 2", len(rows))
	}

	row, ok := findRow(rows, "test-app")
	if !ok {
		t.Fatal("test-app missing")
	}
	if row.HostIP != "192.168.1.100" || row.Port != 3000 {
		t.Errorf("row = %+v", row)
	}
	if row.CreatedAt.IsZero() || !row.CreatedAt.Equal(row.UpdatedAt) {
		t.Errorf("created_at/updated_at should be equal on insert: %v / %v", row.CreatedAt, row.UpdatedAt)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	batch := []domain.Service{{Subdomain: "test-app", Port: 3000}}

	if _, err := s.Upsert(ctx, "192.168.1.100", batch); err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}
	before, _ := s.List(ctx)

	res, err := s.Upsert(ctx, "192.168.1.100", batch)
	if err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	if res.Changed() || res.Unchanged != 1 {
		t.Errorf("second Upsert() result = %+v, want 1 unchanged", res)
	}

	after, _ := s.List(ctx)
	if !before[0].UpdatedAt.Equal(after[0].UpdatedAt) {
		t.Errorf("updated_at changed on no-op upsert: %v -> %v", before[0].UpdatedAt, after[0].UpdatedAt)
	}
}

func TestUpsertUpdatesChangedPortAndHost(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	if _, err := s.Upsert(ctx, "10.0.0.1", []domain.Service{{Subdomain: "app", Port: 80}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	s.now = func() time.Time { return base.Add(time.Hour) }
	res, err := s.Upsert(ctx, "10.0.0.1", []domain.Service{{Subdomain: "app", Port: 8080}})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if res.Updated != 1 {
		t.Errorf("port change result = %+v, want 1 updated", res)
	}

	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	res, err = s.Upsert(ctx, "10.0.0.2", []domain.Service{{Subdomain: "app", Port: 8080}})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if res.Updated != 1 {
		t.Errorf("host change result = %+v, want 1 updated", res)
	}

	rows, _ := s.List(ctx)
	row, _ := findRow(rows, "app")
	if row.HostIP != "10.0.0.2" || row.Port != 8080 {
		t.Errorf("row = %+v, want host 10.0.0.2 port 8080", row)
	}
	if !row.CreatedAt.Equal(base) {
		t.Errorf("created_at = %v, want %v", row.CreatedAt, base)
	}
	if !row.UpdatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("updated_at = %v, want %v", row.UpdatedAt, base.Add(2*time.Hour))
	}
}

func TestUpsertBatchIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// port 0 violates the CHECK constraint on the second insert
	_, err := s.Upsert(ctx, "10.0.0.1", []domain.Service{
		{Subdomain: "good", Port: 80},
		{Subdomain: "bad", Port: 0},
	})
	if err == nil {
		t.Fatal("Upsert() expected error for invalid port")
	}

	rows, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected rollback, found %d rows", len(rows))
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Upsert(ctx, "10.0.0.1", []domain.Service{{Subdomain: "app", Port: 80}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	existed, err := s.Delete(ctx, "app")
	if err != nil || !existed {
		t.Fatalf("Delete(app) = %v, %v; want true, nil", existed, err)
	}

	existed, err = s.Delete(ctx, "app")
	if err != nil || existed {
		t.Fatalf("second Delete(app) = %v, %v; want false, nil", existed, err)
	}

	rows, _ := s.List(ctx)
	if len(rows) != 0 {
		t.Errorf("expected empty table, got %d rows", len(rows))
	}
}

func TestListEmptyIsNotNil(t *testing.T) {
	s := openTestStore(t)

	rows, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if rows == nil {
		t.Error("List() should return an empty slice, not nil")
	}
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chs.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := s.Upsert(ctx, "10.0.0.1", []domain.Service{{Subdomain: "app", Port: 80}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	rows, _ := s.List(ctx)
	if len(rows) != 1 || rows[0].Subdomain != "app" {
		t.Errorf("rows after reopen = %+v", rows)
	}
}
