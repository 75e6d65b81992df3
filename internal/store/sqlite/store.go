package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/chs/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS services (
	subdomain  TEXT PRIMARY KEY CHECK (subdomain <> ''),
	host_ip    TEXT NOT NULL,
	port       INTEGER NOT NULL CHECK (port BETWEEN 1 AND 65535),
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_services_host_ip ON services(host_ip);
`

// timeLayout keeps sub-second precision and sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the sqlite-backed service table.
type Store struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers and keeps per-connection pragmas.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: path, now: time.Now}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Upsert applies the batch in a single transaction.
//
// A row is rewritten when its port or its host_ip differs from the request;
// both are stamped from the request together with updated_at. Identical rows
// are not written. Any failure rolls the whole batch back.
func (s *Store) Upsert(ctx context.Context, hostIP string, services []domain.Service) (result domain.UpsertResult, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := s.now().UTC().Format(timeLayout)

	for _, svc := range services {
		var (
			storedHost string
			storedPort int
		)
		row := tx.QueryRowContext(ctx,
			`SELECT host_ip, port FROM services WHERE subdomain = ?`, svc.Subdomain)

		switch scanErr := row.Scan(&storedHost, &storedPort); {
		case errors.Is(scanErr, sql.ErrNoRows):
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO services (subdomain, host_ip, port, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
				svc.Subdomain, hostIP, svc.Port, now, now); err != nil {
				return result, fmt.Errorf("failed to insert service %s: %w", svc.Subdomain, err)
			}
			result.Inserted++

		case scanErr != nil:
			return result, fmt.Errorf("failed to read service %s: %w", svc.Subdomain, scanErr)

		case storedPort != svc.Port || storedHost != hostIP:
			if _, err = tx.ExecContext(ctx,
				`UPDATE services SET host_ip = ?, port = ?, updated_at = ? WHERE subdomain = ?`,
				hostIP, svc.Port, now, svc.Subdomain); err != nil {
				return result, fmt.Errorf("failed to update service %s: %w", svc.Subdomain, err)
			}
			result.Updated++

		default:
			result.Unchanged++
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.UpsertResult{}, fmt.Errorf("failed to commit batch: %w", err)
	}
	return result, nil
}

// List returns all rows ordered by host_ip then subdomain.
func (s *Store) List(ctx context.Context) ([]domain.ServiceRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT subdomain, host_ip, port, created_at, updated_at FROM services ORDER BY host_ip, subdomain`)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ServiceRow, 0)
	for rows.Next() {
		var (
			r                  domain.ServiceRow
			created, updated string
		)
		if err := rows.Scan(&r.Subdomain, &r.HostIP, &r.Port, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("invalid created_at for %s: %w", r.Subdomain, err)
		}
		if r.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
			return nil, fmt.Errorf("invalid updated_at for %s: %w", r.Subdomain, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate services: %w", err)
	}
	return out, nil
}

// Delete removes a subdomain and reports whether a row existed.
func (s *Store) Delete(ctx context.Context, subdomain string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE subdomain = ?`, subdomain)
	if err != nil {
		return false, fmt.Errorf("failed to delete service %s: %w", subdomain, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
