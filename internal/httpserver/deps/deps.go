package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/chs/internal/logger"
	"github.com/MrSnakeDoc/chs/internal/registry"
)

// Pinger is anything whose reachability can be reported on /infra.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	HandshakeKey string             // shared secret compared against X-Handshake-Key
	DryRun       bool               // true => no store or file mutation
	AllowedCIDRS []string           // optional client IP allow-list
	TrustProxy   bool               // true if running behind a trusted reverse proxy
	MaxBodyBytes int64              // limit for POST /services bodies
	HandlersDir  string             // where chs_* files are written
	Registry     *registry.Registry // upsert/delete/list + regeneration
	Store        Pinger             // database health
	Notifier     Pinger             // nil when notifications are disabled
}
