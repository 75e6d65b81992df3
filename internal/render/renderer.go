package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/MrSnakeDoc/chs/internal/domain"
	"github.com/MrSnakeDoc/chs/internal/logger"
)

// blockTemplate is one reverse-proxy handler for a single row.
// {$INTERNAL_DOMAIN} is left for the gateway to expand.
var blockTemplate = template.Must(template.New("handler").Parse(
	`@{{ .Matcher }} host {{ .Subdomain }}.{$INTERNAL_DOMAIN}
handle @{{ .Matcher }} {
  reverse_proxy {{ .HostIP }}:{{ .Port }}
}`))

type blockData struct {
	Matcher   string
	Subdomain string
	HostIP    string
	Port      int
}

// Lister is the read side of the store needed by the renderer.
type Lister interface {
	List(ctx context.Context) ([]domain.ServiceRow, error)
}

// Options configures where and how handler files are written.
type Options struct {
	Dir    string // output directory for chs_* files
	DryRun bool   // log files instead of writing them
	Prune  bool   // remove chs_* files of hosts that no longer have rows
}

// Renderer regenerates one handler file per host IP from the full row set.
type Renderer struct {
	lister Lister
	opts   Options
	logger logger.Logger
}

func New(lister Lister, opts Options, log logger.Logger) *Renderer {
	return &Renderer{
		lister: lister,
		opts:   opts,
		logger: log.Named("renderer"),
	}
}

// RenderHost renders every row of a host, sorted by subdomain, separated by a blank line.
func RenderHost(rows []domain.ServiceRow) (string, error) {
	sorted := make([]domain.ServiceRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Subdomain < sorted[j].Subdomain })

	blocks := make([]string, 0, len(sorted))
	var buf bytes.Buffer
	for _, row := range sorted {
		buf.Reset()
		if err := blockTemplate.Execute(&buf, blockData{
			Matcher:   domain.CamelCase(row.Subdomain),
			Subdomain: row.Subdomain,
			HostIP:    row.HostIP,
			Port:      row.Port,
		}); err != nil {
			return "", fmt.Errorf("failed to render %s: %w", row.Subdomain, err)
		}
		blocks = append(blocks, buf.String())
	}
	return strings.Join(blocks, "\n\n"), nil
}

// MatcherCollisions returns the matcher names produced by more than one
// subdomain of rows, with those subdomains sorted.
func MatcherCollisions(rows []domain.ServiceRow) map[string][]string {
	bySubdomain := make(map[string][]string)
	for _, row := range rows {
		m := domain.CamelCase(row.Subdomain)
		bySubdomain[m] = append(bySubdomain[m], row.Subdomain)
	}
	out := make(map[string][]string)
	for m, subs := range bySubdomain {
		if len(subs) > 1 {
			sort.Strings(subs)
			out[m] = subs
		}
	}
	return out
}

// Regenerate rewrites the handler file of every host currently present and
// returns those host IPs sorted. Files of hosts without rows are left in place
// unless pruning is enabled. A failing host does not stop the others; every
// failure is returned joined.
func (r *Renderer) Regenerate(ctx context.Context) ([]string, error) {
	rows, err := r.lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	groups := domain.GroupByHost(rows)
	hosts := make([]string, 0, len(groups))
	for host := range groups {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	if r.opts.DryRun {
		r.logger.Info("dry-run: would regenerate handler files",
			logger.String("dir", r.opts.Dir),
			logger.Int("hosts", len(hosts)))
	} else if err := os.MkdirAll(r.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create handlers dir: %w", err)
	}

	keep := make(map[string]bool, len(hosts))
	var errs []error
	for _, host := range hosts {
		for matcher, subdomains := range MatcherCollisions(groups[host]) {
			r.logger.Warn("subdomains share a matcher name, the gateway will reject the handler file",
				logger.String("host_ip", host),
				logger.String("matcher", matcher),
				logger.Strings("subdomains", subdomains))
		}

		content, err := RenderHost(groups[host])
		if err != nil {
			errs = append(errs, err)
			continue
		}

		name := domain.HandlerFileName(host)
		keep[name] = true
		path := filepath.Join(r.opts.Dir, name)

		if r.opts.DryRun {
			r.logger.Info("dry-run: would write handler file",
				logger.String("path", path),
				logger.String("content", content))
			continue
		}

		// One bad host must not keep the others from being written.
		if err := writeFileAtomic(path, []byte(content)); err != nil {
			r.logger.Error("failed to write handler file",
				logger.String("path", path),
				logger.String("host_ip", host),
				logger.Error(err))
			errs = append(errs, fmt.Errorf("failed to write %s: %w", path, err))
			continue
		}
		r.logger.Debug("handler file written",
			logger.String("path", path),
			logger.String("host_ip", host),
			logger.Int("services", len(groups[host])))
	}

	if r.opts.Prune {
		if err := r.prune(keep); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return hosts, errors.Join(errs...)
	}

	r.logger.Info("handler files regenerated",
		logger.Int("hosts", len(hosts)),
		logger.Int("services", len(rows)))
	return hosts, nil
}

// prune removes chs_* files that were not produced by the current pass.
func (r *Renderer) prune(keep map[string]bool) error {
	matches, err := filepath.Glob(filepath.Join(r.opts.Dir, domain.HandlerFilePrefix+"*"))
	if err != nil {
		return fmt.Errorf("failed to list handler files: %w", err)
	}

	for _, path := range matches {
		name := filepath.Base(path)
		if keep[name] {
			continue
		}
		if r.opts.DryRun {
			r.logger.Info("dry-run: would remove stale handler file", logger.String("path", path))
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale handler file %s: %w", path, err)
		}
		r.logger.Info("stale handler file removed", logger.String("path", path))
	}
	return nil
}

// writeFileAtomic writes to a temp file in the same directory then renames it
// so the gateway never reads a half-written file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".chs-tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
