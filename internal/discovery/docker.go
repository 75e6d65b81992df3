package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	"github.com/MrSnakeDoc/chs/internal/domain"
	"github.com/MrSnakeDoc/chs/internal/logger"
	"github.com/MrSnakeDoc/chs/internal/utils"
)

// ContainerLister is the part of the Docker API the scanner needs.
type ContainerLister interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
}

// NewDockerClient connects using DOCKER_HOST and friends, negotiating the API version.
func NewDockerClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return cli, nil
}

// Options selects which labels carry routing information.
type Options struct {
	Label     string // ex: "app.subdomain"
	PortLabel string // ex: "app.subdomain.port"
}

// Scanner turns labelled running containers into services.
type Scanner struct {
	docker ContainerLister
	opts   Options
	logger logger.Logger
}

func NewScanner(docker ContainerLister, opts Options, log logger.Logger) *Scanner {
	return &Scanner{
		docker: docker,
		opts:   opts,
		logger: log.Named("discovery"),
	}
}

// Scan lists running containers carrying the label and maps each to a service.
// Containers without a usable port are skipped. When two containers claim the
// same subdomain the first one listed wins.
func (s *Scanner) Scan(ctx context.Context) ([]domain.Service, error) {
	containers, err := s.docker.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(
			filters.Arg("label", s.opts.Label),
			filters.Arg("status", "running"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	seen := make(map[string]string, len(containers))
	services := make([]domain.Service, 0, len(containers))

	for _, c := range containers {
		if c.State != "" && c.State != "running" {
			continue
		}
		name := containerName(c)

		subdomain := strings.TrimSpace(c.Labels[s.opts.Label])
		if subdomain == "" {
			s.logger.Warn("container has an empty subdomain label, skipping",
				logger.String("container", name),
				logger.String("label", s.opts.Label))
			continue
		}
		// The server rejects the whole batch on one bad subdomain.
		if err := domain.ValidateSubdomain(subdomain); err != nil {
			s.logger.Warn("container has an invalid subdomain label, skipping",
				logger.String("container", name),
				logger.String("subdomain", subdomain),
				logger.Error(err))
			continue
		}

		port, ok := s.resolvePort(c, name)
		if !ok {
			s.logger.Warn("no port found for container, skipping",
				logger.String("container", name),
				logger.String("subdomain", subdomain))
			continue
		}

		if owner, dup := seen[subdomain]; dup {
			s.logger.Warn("subdomain claimed by several containers, keeping the first",
				logger.String("subdomain", subdomain),
				logger.String("kept", owner),
				logger.String("ignored", name))
			continue
		}
		seen[subdomain] = name

		services = append(services, domain.Service{Subdomain: subdomain, Port: port})
	}

	s.logger.Debug("docker scan complete",
		logger.Int("containers", len(containers)),
		logger.Int("services", len(services)))
	return services, nil
}

// resolvePort prefers the port label and falls back to the first port
// published on an IPv4 address.
func (s *Scanner) resolvePort(c types.Container, name string) (int, bool) {
	if raw, ok := c.Labels[s.opts.PortLabel]; ok {
		port, err := strconv.Atoi(strings.TrimSpace(raw))
		if err == nil && port >= domain.MinPort && port <= domain.MaxPort {
			return port, true
		}
		s.logger.Warn("invalid port label, falling back to published ports",
			logger.String("container", name),
			logger.String("label", s.opts.PortLabel),
			logger.String("value", raw))
	}

	for _, p := range c.Ports {
		if p.PublicPort != 0 && utils.IsIPv4(p.IP) {
			return int(p.PublicPort), true
		}
	}
	return 0, false
}

func containerName(c types.Container) string {
	if len(c.Names) > 0 {
		return strings.TrimPrefix(c.Names[0], "/")
	}
	if len(c.ID) > 12 {
		return c.ID[:12]
	}
	return c.ID
}
