package static

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/chs/internal/domain"
)

// Loader reads services that do not run in a labelled container, for example:
//
//	- subdomain: nas
//	  port: 5000
//	- subdomain: router
//	  port: 8443
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load reads and validates the file. The file is read on every call so edits
// are picked up by the next poll without a restart.
func (l *Loader) Load() ([]domain.Service, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read static services file: %w", err)
	}

	// ${VAR} references are expanded from the client environment.
	data = []byte(os.ExpandEnv(string(data)))

	var entries []domain.Service
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse static services yaml: %w", err)
	}

	services := make([]domain.Service, 0, len(entries))
	for i, e := range entries {
		e.Subdomain = strings.TrimSpace(e.Subdomain)
		if e.Subdomain == "" {
			return nil, fmt.Errorf("entry %d: subdomain is required", i)
		}
		if err := domain.ValidateSubdomain(e.Subdomain); err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.Subdomain, err)
		}
		if e.Port < domain.MinPort || e.Port > domain.MaxPort {
			return nil, fmt.Errorf("entry %d (%s): port %d out of range", i, e.Subdomain, e.Port)
		}
		services = append(services, e)
	}
	return services, nil
}

// Merge appends extra services whose subdomain is not already present in base.
func Merge(base, extra []domain.Service) []domain.Service {
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[s.Subdomain] = true
	}
	out := append(make([]domain.Service, 0, len(base)+len(extra)), base...)
	for _, s := range extra {
		if seen[s.Subdomain] {
			continue
		}
		seen[s.Subdomain] = true
		out = append(out, s)
	}
	return out
}
