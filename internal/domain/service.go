package domain

import "time"

// Service is one routable service announced by a discovery client.
type Service struct {
	// Subdomain is the routing name. It is unique across all hosts.
	Subdomain string `json:"subdomain" yaml:"subdomain"`

	// Port is the backend port on the announcing host.
	Port int `json:"port" yaml:"port"`
}

// Batch is the unit of work accepted by POST /services.
type Batch struct {
	HostIP   string    `json:"host_ip"`
	Services []Service `json:"services"`
}

// ServiceRow is the persisted state of a subdomain.
//
// A subdomain is owned by exactly one host at a time. A later upsert from
// another host takes the subdomain over without conflict detection.
type ServiceRow struct {
	Subdomain string    `json:"subdomain"`
	HostIP    string    `json:"host_ip"`
	Port      int       `json:"port"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertResult counts what an upsert did to each service of a batch.
type UpsertResult struct {
	Inserted  int
	Updated   int
	Unchanged int
}

// Changed reports whether at least one row was written.
func (r UpsertResult) Changed() bool {
	return r.Inserted > 0 || r.Updated > 0
}

// GroupByHost partitions rows by host IP.
func GroupByHost(rows []ServiceRow) map[string][]ServiceRow {
	groups := make(map[string][]ServiceRow)
	for _, row := range rows {
		groups[row.HostIP] = append(groups[row.HostIP], row)
	}
	return groups
}
