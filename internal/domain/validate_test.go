package domain

import (
	"errors"
	"testing"
)

func TestParseBatchValid(t *testing.T) {
	body := []byte(`{"host_ip":"192.168.1.100","services":[{"subdomain":"test-app","port":3000},{"subdomain":"grafana","port":"8080"}]}`)

	batch, err := ParseBatch(body)
	if err != nil {
		t.Fatalf("ParseBatch() error = %v", err)
	}

	if batch.HostIP != "192.168.1.100" {
		t.Errorf("HostIP = %q, want %q", batch.HostIP, "192.168.1.100")
	}
	if len(batch.Services) != 2 {
		t.Fatalf("len(Services) = %d, want 2", len(batch.Services))
	}
	if batch.Services[0] != (Service{Subdomain: "test-app", Port: 3000}) {
		t.Errorf("Services[0] = %+v", batch.Services[0])
	}
	if batch.Services[1] != (Service{Subdomain: "grafana", Port: 8080}) {
		t.Errorf("Services[1] = %+v", batch.Services[1])
	}
}

func TestParseBatchEmptyServices(t *testing.T) {
	batch, err := ParseBatch([]byte(`{"host_ip":"10.0.0.1","services":[]}`))
	if err != nil {
		t.Fatalf("ParseBatch() error = %v", err)
	}
	if len(batch.Services) != 0 {
		t.Errorf("expected no services, got %d", len(batch.Services))
	}
}

func TestParseBatchErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"empty body", ``, "request body required"},
		{"null body", `null`, "request body required"},
		{"array body", `[1,2]`, "request body required"},
		{"broken json", `{"host_ip":`, "invalid JSON body"},
		{"missing host_ip", `{"services":[]}`, "host_ip required"},
		{"null host_ip", `{"host_ip":null,"services":[]}`, "host_ip required"},
		{"host_ip checked before services", `{}`, "host_ip required"},
		{"missing services", `{"host_ip":"1.2.3.4"}`, "services array required"},
		{"services not array", `{"host_ip":"1.2.3.4","services":{"a":1}}`, "services array required"},
		{"element not object", `{"host_ip":"1.2.3.4","services":["x"]}`, "each service must be an object"},
		{"null element", `{"host_ip":"1.2.3.4","services":[null]}`, "each service must be an object"},
		{"missing subdomain", `{"host_ip":"1.2.3.4","services":[{"port":80}]}`, "subdomain required"},
		{"subdomain checked before port", `{"host_ip":"1.2.3.4","services":[{}]}`, "subdomain required"},
		{"empty subdomain", `{"host_ip":"1.2.3.4","services":[{"subdomain":"  ","port":80}]}`, "subdomain must be a non-empty string"},
		{"missing port", `{"host_ip":"1.2.3.4","services":[{"subdomain":"a"}]}`, "port required"},
		{"port not numeric", `{"host_ip":"1.2.3.4","services":[{"subdomain":"a","port":"http"}]}`, "port must be an integer"},
		{"port fractional", `{"host_ip":"1.2.3.4","services":[{"subdomain":"a","port":80.5}]}`, "port must be an integer"},
		{"port out of range", `{"host_ip":"1.2.3.4","services":[{"subdomain":"a","port":70000}]}`, "port must be between 1 and 65535"},
		{"host_ip with path separator", `{"host_ip":"10.0.0.1/24","services":[]}`, "host_ip must be an IP address or hostname"},
		{"host_ip with spaces", `{"host_ip":"my host","services":[]}`, "host_ip must be an IP address or hostname"},
		{"host_ip parent dir", `{"host_ip":"..","services":[]}`, "host_ip must be an IP address or hostname"},
		{"subdomain with slash", `{"host_ip":"1.2.3.4","services":[{"subdomain":"a/b","port":80}]}`, "subdomain must contain only letters, digits, '.', '-' or '_'"},
		{"subdomain with brace", `{"host_ip":"1.2.3.4","services":[{"subdomain":"a}","port":80}]}`, "subdomain must contain only letters, digits, '.', '-' or '_'"},
		{"subdomain with space", `{"host_ip":"1.2.3.4","services":[{"subdomain":"my app","port":80}]}`, "subdomain must contain only letters, digits, '.', '-' or '_'"},
		{"subdomain only delimiters", `{"host_ip":"1.2.3.4","services":[{"subdomain":"--","port":80}]}`, "subdomain must contain a letter or digit"},
		{"first bad element wins", `{"host_ip":"1.2.3.4","services":[{"subdomain":"a","port":1},{"port":2},"x"]}`, "subdomain required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBatch([]byte(tt.body))
			if err == nil {
				t.Fatalf("ParseBatch() expected error %q, got nil", tt.wantMsg)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("error %v does not match ErrValidation", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("ParseBatch() error = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateHostIP(t *testing.T) {
	valid := []string{"192.168.1.100", "127.0.0.1", "::1", "fe80::1", "docker-host", "nas.lan", "nas.lan."}
	for _, s := range valid {
		if err := ValidateHostIP(s); err != nil {
			t.Errorf("ValidateHostIP(%q) = %v, want nil", s, err)
		}
	}

	invalidHosts := []string{"10.0.0.1/24", "../etc", "a\\b", "a\x00b", "-host", "host-", "a..b", ""}
	for _, s := range invalidHosts {
		if err := ValidateHostIP(s); !errors.Is(err, ErrValidation) {
			t.Errorf("ValidateHostIP(%q) = %v, want validation error", s, err)
		}
	}
}

func TestValidateSubdomain(t *testing.T) {
	for _, s := range []string{"test-app", "test_app", "a.b", "Grafana", "x1"} {
		if err := ValidateSubdomain(s); err != nil {
			t.Errorf("ValidateSubdomain(%q) = %v, want nil", s, err)
		}
	}
	for _, s := range []string{"--", "_.", "a b", "a\nb", "é", "a{b}"} {
		if err := ValidateSubdomain(s); !errors.Is(err, ErrValidation) {
			t.Errorf("ValidateSubdomain(%q) = %v, want validation error", s, err)
		}
	}
}

func TestGroupByHost(t *testing.T) {
	rows := []ServiceRow{
		{Subdomain: "a", HostIP: "10.0.0.1", Port: 1},
		{Subdomain: "b", HostIP: "10.0.0.2", Port: 2},
		{Subdomain: "c", HostIP: "10.0.0.1", Port: 3},
	}

	groups := GroupByHost(rows)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if len(groups["10.0.0.1"]) != 2 {
		t.Errorf("expected 2 rows for 10.0.0.1, got %d", len(groups["10.0.0.1"]))
	}
	if len(groups["10.0.0.2"]) != 1 {
		t.Errorf("expected 1 row for 10.0.0.2, got %d", len(groups["10.0.0.2"]))
	}
}
