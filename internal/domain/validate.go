package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/netip"
	"strings"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError carries the message returned to API callers.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

const (
	MinPort = 1
	MaxPort = 65535
)

// ParseBatch decodes and validates a POST /services body.
// Checks run in a fixed order and the first violation is returned:
// body, host_ip, services, then for each element object-ness, subdomain and port.
func ParseBatch(body []byte) (Batch, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || isNull(body) {
		return Batch{}, invalid("request body required")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		if body[0] != '{' {
			return Batch{}, invalid("request body required")
		}
		return Batch{}, invalid("invalid JSON body")
	}

	hostRaw, ok := raw["host_ip"]
	if !ok || isNull(hostRaw) {
		return Batch{}, invalid("host_ip required")
	}
	var hostIP string
	if err := json.Unmarshal(hostRaw, &hostIP); err != nil || strings.TrimSpace(hostIP) == "" {
		return Batch{}, invalid("host_ip required")
	}
	if err := ValidateHostIP(strings.TrimSpace(hostIP)); err != nil {
		return Batch{}, err
	}

	servicesRaw, ok := raw["services"]
	if !ok || isNull(servicesRaw) {
		return Batch{}, invalid("services array required")
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(servicesRaw, &elements); err != nil {
		return Batch{}, invalid("services array required")
	}

	batch := Batch{
		HostIP:   strings.TrimSpace(hostIP),
		Services: make([]Service, 0, len(elements)),
	}
	for _, el := range elements {
		svc, err := parseService(el)
		if err != nil {
			return Batch{}, err
		}
		batch.Services = append(batch.Services, svc)
	}

	return batch, nil
}

func parseService(el json.RawMessage) (Service, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(el, &fields); err != nil || fields == nil {
		return Service{}, invalid("each service must be an object")
	}

	subRaw, ok := fields["subdomain"]
	if !ok || isNull(subRaw) {
		return Service{}, invalid("subdomain required")
	}
	var subdomain string
	if err := json.Unmarshal(subRaw, &subdomain); err != nil || strings.TrimSpace(subdomain) == "" {
		return Service{}, invalid("subdomain must be a non-empty string")
	}
	if err := ValidateSubdomain(strings.TrimSpace(subdomain)); err != nil {
		return Service{}, err
	}

	portRaw, ok := fields["port"]
	if !ok || isNull(portRaw) {
		return Service{}, invalid("port required")
	}
	port, err := parsePort(portRaw)
	if err != nil {
		return Service{}, err
	}

	return Service{Subdomain: strings.TrimSpace(subdomain), Port: port}, nil
}

// parsePort accepts a JSON number or a numeric string.
func parsePort(raw json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, invalid("port must be an integer")
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, invalid("port must be an integer")
	}
	if f < MinPort || f > MaxPort {
		return 0, invalid("port must be between 1 and 65535")
	}
	return int(f), nil
}

// ValidateHostIP accepts an IP address or a DNS hostname. Anything else could
// not be used as a reverse_proxy upstream nor as a flat handler file name.
func ValidateHostIP(s string) error {
	if _, err := netip.ParseAddr(s); err == nil {
		return nil
	}
	if isHostname(s) {
		return nil
	}
	return invalid("host_ip must be an IP address or hostname")
}

// ValidateSubdomain restricts subdomains to hostname characters plus '_'
// and requires at least one letter or digit so the matcher name is never empty.
func ValidateSubdomain(s string) error {
	for _, r := range s {
		if !isSubdomainRune(r) {
			return invalid("subdomain must contain only letters, digits, '.', '-' or '_'")
		}
	}
	if CamelCase(s) == "" {
		return invalid("subdomain must contain a letter or digit")
	}
	return nil
}

func isSubdomainRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_', r == '.':
		return true
	}
	return false
}

func isHostname(s string) bool {
	if s == "" || len(s) > 253 {
		return false
	}
	for _, label := range strings.Split(strings.TrimSuffix(s, "."), ".") {
		if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			if r != '-' && !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
				return false
			}
		}
	}
	return true
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
