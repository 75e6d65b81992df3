package utils

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		xff        string
		trustProxy bool
		expected   string
	}{
		{"remote addr only", "10.0.0.5:1234", "", false, "10.0.0.5"},
		{"xff ignored without trust", "10.0.0.5:1234", "203.0.113.1", false, "10.0.0.5"},
		{"xff honored with trust", "10.0.0.5:1234", "203.0.113.1, 10.0.0.5", true, "203.0.113.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := ClientIP(req, tt.trustProxy); got != tt.expected {
				t.Errorf("ClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.5 ", "garbage", ""})
	if m.IsEmpty() {
		t.Fatal("matcher should not be empty")
	}

	cases := map[string]bool{
		"10.20.30.40": true,
		"192.168.1.5": true,
		"192.168.1.6": false,
		"not-an-ip":   false,
		"172.16.0.1":  false,
	}
	for ip, want := range cases {
		if got := m.Allow(ip); got != want {
			t.Errorf("Allow(%q) = %v, want %v", ip, got, want)
		}
	}

	if !NewIPMatcher(nil).IsEmpty() {
		t.Error("nil list should yield an empty matcher")
	}
}

func TestIsIPv4(t *testing.T) {
	cases := map[string]bool{
		"0.0.0.0":  true,
		"10.0.0.1": true,
		"::":       false,
		"::1":      false,
		"":         false,
		"host":     false,
	}
	for in, want := range cases {
		if got := IsIPv4(in); got != want {
			t.Errorf("IsIPv4(%q) = %v, want %v", in, got, want)
		}
	}
}
