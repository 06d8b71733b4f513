package httputil

import (
	"net/http"
	"testing"
)

func newRequest(remoteAddr, xff, xri string) *http.Request {
	r := &http.Request{RemoteAddr: remoteAddr, Header: http.Header{}}
	if xff != "" {
		r.Header.Set("X-Forwarded-For", xff)
	}
	if xri != "" {
		r.Header.Set("X-Real-IP", xri)
	}
	return r
}

func TestClientIPFromRemoteAddr(t *testing.T) {
	cases := []struct {
		remoteAddr string
		want       string
	}{
		{"203.0.113.7:44812", "203.0.113.7"},
		{"[2001:db8::1]:44812", "2001:db8::1"},
		{"203.0.113.7", "203.0.113.7"},
	}
	for _, tc := range cases {
		if got := ClientIP(newRequest(tc.remoteAddr, "", ""), false); got != tc.want {
			t.Errorf("ClientIP(%q) = %q, want %q", tc.remoteAddr, got, tc.want)
		}
	}
}

func TestClientIPTrustProxy(t *testing.T) {
	cases := []struct {
		name string
		xff  string
		xri  string
		want string
	}{
		{"xff single", "198.51.100.9", "", "198.51.100.9"},
		{"xff chain takes leftmost", "198.51.100.9, 10.0.0.2, 10.0.0.3", "", "198.51.100.9"},
		{"xff wins over x-real-ip", "198.51.100.9", "198.51.100.10", "198.51.100.9"},
		{"x-real-ip fallback", "", "198.51.100.10", "198.51.100.10"},
		{"garbage xff ignored", "not-an-ip", "198.51.100.10", "198.51.100.10"},
		{"no headers uses remote addr", "", "", "10.0.0.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRequest("10.0.0.1:5555", tc.xff, tc.xri)
			if got := ClientIP(r, true); got != tc.want {
				t.Errorf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClientIPIgnoresHeadersWithoutTrust(t *testing.T) {
	r := newRequest("10.0.0.1:5555", "198.51.100.9", "198.51.100.10")
	if got := ClientIP(r, false); got != "10.0.0.1" {
		t.Errorf("ClientIP = %q, want 10.0.0.1", got)
	}
}
