package downloader

import (
	"net"
	"testing"
)

func TestHostAllowed(t *testing.T) {
	allowlist := []string{"cdn.example.com", ".mirrors.example.org"}
	cases := []struct {
		host string
		want bool
	}{
		{"cdn.example.com", true},
		{"CDN.Example.Com", true},
		{"evil.com", false},
		{"a.mirrors.example.org", true},
		{"mirrors.example.org", false},
	}
	for _, c := range cases {
		if got := hostAllowed(c.host, allowlist); got != c.want {
			t.Fatalf("hostAllowed(%q) = %v, want %v", c.host, got, c.want)
		}
	}
	if !hostAllowed("anything.com", nil) {
		t.Fatalf("empty allowlist must allow every host")
	}
}

func TestIsBlockedIP(t *testing.T) {
	blocked := []string{"127.0.0.1", "10.0.0.8", "192.168.1.1", "169.254.1.1", "0.0.0.0", "::1"}
	for _, raw := range blocked {
		if !isBlockedIP(net.ParseIP(raw)) {
			t.Fatalf("%s should be blocked", raw)
		}
	}
	allowed := []string{"93.184.216.34", "8.8.8.8"}
	for _, raw := range allowed {
		if isBlockedIP(net.ParseIP(raw)) {
			t.Fatalf("%s should be allowed", raw)
		}
	}
	if !isBlockedIP(nil) {
		t.Fatalf("nil ip should be blocked")
	}
}

func TestIsLocalHostname(t *testing.T) {
	for _, host := range []string{"localhost", "LOCALHOST", "printer.local"} {
		if !isLocalHostname(host) {
			t.Fatalf("%s should count as local", host)
		}
	}
	if isLocalHostname("example.com") {
		t.Fatalf("example.com is not local")
	}
}

func TestValidateSourceURLSchemes(t *testing.T) {
	for _, raw := range []string{"ftp://example.com/a", "file:///etc/passwd", "://bad", "http://"} {
		if err := ValidateSourceURL(raw); err == nil {
			t.Fatalf("%q should be rejected", raw)
		}
	}
	// Literal blocked addresses never reach DNS.
	for _, raw := range []string{"http://127.0.0.1/x", "http://192.168.0.10/x", "http://localhost/x"} {
		if err := ValidateSourceURL(raw); err == nil {
			t.Fatalf("%q should be rejected", raw)
		}
	}
	if err := ValidateSourceURL("http://93.184.216.34/movie.mp4"); err != nil {
		t.Fatalf("public literal address rejected: %v", err)
	}
}
