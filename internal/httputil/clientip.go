// Package httputil holds small HTTP helpers shared by the API, stream and
// control handlers.
package httputil

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the address used to key per-client limits.
//
// With trustProxy set, the proxy headers are consulted in order: the RFC 7239
// Forwarded "for=" parameter, the leftmost X-Forwarded-For entry, then
// X-Real-IP. A header value that does not parse as an IP address is skipped.
// Only enable trustProxy behind a reverse proxy that overwrites these headers.
//
// IPv4-mapped IPv6 addresses are returned in their IPv4 form so that both
// spellings share one limiter.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if addr, ok := forwardedFor(r.Header.Get("Forwarded")); ok {
			return addr.String()
		}
		if addr, ok := parseAddr(firstField(r.Header.Get("X-Forwarded-For"))); ok {
			return addr.String()
		}
		if addr, ok := parseAddr(r.Header.Get("X-Real-IP")); ok {
			return addr.String()
		}
	}
	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr().Unmap().String()
	}
	if addr, ok := parseAddr(r.RemoteAddr); ok {
		return addr.String()
	}
	// Unix sockets and test transports leave RemoteAddr in other forms.
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func firstField(list string) string {
	first, _, _ := strings.Cut(list, ",")
	return first
}

// forwardedFor extracts the first for= node of a Forwarded header, e.g.
// `for=192.0.2.60;proto=http, for="[2001:db8::1]:4711"`.
func forwardedFor(header string) (netip.Addr, bool) {
	if header == "" {
		return netip.Addr{}, false
	}
	for _, pair := range strings.Split(firstField(header), ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || !strings.EqualFold(key, "for") {
			continue
		}
		value = strings.Trim(value, `"`)
		if ap, err := netip.ParseAddrPort(value); err == nil {
			return ap.Addr().Unmap(), true
		}
		return parseAddr(strings.TrimSuffix(strings.TrimPrefix(value, "["), "]"))
	}
	return netip.Addr{}, false
}

func parseAddr(s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
