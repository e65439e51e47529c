package api

import (
	"net"
	"net/http"
	"strings"
)

// clientAddress returns the address recorded on a session entry: the first
// X-Forwarded-For hop when a proxy set one, otherwise the peer host.
func clientAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if addr := strings.TrimSpace(first); addr != "" {
			return addr
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
