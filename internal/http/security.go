package http

import (
	"net"
	"net/http"
	"strings"
	"time"

	"budgetwatch/internal/log"
)

// Forwarding headers are honored only from loopback and private networks.
var trustedProxies = mustParseCIDRs("127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16")

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic("bad trusted proxy CIDR " + c + ": " + err.Error())
		}
		out = append(out, n)
	}
	return out
}

func isTrustedProxy(ip net.IP) bool {
	for _, n := range trustedProxies {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP returns the caller address, preferring X-Forwarded-For and then
// X-Real-IP when the direct peer is a trusted proxy.
func clientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	ip := net.ParseIP(peer)
	if ip == nil || !isTrustedProxy(ip) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if candidate := strings.TrimSpace(first); net.ParseIP(candidate) != nil {
			return candidate
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return peer
}

// withSecurity sets defensive response headers and rate limits writes per
// client IP.
func (s *Server) withSecurity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			ip := clientIP(r)
			if !s.limiter.allow(ip, time.Now()) {
				log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
					"client_ip", ip, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
				h.Set("Retry-After", "60")
				NewJSONResponse().Status(http.StatusTooManyRequests).
					Error("rate_limited", "too many requests, retry later").Send(w)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
