// Package ipfilter provides IP-based access control for network services
package ipfilter

import (
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
)

// Filter checks if IP addresses are allowed
type Filter struct {
	allowedNets []netip.Prefix
	logger      *slog.Logger
}

// New creates a new IP filter from a list of IPs/CIDRs
// Empty list means allow all
func New(allowedIPs []string, logger *slog.Logger) *Filter {
	f := &Filter{
		logger: logger,
	}

	for _, ipStr := range allowedIPs {
		ipStr = strings.TrimSpace(ipStr)
		if ipStr == "" {
			continue
		}

		prefix, err := parseEntry(ipStr)
		if err != nil {
			logger.Warn("invalid entry in allowed_ips", "entry", ipStr, "error", err)
			continue
		}
		f.allowedNets = append(f.allowedNets, prefix)
	}

	return f
}

// parseEntry parses a CIDR or a single IP (treated as /32 or /128)
func parseEntry(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		prefix, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, err
		}
		return prefix.Masked(), nil
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// Enabled returns true if IP filtering is active
func (f *Filter) Enabled() bool {
	return len(f.allowedNets) > 0
}

// Count returns the number of allowed networks
func (f *Filter) Count() int {
	return len(f.allowedNets)
}

// IsAllowed checks if the IP is allowed
// Returns true if filter is empty (allow all) or IP is in allowed list
func (f *Filter) IsAllowed(addr netip.Addr) bool {
	if len(f.allowedNets) == 0 {
		return true
	}

	addr = addr.Unmap()
	for _, prefix := range f.allowedNets {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// IsAllowedString parses and checks if the IP string is allowed
func (f *Filter) IsAllowedString(ipStr string) bool {
	addr, err := netip.ParseAddr(ipStr)
	if err != nil {
		return false
	}
	return f.IsAllowed(addr)
}

// IsAllowedAddr checks if the address (host:port) is allowed
func (f *Filter) IsAllowedAddr(addr string) bool {
	ap, err := netip.ParseAddrPort(addr)
	if err != nil {
		// Maybe no port?
		return f.IsAllowedString(addr)
	}
	return f.IsAllowed(ap.Addr())
}

// GetClientIP extracts the client IP from an HTTP request
// Checks X-Forwarded-For and X-Real-IP headers before RemoteAddr
// Returns the zero Addr when no valid IP can be extracted
func GetClientIP(r *http.Request) netip.Addr {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first IP (original client)
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.Unmap()
		}
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if addr, err := netip.ParseAddr(strings.TrimSpace(xri)); err == nil {
			return addr.Unmap()
		}
	}

	// Fall back to RemoteAddr
	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr().Unmap()
	}
	if addr, err := netip.ParseAddr(r.RemoteAddr); err == nil {
		return addr.Unmap()
	}
	return netip.Addr{}
}

// HTTPMiddleware returns an HTTP middleware that filters requests by IP
func (f *Filter) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// If no IPs configured, allow all
		if !f.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := GetClientIP(r)
		if !clientIP.IsValid() {
			f.logger.Warn("could not parse client IP", "remote_addr", r.RemoteAddr)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		if !f.IsAllowed(clientIP) {
			f.logger.Warn("access denied by IP filter", "ip", clientIP.String(), "path", r.URL.Path)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
