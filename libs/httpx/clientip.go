package httpx

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP resolves the address a request is attributed to. X-Forwarded-For
// is only honoured when the direct peer is one of the trusted proxies; the
// zero value trusts nobody and always uses the peer address.
type ClientIP struct {
	trusted []netip.Prefix
}

// NewClientIP accepts proxy addresses or CIDR ranges, e.g. "10.0.0.0/8".
func NewClientIP(trustedProxies []string) (ClientIP, error) {
	var c ClientIP
	for _, raw := range trustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return ClientIP{}, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			c.trusted = append(c.trusted, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return ClientIP{}, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		c.trusted = append(c.trusted, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return c, nil
}

// Of walks X-Forwarded-For from the right and returns the first hop that is
// not a trusted proxy. Entries left of that hop are client supplied.
func (c ClientIP) Of(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	if !c.isTrusted(peer) {
		return peer
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if _, err := netip.ParseAddr(hop); err != nil {
			break
		}
		if !c.isTrusted(hop) {
			return hop
		}
	}
	return peer
}

func (c ClientIP) isTrusted(raw string) bool {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range c.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
