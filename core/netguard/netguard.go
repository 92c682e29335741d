package netguard

import (
	"net/netip"
	"net/url"
	"strings"
)

// LocalRedirect reduces raw to a path on this application. Anything that
// would leave host, or cannot be parsed, yields fallback.
func LocalRedirect(raw, host, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u == nil || u.Opaque != "" {
		return fallback
	}
	if u.Scheme != "" || u.Host != "" {
		if u.Scheme != "http" && u.Scheme != "https" {
			return fallback
		}
		if host == "" || !strings.EqualFold(u.Host, host) {
			return fallback
		}
	} else if !strings.HasPrefix(raw, "/") {
		return fallback
	}
	// "//evil" and "/\evil" are read as hosts by browsers.
	if strings.HasPrefix(u.Path, "//") || strings.HasPrefix(u.Path, "/\\") {
		return fallback
	}
	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target
}

// Proxies is a parsed list of trusted proxy addresses and CIDR blocks.
type Proxies struct {
	prefixes []netip.Prefix
}

// ParseProxies skips blank and malformed entries.
func ParseProxies(entries []string) Proxies {
	var p Proxies
	for _, raw := range entries {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if strings.Contains(val, "/") {
			if pfx, err := netip.ParsePrefix(val); err == nil {
				p.prefixes = append(p.prefixes, pfx.Masked())
			}
			continue
		}
		if addr, err := netip.ParseAddr(val); err == nil {
			addr = addr.Unmap()
			p.prefixes = append(p.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return p
}

func (p Proxies) Contains(ip string) bool {
	addr, err := netip.ParseAddr(strings.Trim(strings.TrimSpace(ip), "[]"))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, pfx := range p.prefixes {
		if pfx.Contains(addr) {
			return true
		}
	}
	return false
}

func (p Proxies) Empty() bool {
	return len(p.prefixes) == 0
}
