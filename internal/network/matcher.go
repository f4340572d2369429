// Package network decides whether a client address falls inside a license's
// allowed networks.
package network

import (
	"net/netip"
	"strings"
)

// Match reports whether clientIP is covered by any entry in allowed. Entries
// may be CIDR ranges or single addresses. An unparseable clientIP never
// matches; an unparseable entry is skipped unless it equals clientIP exactly.
func Match(clientIP string, allowed []string) bool {
	clientIP = strings.TrimSpace(clientIP)

	addr, addrErr := netip.ParseAddr(clientIP)
	if addrErr == nil {
		// Compare 4-in-6 mapped addresses as plain IPv4
		addr = addr.Unmap()
	}

	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		// Exact string match covers entries the parser rejects
		if entry == clientIP {
			return true
		}
		if addrErr != nil {
			continue
		}

		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				continue
			}
			if prefix.Masked().Contains(addr) {
				return true
			}
			continue
		}

		if other, err := netip.ParseAddr(entry); err == nil && other.Unmap() == addr {
			return true
		}
	}
	return false
}

// ValidEntry reports whether entry is a parseable address or CIDR range.
func ValidEntry(entry string) bool {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return false
	}
	if strings.Contains(entry, "/") {
		_, err := netip.ParsePrefix(entry)
		return err == nil
	}
	_, err := netip.ParseAddr(entry)
	return err == nil
}
