// Package privacy masks personal data before it reaches logs.
package privacy

import "net/netip"

// AnonymizeIP keeps only the network part of an address: /24 for IPv4
// (IPv4-mapped IPv6 included) and /48 for IPv6. Registrants' addresses end up
// in request logs, never their full host address.
//
// Returns "unknown" for empty input and "invalid" when the value does not parse.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
