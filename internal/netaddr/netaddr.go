// Package netaddr validates the server address pieces typed into the
// configuration wizard and joins them into a Plex base URL.
package netaddr

import (
	"net"
	"regexp"
	"strconv"
	"strings"
)

// Octets may carry up to two leading zeros ("192.168.001.020").
var ipv4Pattern = regexp.MustCompile(`^(25[0-5]|2[0-4]\d|[01]?\d?\d)\.(25[0-5]|2[0-4]\d|[01]?\d?\d)\.(25[0-5]|2[0-4]\d|[01]?\d?\d)\.(25[0-5]|2[0-4]\d|[01]?\d?\d)$`)

// ValidIPv4 reports whether s is a dotted-quad IPv4 address.
func ValidIPv4(s string) bool {
	return ipv4Pattern.MatchString(s)
}

// ValidPort reports whether s is an integer in 1-65535.
func ValidPort(s string) bool {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return port >= 1 && port <= 65535
}

// BaseURL joins host and port into an http base URL.
func BaseURL(host, port string) string {
	return "http://" + net.JoinHostPort(strings.TrimSpace(host), strings.TrimSpace(port))
}
