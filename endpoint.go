// SPDX-License-Identifier: GPL-3.0-or-later

package fqdns

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultDNSPort is the port used when the endpoint string omits one.
const DefaultDNSPort = "53"

// ErrInvalidEndpoint means the endpoint string cannot be parsed.
var ErrInvalidEndpoint = errors.New("invalid endpoint")

// ParseEndpoint parses an upstream server endpoint in "host[:port]"
// form and returns a dialable "host:port" string. A missing port
// defaults to [DefaultDNSPort].
func ParseEndpoint(at string) (string, error) {
	if at == "" {
		return "", fmt.Errorf("%w: empty string", ErrInvalidEndpoint)
	}
	host, port, err := net.SplitHostPort(at)
	if err != nil {
		// A colon in the input means a port was attempted but could
		// not be split off, so the whole string is malformed rather
		// than a bare host.
		if strings.Contains(at, ":") {
			return "", fmt.Errorf("%w: %q", ErrInvalidEndpoint, at)
		}
		// No port in the input: fall back to the DNS default.
		host, port = at, DefaultDNSPort
	}
	if num, err := strconv.Atoi(port); err != nil || num < 1 || num > 65535 {
		return "", fmt.Errorf("%w: bad port in %q", ErrInvalidEndpoint, at)
	}
	return net.JoinHostPort(host, port), nil
}
