// SPDX-License-Identifier: GPL-3.0-or-later

package fqdns

import (
	"context"
	"errors"
	"net"
	"slices"

	"github.com/bassosimone/dnscodec"
	"github.com/bassosimone/runtimex"
)

// DialerResolver is the resolver expected by [*Dialer].
type DialerResolver interface {
	LookupIPv4(ctx context.Context, domain string) ([]string, error)
}

// ResolverAt binds a [*Resolver] to a fixed upstream endpoint, strategy
// and wrong-answer set, exposing the one-argument lookup that [*Dialer]
// expects.
type ResolverAt struct {
	// Resolver performs the lookups.
	Resolver *Resolver

	// At is the upstream endpoint in "host[:port]" form.
	At string

	// Strategy selects among UDP responses.
	Strategy Strategy

	// WrongAnswers feeds the pick-right family of strategies. May be nil.
	WrongAnswers WrongAnswers
}

// Ensure that [*ResolverAt] implements [DialerResolver].
var _ DialerResolver = &ResolverAt{}

// LookupIPv4 resolves domain through the bound resolver, flattening a
// multi-response result into a single address list.
func (ra *ResolverAt) LookupIPv4(ctx context.Context, domain string) ([]string, error) {
	result, err := ra.Resolver.Resolve(ctx, domain, ServerTypeUDP, ra.At, ra.Strategy, ra.WrongAnswers)
	if err != nil {
		return nil, err
	}
	addrs := slices.Clone(result.Addrs)
	for _, list := range result.Multi {
		addrs = append(addrs, list...)
	}
	if len(addrs) < 1 {
		return nil, dnscodec.ErrNoData
	}
	return addrs, nil
}

// Dialer dials [net.Conn] connections pretty much like [*net.Dialer]
// except that hostnames are resolved through a [DialerResolver], such
// as a [*ResolverAt] applying a censorship-resistant strategy, instead
// of the system resolver.
//
// Construct using [NewDialer].
//
// This [*Dialer] does not implement happy eyeballs: it attempts the
// resolved addresses sequentially and returns the first connection
// that succeeds.
type Dialer struct {
	// reso is the resolver to use.
	reso DialerResolver

	// udialer is the underlying dialer to use.
	udialer NetDialer
}

// NewDialer creates a new [*Dialer] instance.
func NewDialer(udialer NetDialer, reso DialerResolver) *Dialer {
	return &Dialer{reso, udialer}
}

// DialContext creates a new [net.Conn] connection.
func (d *Dialer) DialContext(ctx context.Context, network string, address string) (net.Conn, error) {
	// 1. separate the domain name and the port
	name, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}

	// 2. resolve the domain name to IPv4 addresses
	addrs, err := d.lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	runtimex.Assert(len(addrs) >= 1)

	// 3. attempt to connect sequentially
	errv := make([]error, 0, len(addrs))
	for _, addr := range addrs {
		conn, err := d.udialer.DialContext(ctx, network, net.JoinHostPort(addr, port))
		if err != nil {
			errv = append(errv, err)
			continue
		}
		return conn, nil
	}

	// 4. bail if all the connect attempts failed
	return nil, errors.Join(errv...)
}

// lookup ensures that we short circuit IP addresses.
func (d *Dialer) lookup(ctx context.Context, name string) ([]string, error) {
	if net.ParseIP(name) != nil {
		return []string{name}, nil
	}
	return d.reso.LookupIPv4(ctx, name)
}
