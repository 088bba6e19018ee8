// SPDX-License-Identifier: GPL-3.0-or-later

package fqdns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/bassosimone/dnscodec"
	"github.com/miekg/dns"
)

// DefaultResolveTimeout bounds a resolve call (and each per-domain
// discovery probe) when [Resolver.Timeout] is zero.
const DefaultResolveTimeout = time.Second

// Result is the outcome of a resolve call.
//
// At most one of the two fields is set: Addrs when exactly one response
// was selected, Multi when the strategy selected several responses (one
// address list per response, in arrival order). Both are empty when no
// response arrived before the deadline, which is not an error.
type Result struct {
	// Addrs is the address list of the single selected response.
	Addrs []string

	// Multi holds one address list per selected response.
	Multi [][]string
}

// Empty reports whether the result carries no addresses.
func (r *Result) Empty() bool {
	return len(r.Addrs) == 0 && len(r.Multi) == 0
}

// newResult shapes collected responses into a [*Result].
func newResult(resps []*Response) *Result {
	switch len(resps) {
	case 0:
		return &Result{}
	case 1:
		return &Result{Addrs: resps[0].Addrs}
	default:
		multi := make([][]string, 0, len(resps))
		for _, resp := range resps {
			multi = append(multi, resp.Addrs)
		}
		return &Result{Multi: multi}
	}
}

// Resolver resolves A records through a possibly-forging network path.
//
// Construct using [NewResolver]. The zero value is also usable: it
// dials with a [*net.Dialer], uses [DefaultResolveTimeout] and logs
// nothing.
//
// Each call owns its socket and deadline exclusively, so concurrent
// calls on the same Resolver are naturally isolated.
type Resolver struct {
	// Dialer optionally overrides how transport connections are created.
	Dialer NetDialer

	// Timeout bounds each resolve call and each discovery probe.
	Timeout time.Duration

	// Logger optionally receives progress events.
	Logger *slog.Logger
}

// NewResolver creates a new [*Resolver] with default settings.
func NewResolver() *Resolver {
	return &Resolver{
		Dialer:  &net.Dialer{},
		Timeout: DefaultResolveTimeout,
	}
}

func (r *Resolver) dialer() NetDialer {
	if r.Dialer != nil {
		return r.Dialer
	}
	return &net.Dialer{}
}

func (r *Resolver) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultResolveTimeout
}

// newAQuery builds an A-record query for a domain.
//
// The query ID is derived from the process ID rather than being random:
// response IDs are not checked anyway (see [ParseRawResponse]), so the
// ID only needs to be stable and harmless.
func newAQuery(domain string) *dnscodec.Query {
	query := dnscodec.NewQuery(domain, dns.TypeA)
	query.ID = uint16(os.Getpid())
	return query
}

// Resolve queries the upstream server at the endpoint `at` (in
// "host[:port]" form, port defaulting to 53) for domain's A records.
//
// With [ServerTypeUDP] the strategy governs which of possibly several
// responses end up in the result and wrong feeds the pick-right family
// of strategies. With [ServerTypeTCP] both are ignored: the stream
// yields at most one response and it is trusted as is.
//
// An unsupported server type or strategy fails before any network I/O.
// A deadline expiring with no response yields an empty [*Result], not
// an error.
func (r *Resolver) Resolve(ctx context.Context, domain string, serverType ServerType,
	at string, strategy Strategy, wrong WrongAnswers) (*Result, error) {
	endpoint, err := ParseEndpoint(at)
	if err != nil {
		return nil, err
	}
	if r.Logger != nil {
		r.Logger.Info("resolve",
			slog.String("domain", domain),
			slog.String("endpoint", endpoint),
			slog.String("serverType", string(serverType)))
	}
	switch serverType {
	case ServerTypeUDP:
		resps, err := r.exchangeUDP(ctx, domain, endpoint, strategy, wrong)
		if err != nil {
			return nil, err
		}
		return newResult(resps), nil
	case ServerTypeTCP:
		return r.resolveOverTCP(ctx, domain, endpoint)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedServerType, serverType)
	}
}

// exchangeUDP performs one UDP exchange and returns the raw selection.
func (r *Resolver) exchangeUDP(ctx context.Context, domain, endpoint string,
	strategy Strategy, wrong WrongAnswers) ([]*Response, error) {
	exchanger := NewUDPExchanger(r.dialer(), endpoint)
	coll := &Collector{
		Strategy:     strategy,
		Timeout:      r.timeout(),
		WrongAnswers: wrong,
		Logger:       r.Logger,
	}
	return exchanger.ExchangeAndCollect(ctx, newAQuery(domain), coll)
}

// resolveOverTCP performs a single-response stream exchange.
func (r *Resolver) resolveOverTCP(ctx context.Context, domain, endpoint string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()
	exchanger := NewStreamExchanger(r.dialer(), endpoint)
	resp, err := exchanger.Exchange(ctx, newAQuery(domain))
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, net.ErrClosed) {
		// The deadline passing without a response is normal
		// termination. The close-on-ctx-done goroutine may win the
		// race with the read deadline, so a closed conn at this
		// point means the same thing.
		return &Result{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Addrs: resp.Addrs}, nil
}
