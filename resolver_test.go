// SPDX-License-Identifier: GPL-3.0-or-later

package fqdns

import (
	"context"
	"net"
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/bassosimone/dnstest"
	"github.com/bassosimone/netstub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestResolver creates a resolver pointed at a UDP test server and
// returns the server endpoint to resolve at.
func newTestResolver(t *testing.T, handler *dnstest.Handler) (*Resolver, string) {
	t.Helper()

	server := dnstest.MustNewUDPServer(&net.ListenConfig{}, "127.0.0.1:0", handler)
	t.Cleanup(server.Close)

	reso := NewResolver()
	reso.Timeout = 250 * time.Millisecond
	return reso, server.Address()
}

func TestResolverResolveOverUDP(t *testing.T) {
	config := dnstest.NewHandlerConfig()
	config.AddNetipAddr("example.com", netip.MustParseAddr("93.184.216.34"))
	reso, at := newTestResolver(t, dnstest.NewHandler(config))

	result, err := reso.Resolve(context.Background(), "example.com",
		ServerTypeUDP, at, StrategyPickFirst, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"93.184.216.34"}, result.Addrs)
	assert.Empty(t, result.Multi)
}

func TestResolverResolvePickAllSingleResponse(t *testing.T) {
	// A well-behaved server answers exactly once, so even pick-all
	// shapes the result as a single address list.
	config := dnstest.NewHandlerConfig()
	config.AddNetipAddr("example.com", netip.MustParseAddr("93.184.216.34"))
	reso, at := newTestResolver(t, dnstest.NewHandler(config))

	result, err := reso.Resolve(context.Background(), "example.com",
		ServerTypeUDP, at, StrategyPickAll, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"93.184.216.34"}, result.Addrs)
	assert.Empty(t, result.Multi)
}

func TestResolverResolveUnsupportedServerType(t *testing.T) {
	reso := NewResolver()
	_, err := reso.Resolve(context.Background(), "example.com",
		"doh", "8.8.8.8:53", StrategyPickFirst, nil)
	require.ErrorIs(t, err, ErrUnsupportedServerType)
}

func TestResolverResolveUnsupportedStrategy(t *testing.T) {
	dialed := false
	reso := NewResolver()
	reso.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(context.Context, string, string) (net.Conn, error) {
			dialed = true
			return nil, os.ErrInvalid
		},
	}
	_, err := reso.Resolve(context.Background(), "example.com",
		ServerTypeUDP, "8.8.8.8:53", "pick-best", nil)
	require.ErrorIs(t, err, ErrUnsupportedStrategy)
	assert.False(t, dialed)
}

func TestResolverResolveInvalidEndpoint(t *testing.T) {
	reso := NewResolver()
	_, err := reso.Resolve(context.Background(), "example.com",
		ServerTypeUDP, "8.8.8.8:notaport", StrategyPickFirst, nil)
	require.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestResolverResolveOverTCP(t *testing.T) {
	var written []byte
	conn := newStreamConn(t, buildRawResponse(t, "93.184.216.34"), &written)
	reso := NewResolver()
	reso.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(_ context.Context, network, address string) (net.Conn, error) {
			assert.Equal(t, "tcp", network)
			assert.Equal(t, "8.8.8.8:53", address)
			return wrapConnIgnoreDeadlines(conn), nil
		},
	}

	result, err := reso.Resolve(context.Background(), "example.com",
		ServerTypeTCP, "8.8.8.8", StrategyPickFirst, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"93.184.216.34"}, result.Addrs)
}

func TestResolverResolveOverTCPTimeout(t *testing.T) {
	// A deadline expiring before the response is not a failure.
	conn := &netstub.FuncConn{
		WriteFunc: func(b []byte) (int, error) {
			return len(b), nil
		},
		ReadFunc: func([]byte) (int, error) {
			return 0, os.ErrDeadlineExceeded
		},
		CloseFunc: func() error {
			return nil
		},
		SetDeadlineFunc: func(time.Time) error {
			return nil
		},
	}
	reso := NewResolver()
	reso.Timeout = 50 * time.Millisecond
	reso.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(context.Context, string, string) (net.Conn, error) {
			return conn, nil
		},
	}

	result, err := reso.Resolve(context.Background(), "example.com",
		ServerTypeTCP, "8.8.8.8", StrategyPickFirst, nil)

	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestResolverResolveOverTCPClosedAtDeadline(t *testing.T) {
	// When the context deadline fires, the conn may be closed before
	// the blocked read observes its own deadline; that race must
	// still count as a timeout, not as a transport failure.
	conn := &netstub.FuncConn{
		WriteFunc: func(b []byte) (int, error) {
			return len(b), nil
		},
		ReadFunc: func([]byte) (int, error) {
			return 0, net.ErrClosed
		},
		CloseFunc: func() error {
			return nil
		},
		SetDeadlineFunc: func(time.Time) error {
			return nil
		},
	}
	reso := NewResolver()
	reso.Timeout = 50 * time.Millisecond
	reso.Dialer = &netstub.FuncDialer{
		DialContextFunc: func(context.Context, string, string) (net.Conn, error) {
			return conn, nil
		},
	}

	result, err := reso.Resolve(context.Background(), "example.com",
		ServerTypeTCP, "8.8.8.8", StrategyPickFirst, nil)

	require.NoError(t, err)
	assert.True(t, result.Empty())
}

// wrapConnIgnoreDeadlines makes a conn accept SetDeadline calls, which
// the stream exchanger issues when the context carries a deadline.
func wrapConnIgnoreDeadlines(conn net.Conn) net.Conn {
	return &netstub.FuncConn{
		WriteFunc: conn.Write,
		ReadFunc:  conn.Read,
		CloseFunc: conn.Close,
		SetDeadlineFunc: func(time.Time) error {
			return nil
		},
	}
}

func TestNewResultShaping(t *testing.T) {
	type testCase struct {
		// name is the subtest name.
		name string

		// resps are the selected responses.
		resps []*Response

		// want is the expected shaped result.
		want *Result
	}

	tests := []testCase{
		{
			name:  "no response",
			resps: nil,
			want:  &Result{},
		},

		{
			name:  "single response flattens to its address list",
			resps: []*Response{{Addrs: []string{"1.1.1.1"}}},
			want:  &Result{Addrs: []string{"1.1.1.1"}},
		},

		{
			name: "several responses keep one list per response",
			resps: []*Response{
				{Addrs: []string{"1.1.1.1"}},
				{Addrs: []string{"2.2.2.2", "3.3.3.3"}},
			},
			want: &Result{Multi: [][]string{{"1.1.1.1"}, {"2.2.2.2", "3.3.3.3"}}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := newResult(tc.resps)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want.Empty(), got.Empty())
		})
	}
}
