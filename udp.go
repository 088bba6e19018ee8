// SPDX-License-Identifier: GPL-3.0-or-later

package fqdns

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/bassosimone/dnscodec"
)

// NetDialer abstracts over [*net.Dialer].
type NetDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// UDPExchanger sends a single DNS query over UDP and collects the
// responses arriving within the collection window.
//
// Construct using [NewUDPExchanger].
type UDPExchanger struct {
	// Dialer is the [NetDialer] to use to create connections.
	//
	// Set by [NewUDPExchanger] to the user-provided value.
	Dialer NetDialer

	// Endpoint is the server endpoint to use to query.
	//
	// Set by [NewUDPExchanger] to the user-provided value.
	Endpoint string
}

// NewUDPExchanger creates a new [*UDPExchanger].
func NewUDPExchanger(dialer NetDialer, endpoint string) *UDPExchanger {
	return &UDPExchanger{
		Dialer:   dialer,
		Endpoint: endpoint,
	}
}

// udpResponseSource adapts a [net.Conn] to [ResponseSource].
type udpResponseSource struct {
	conn net.Conn
}

// RecvRaw implements [ResponseSource].
func (s *udpResponseSource) RecvRaw(deadline time.Time) ([]byte, error) {
	_ = s.conn.SetReadDeadline(deadline)
	buff := make([]byte, dnscodec.QueryMaxResponseSizeUDP)
	count, err := s.conn.Read(buff)
	if err != nil {
		return nil, err
	}
	return buff[:count], nil
}

// ExchangeAndCollect sends the query exactly once and then lets coll
// gather the responses arriving on the same socket.
//
// An intermediary injecting forged responses produces several datagrams
// for a single query, so where [*StreamExchanger.Exchange] reads one
// response this method keeps the socket open for the whole collection
// window. An error return value indicates one of the following:
//
//  1. the collector strategy is not supported
//
//  2. failure to serialize or send the query
//
//  3. a receive failure other than deadline expiry
//
//  4. a response that cannot be decoded as a DNS message
//
// Deadline expiry with zero responses collected is not an error.
func (ue *UDPExchanger) ExchangeAndCollect(
	ctx context.Context, query *dnscodec.Query, coll *Collector) ([]*Response, error) {
	// 1. Validate the strategy before touching the network.
	if !coll.Strategy.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStrategy, coll.Strategy)
	}

	// 2. Create the connection.
	conn, err := ue.Dialer.DialContext(ctx, "udp", ue.Endpoint)
	if err != nil {
		return nil, err
	}

	// 3. Use a single connection for the whole exchange, which is what
	// the standard library does as well and is more robust in terms of
	// residual censorship.
	//
	// Make sure we react to context being canceled early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer conn.Close()
		<-ctx.Done()
	}()

	// 4. Bound the send; the collector manages read deadlines itself.
	sendDeadline := time.Now().Add(coll.Timeout)
	if deadline, ok := ctx.Deadline(); ok && deadline.Before(sendDeadline) {
		sendDeadline = deadline
	}
	_ = conn.SetWriteDeadline(sendDeadline)

	// 5. Mutate and serialize the query.
	query = query.Clone()
	query.MaxSize = dnscodec.QueryMaxResponseSizeUDP
	queryMsg, err := query.NewMsg()
	if err != nil {
		return nil, err
	}
	rawQuery, err := queryMsg.Pack()
	if err != nil {
		return nil, err
	}

	// 6. Send the query.
	if _, err := conn.Write(rawQuery); err != nil {
		return nil, err
	}

	// 7. Collect responses until the strategy or the deadline says stop.
	return coll.Collect(&udpResponseSource{conn})
}
