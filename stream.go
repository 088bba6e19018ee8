// SPDX-License-Identifier: GPL-3.0-or-later

package fqdns

import (
	"bufio"
	"context"
	"io"
	"math"

	"github.com/bassosimone/dnscodec"
	"github.com/bassosimone/runtimex"
)

// StreamExchanger sends a DNS query over a stream transport (TCP) and
// reads exactly one response.
//
// There is no strategy over a stream: an on-path intermediary is
// assumed unable to forge a full TCP conversation, so the single
// response is trusted as is.
//
// Construct using [NewStreamExchanger].
type StreamExchanger struct {
	// Dialer is the [NetDialer] to use to create connections.
	//
	// Set by [NewStreamExchanger] to the user-provided value.
	Dialer NetDialer

	// Endpoint is the server endpoint to use to query.
	//
	// Set by [NewStreamExchanger] to the user-provided value.
	Endpoint string
}

// NewStreamExchanger creates a new [*StreamExchanger].
func NewStreamExchanger(dialer NetDialer, endpoint string) *StreamExchanger {
	return &StreamExchanger{
		Dialer:   dialer,
		Endpoint: endpoint,
	}
}

// Exchange sends the query and reads a single framed response.
//
// Each message on the wire is prefixed with a 2-byte big-endian length
// field. The context deadline bounds connect, send and receive. A
// stream that closes before delivering a complete frame is a transport
// failure; a deadline expiring mid-read surfaces as an error matching
// [os.ErrDeadlineExceeded], which the caller may treat as "no response".
func (se *StreamExchanger) Exchange(ctx context.Context, query *dnscodec.Query) (*Response, error) {
	// 1. Create the connection.
	conn, err := se.Dialer.DialContext(ctx, "tcp", se.Endpoint)
	if err != nil {
		return nil, err
	}

	// 2. Use a single connection for the exchange and make sure we
	// react to context being canceled early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer conn.Close()
		<-ctx.Done()
	}()

	// 3. Use the context deadline to limit the query lifetime.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	// 4. Mutate and serialize the query.
	query = query.Clone()
	query.MaxSize = dnscodec.QueryMaxResponseSizeTCP
	queryMsg, err := query.NewMsg()
	if err != nil {
		return nil, err
	}
	rawQuery, err := queryMsg.Pack()
	if err != nil {
		return nil, err
	}

	// 5. Wrap the query into a frame and send it.
	rawQueryFrame := newStreamMsgFrame(rawQuery)
	if _, err := conn.Write(rawQueryFrame); err != nil {
		return nil, err
	}

	// 6. Wrap the conn to avoid issuing too many reads then read
	// the response header and message.
	br := bufio.NewReader(conn)
	header := make([]byte, 2)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, err
	}
	length := int(header[0])<<8 | int(header[1])
	rawResp := make([]byte, length)
	if _, err := io.ReadFull(br, rawResp); err != nil {
		return nil, err
	}

	// 7. Parse the response.
	return ParseRawResponse(rawResp)
}

// newStreamMsgFrame creates a new raw frame for sending a message over a stream.
func newStreamMsgFrame(rawMsg []byte) []byte {
	runtimex.Assert(len(rawMsg) <= math.MaxUint16)
	rawMsgFrame := []byte{byte(len(rawMsg) >> 8)}
	rawMsgFrame = append(rawMsgFrame, byte(len(rawMsg)))
	rawMsgFrame = append(rawMsgFrame, rawMsg...)
	return rawMsgFrame
}
