// SPDX-License-Identifier: GPL-3.0-or-later

package fqdns

import (
	"errors"
	"fmt"

	"github.com/miekg/dns"
)

// ErrCannotUnmarshalMessage indicates that we cannot unmarshal a DNS message.
var ErrCannotUnmarshalMessage = errors.New("cannot unmarshal DNS message")

// Response is a single DNS response received from the network.
//
// Construct using [ParseRawResponse].
type Response struct {
	// Msg is the decoded DNS message.
	Msg *dns.Msg

	// Addrs contains the IPv4 addresses of the A records in the
	// answer section, in wire order. Records of any other type are
	// discarded. May be empty.
	Addrs []string
}

// ParseRawResponse decodes a raw DNS response.
//
// We deliberately do not require the response ID to match the query ID
// and do not validate the question section: a forging intermediary may
// inject responses with guessed IDs and the classifier must still get
// to see them. The caller is thus trusting arrival on the right socket
// as the only form of query correlation.
func ParseRawResponse(raw []byte) (*Response, error) {
	msg := new(dns.Msg)
	if err := msg.Unpack(raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCannotUnmarshalMessage, err)
	}
	var addrs []string
	for _, rr := range msg.Answer {
		if a, ok := rr.(*dns.A); ok {
			addrs = append(addrs, a.A.String())
		}
	}
	return &Response{Msg: msg, Addrs: addrs}, nil
}

// IsGenuine reports whether the response looks like it originated from
// the queried server rather than from a forging intermediary.
//
// The heuristic assumes the intermediary forges responses carrying
// exactly one fixed address:
//
//  1. a response without addresses is never trusted;
//
//  2. a response with two or more addresses is always trusted, even
//     when every address is a known wrong answer;
//
//  3. a response with exactly one address is trusted unless that
//     address belongs to wrong.
func (r *Response) IsGenuine(wrong WrongAnswers) bool {
	if len(r.Addrs) == 0 {
		return false
	}
	if len(r.Addrs) > 1 {
		return true
	}
	return !wrong.Contains(r.Addrs[0])
}
