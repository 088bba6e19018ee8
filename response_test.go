// SPDX-License-Identifier: GPL-3.0-or-later

package fqdns

import (
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawResponseKeepsOnlyARecords(t *testing.T) {
	msg := new(dns.Msg)
	msg.SetQuestion("example.com.", dns.TypeA)
	msg.Response = true
	msg.Answer = append(msg.Answer,
		&dns.CNAME{
			Hdr: dns.RR_Header{
				Name:   "example.com.",
				Rrtype: dns.TypeCNAME,
				Class:  dns.ClassINET,
				Ttl:    60,
			},
			Target: "alias.example.com.",
		},
		&dns.A{
			Hdr: dns.RR_Header{
				Name:   "alias.example.com.",
				Rrtype: dns.TypeA,
				Class:  dns.ClassINET,
				Ttl:    60,
			},
			A: net.ParseIP("93.184.216.34").To4(),
		},
		&dns.AAAA{
			Hdr: dns.RR_Header{
				Name:   "alias.example.com.",
				Rrtype: dns.TypeAAAA,
				Class:  dns.ClassINET,
				Ttl:    60,
			},
			AAAA: net.ParseIP("2001:db8::1"),
		},
	)
	raw, err := msg.Pack()
	require.NoError(t, err)

	resp, err := ParseRawResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"93.184.216.34"}, resp.Addrs)
}

func TestParseRawResponseGarbage(t *testing.T) {
	_, err := ParseRawResponse([]byte{0xde, 0xad, 0xbe, 0xef})
	require.ErrorIs(t, err, ErrCannotUnmarshalMessage)
}

func TestParseRawResponseIgnoresMessageID(t *testing.T) {
	// A forged response may carry a guessed ID: any well-formed
	// message must decode regardless of its ID.
	raw := buildRawResponse(t, "1.1.1.1")
	msg := new(dns.Msg)
	require.NoError(t, msg.Unpack(raw))
	msg.Id = 0xbeef
	raw, err := msg.Pack()
	require.NoError(t, err)

	resp, err := ParseRawResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1.1.1"}, resp.Addrs)
}

func TestResponseIsGenuine(t *testing.T) {
	type testCase struct {
		// name is the subtest name.
		name string

		// addrs are the response's A-record addresses.
		addrs []string

		// wrong contains the known forged addresses.
		wrong WrongAnswers

		// want is the expected classification.
		want bool
	}

	tests := []testCase{
		{
			name:  "empty answer set is always forged",
			addrs: nil,
			wrong: nil,
			want:  false,
		},

		{
			name:  "empty answer set is forged whatever the wrong answers",
			addrs: nil,
			wrong: NewWrongAnswers("1.1.1.1", "2.2.2.2"),
			want:  false,
		},

		{
			name:  "multiple addresses are always genuine",
			addrs: []string{"1.1.1.1", "2.2.2.2"},
			wrong: nil,
			want:  true,
		},

		{
			name:  "multiple addresses are genuine even when all known wrong",
			addrs: []string{"1.1.1.1", "2.2.2.2"},
			wrong: NewWrongAnswers("1.1.1.1", "2.2.2.2"),
			want:  true,
		},

		{
			name:  "single unknown address is genuine",
			addrs: []string{"2.2.2.2"},
			wrong: NewWrongAnswers("1.1.1.1"),
			want:  true,
		},

		{
			name:  "single known wrong address is forged",
			addrs: []string{"1.1.1.1"},
			wrong: NewWrongAnswers("1.1.1.1"),
			want:  false,
		},

		{
			name:  "nil wrong answers trust any single address",
			addrs: []string{"1.1.1.1"},
			wrong: nil,
			want:  true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := &Response{Addrs: tc.addrs}
			assert.Equal(t, tc.want, resp.IsGenuine(tc.wrong))
		})
	}
}
