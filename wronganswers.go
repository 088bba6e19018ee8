// SPDX-License-Identifier: GPL-3.0-or-later

package fqdns

import (
	"maps"
	"slices"
)

// WrongAnswers is a set of literal IPv4 addresses known (or inferred)
// to be injected by a forging intermediary rather than returned by the
// upstream server.
//
// A nil set is valid and contains nothing.
type WrongAnswers map[string]bool

// NewWrongAnswers creates a [WrongAnswers] set from the given addresses.
func NewWrongAnswers(addrs ...string) WrongAnswers {
	wrong := make(WrongAnswers, len(addrs))
	for _, addr := range addrs {
		wrong[addr] = true
	}
	return wrong
}

// Contains reports whether addr belongs to the set.
func (wa WrongAnswers) Contains(addr string) bool {
	return wa[addr]
}

// Add inserts addr into the set.
func (wa WrongAnswers) Add(addr string) {
	wa[addr] = true
}

// AddAll inserts every address of other into the set.
func (wa WrongAnswers) AddAll(other WrongAnswers) {
	maps.Copy(wa, other)
}

// Addrs returns the addresses in the set, sorted.
func (wa WrongAnswers) Addrs() []string {
	return slices.Sorted(maps.Keys(wa))
}
