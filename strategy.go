// SPDX-License-Identifier: GPL-3.0-or-later

package fqdns

import "errors"

// Strategy selects which of possibly several UDP responses to trust.
type Strategy string

const (
	// StrategyPickFirst trusts the first response and ignores later ones.
	StrategyPickFirst Strategy = "pick-first"

	// StrategyPickLater trusts the last response arriving before the deadline.
	StrategyPickLater Strategy = "pick-later"

	// StrategyPickRight trusts the first response classified as genuine.
	StrategyPickRight Strategy = "pick-right"

	// StrategyPickRightLater trusts the last genuine response
	// arriving before the deadline.
	StrategyPickRightLater Strategy = "pick-right-later"

	// StrategyPickAll collects every response arriving before the deadline.
	StrategyPickAll Strategy = "pick-all"
)

// Strategies lists every supported [Strategy].
var Strategies = []Strategy{
	StrategyPickFirst,
	StrategyPickLater,
	StrategyPickRight,
	StrategyPickRightLater,
	StrategyPickAll,
}

// ErrUnsupportedStrategy means the strategy name is not one of [Strategies].
var ErrUnsupportedStrategy = errors.New("unsupported strategy")

// Valid reports whether the strategy is one of [Strategies].
func (s Strategy) Valid() bool {
	switch s {
	case StrategyPickFirst, StrategyPickLater, StrategyPickRight,
		StrategyPickRightLater, StrategyPickAll:
		return true
	default:
		return false
	}
}

// ServerType selects the transport used to reach the upstream server.
type ServerType string

const (
	// ServerTypeUDP queries over UDP, where strategies apply.
	ServerTypeUDP ServerType = "udp"

	// ServerTypeTCP queries over TCP, which yields at most one
	// response and ignores strategies.
	ServerTypeTCP ServerType = "tcp"
)

// ErrUnsupportedServerType means the server type is neither udp nor tcp.
var ErrUnsupportedServerType = errors.New("unsupported server type")
