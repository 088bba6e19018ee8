// SPDX-License-Identifier: GPL-3.0-or-later

// Package fqdns implements censorship-resistant DNS resolution.
//
// A network intermediary that forges DNS responses cannot suppress the
// genuine answer from the upstream server: it can only inject additional
// responses and hope they arrive first. This package therefore keeps the
// UDP socket open after sending a query and collects every response that
// arrives within a configurable window, then applies a [Strategy] to
// decide which response to trust:
//
//  1. pick-first: trust the first response (no protection, fastest)
//
//  2. pick-later: trust the last response before the deadline
//
//  3. pick-right: trust the first response that classifies as genuine
//
//  4. pick-right-later: trust the last genuine response before the deadline
//
//  5. pick-all: return every response for offline inspection
//
// The [*Response.IsGenuine] heuristic assumes the intermediary injects
// responses carrying exactly one fixed address: responses with several
// addresses are genuine, single-address responses are forged when the
// address belongs to a known [WrongAnswers] set, and empty responses
// are never trusted.
//
// The wrong-answer set itself can be learned with [*Resolver.Discover],
// which queries known-blocked domains in pick-all mode and contrasts
// single-address responses against multi-address ones.
//
// The top-level entry point is the [*Resolver]:
//
//	reso := fqdns.NewResolver()
//	wrong := fqdns.NewWrongAnswers("203.98.7.65")
//	result, err := reso.Resolve(ctx, "twitter.com", fqdns.ServerTypeUDP,
//		"8.8.8.8:53", fqdns.StrategyPickRight, wrong)
//
// TCP resolution is also supported ([ServerTypeTCP]) and needs no
// strategy: forging a full TCP stream from an on-path position is
// assumed infeasible, so the single framed response is trusted as is.
//
// The [*Dialer] builds on the resolver to dial connections whose
// hostnames are resolved through a censorship-resistant strategy
// instead of the system resolver.
package fqdns
