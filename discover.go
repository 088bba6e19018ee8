// SPDX-License-Identifier: GPL-3.0-or-later

package fqdns

import (
	"context"
	"log/slog"
)

// Discover probes known-blocked domains at the upstream endpoint `at`
// and infers the set of addresses a forging intermediary injects.
//
// For each domain we collect every response arriving within the
// timeout window (pick-all, no filtering). Observing a response with
// two or more addresses proves a genuine answer got through for that
// domain; every single-address response is then counted as a forged
// decoy and its address joins the returned set. Domains for which no
// multi-address response was observed contribute nothing: there is no
// evidence to tell forged single answers from genuine ones.
//
// Domains are probed independently and in order, duplicates included,
// with no retries. The first transport failure aborts the whole call.
func (r *Resolver) Discover(ctx context.Context, domains []string, at string) (WrongAnswers, error) {
	endpoint, err := ParseEndpoint(at)
	if err != nil {
		return nil, err
	}
	wrong := NewWrongAnswers()
	for _, domain := range domains {
		if r.Logger != nil {
			r.Logger.Info("discover",
				slog.String("domain", domain),
				slog.String("endpoint", endpoint))
		}
		resps, err := r.exchangeUDP(ctx, domain, endpoint, StrategyPickAll, nil)
		if err != nil {
			return nil, err
		}
		wrong.AddAll(discoverOnce(resps))
	}
	return wrong, nil
}

// discoverOnce derives a single domain's wrong-answer contribution
// from the full set of responses observed for it.
func discoverOnce(resps []*Response) WrongAnswers {
	genuineSeen := false
	for _, resp := range resps {
		if len(resp.Addrs) > 1 {
			genuineSeen = true
			break
		}
	}
	if !genuineSeen {
		return nil
	}
	wrong := NewWrongAnswers()
	for _, resp := range resps {
		if len(resp.Addrs) == 1 {
			wrong.Add(resp.Addrs[0])
		}
	}
	return wrong
}
