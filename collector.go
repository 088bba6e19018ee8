// SPDX-License-Identifier: GPL-3.0-or-later

package fqdns

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// ResponseSource yields raw DNS responses in arrival order.
//
// Both [*UDPExchanger] and the test suite provide implementations.
type ResponseSource interface {
	// RecvRaw blocks until the next raw response arrives or the given
	// deadline expires. Deadline expiry is reported as an error
	// matching [os.ErrDeadlineExceeded] and is not a failure.
	RecvRaw(deadline time.Time) ([]byte, error)
}

// collectGranularity bounds each individual receive so that the
// collector re-checks the remaining time at least once per second.
const collectGranularity = time.Second

// Collector gathers DNS responses from a [ResponseSource] until its
// strategy is satisfied or its timeout expires.
type Collector struct {
	// Strategy selects among the received responses.
	Strategy Strategy

	// Timeout bounds the whole collection.
	Timeout time.Duration

	// WrongAnswers contains known forged addresses consulted by the
	// pick-right and pick-right-later strategies. May be nil.
	WrongAnswers WrongAnswers

	// Logger optionally logs collection progress.
	Logger *slog.Logger
}

// Collect runs the collection loop and returns the selected responses
// in arrival order.
//
// Reaching the deadline is not a failure: the result is whatever the
// strategy has retained so far, possibly nothing. Any other receive
// error, and any response that fails to decode, aborts collection.
func (c *Collector) Collect(source ResponseSource) ([]*Response, error) {
	if !c.Strategy.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStrategy, c.Strategy)
	}
	var picked []*Response
	deadline := time.Now().Add(c.Timeout)
	for {
		// 1. Re-check the remaining time before each receive.
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return picked, nil
		}
		if c.Logger != nil {
			c.Logger.Debug("waiting for response", slog.Duration("remaining", remaining))
		}

		// 2. Wait for the next response, at most until the deadline
		// and never longer than the receive granularity.
		raw, err := source.RecvRaw(time.Now().Add(min(remaining, collectGranularity)))
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			return nil, err
		}

		// 3. Decode.
		resp, err := ParseRawResponse(raw)
		if err != nil {
			return nil, err
		}
		if c.Logger != nil {
			c.Logger.Debug("received response", slog.Any("addrs", resp.Addrs))
		}

		// 4. Apply the strategy rule.
		switch c.Strategy {
		case StrategyPickFirst:
			return []*Response{resp}, nil
		case StrategyPickLater:
			picked = []*Response{resp}
		case StrategyPickRight:
			if resp.IsGenuine(c.WrongAnswers) {
				return []*Response{resp}, nil
			}
		case StrategyPickRightLater:
			if resp.IsGenuine(c.WrongAnswers) {
				picked = []*Response{resp}
			}
		case StrategyPickAll:
			picked = append(picked, resp)
		}
	}
}
