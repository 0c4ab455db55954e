// Package pacer paces record generation at a target aggregate rate.
//
// The pacer tracks an ideal schedule derived from the start time and
// the number of ticks issued so far, and sleeps only the residual
// interval before the next ideal tick. Host scheduling jitter therefore
// never accumulates into long-term drift: when the loop falls behind,
// the backlog of due ticks is coalesced into one batch to catch up.
package pacer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultMaxBatch bounds how many catch-up ticks are coalesced into a
// single batch.
const DefaultMaxBatch = 128

// ErrComplete is returned by Wait once the configured record budget
// has been issued.
var ErrComplete = errors.New("record budget exhausted")

// Pacer issues ticks at a fixed aggregate rate. It is owned by a
// single control loop and is not safe for concurrent use.
type Pacer struct {
	interval time.Duration
	limit    uint64
	maxBatch uint64

	start  time.Time
	issued uint64
}

// New creates a pacer for the given aggregate rate in messages per
// second. A limit of zero means no record budget: the pacer ticks
// until the run is cancelled.
func New(messagesPerSecond float64, limit uint64) (*Pacer, error) {
	if messagesPerSecond <= 0 {
		return nil, fmt.Errorf("messages per second must be positive, got %v", messagesPerSecond)
	}

	interval := time.Duration(float64(time.Second) / messagesPerSecond)
	if interval <= 0 {
		interval = time.Nanosecond
	}

	return &Pacer{
		interval: interval,
		limit:    limit,
		maxBatch: DefaultMaxBatch,
	}, nil
}

// Interval returns the ideal spacing between consecutive ticks.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Issued returns the number of ticks issued so far.
func (p *Pacer) Issued() uint64 {
	return p.issued
}

// Wait blocks until at least one tick is due and returns the number of
// due ticks. The count is 1 when the loop is keeping up and grows (up
// to the batch bound) when it has fallen behind the ideal schedule.
// Wait returns ErrComplete once the record budget is exhausted, or the
// context error if cancelled while waiting.
func (p *Pacer) Wait(ctx context.Context) (int, error) {
	if p.limit > 0 && p.issued >= p.limit {
		return 0, ErrComplete
	}
	if p.start.IsZero() {
		p.start = time.Now()
	}

	ideal := p.start.Add(time.Duration(p.issued) * p.interval)
	now := time.Now()
	if wait := ideal.Sub(now); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-timer.C:
			now = time.Now()
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	// Every tick whose ideal timestamp has passed is due. The ideal
	// timestamp of the last issued tick is not after now, so due >= 1.
	due := uint64(now.Sub(p.start)/p.interval) + 1 - p.issued
	if due > p.maxBatch {
		due = p.maxBatch
	}
	if p.limit > 0 {
		if remaining := p.limit - p.issued; due > remaining {
			due = remaining
		}
	}

	p.issued += due
	return int(due), nil
}
