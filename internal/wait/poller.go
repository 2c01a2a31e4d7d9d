// Package wait implements the bounded fixed-interval poll loop used to
// confirm that a provider-side mutation has converged.
package wait

import (
	"context"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/alexisbeaulieu97/convergo/internal/logger"
	"github.com/alexisbeaulieu97/convergo/internal/reconcile"
	convergoerrors "github.com/alexisbeaulieu97/convergo/pkg/errors"
)

// Status is the state-machine position of a polled resource.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
	StatusError   Status = "ERROR"
	StatusGone    Status = "GONE"
)

// Terminal reports whether polling stops at this status.
func (s Status) Terminal() bool {
	return s == StatusActive || s == StatusError || s == StatusGone
}

// DefaultInterval is the fixed delay between two probes.
const DefaultInterval = 5 * time.Second

// Probe reads the current status of the resource being waited on.
type Probe func(ctx context.Context) (Status, *reconcile.Snapshot, error)

// Poller runs a Probe until it reports the wanted status, an error status or
// the attempt budget is spent.
type Poller struct {
	Interval time.Duration
	Timeout  time.Duration
	Clock    clock.Clock
	// Provider names the source of ERROR states in returned errors.
	Provider string
	Log      *logger.Logger
}

// Attempts returns the probe budget: floor(Timeout/Interval), never below one.
func (p Poller) Attempts() int {
	interval := p.interval()
	n := int(p.Timeout / interval)
	if n < 1 {
		return 1
	}
	return n
}

func (p Poller) interval() time.Duration {
	if p.Interval <= 0 {
		return DefaultInterval
	}
	return p.Interval
}

func (p Poller) clock() clock.Clock {
	if p.Clock == nil {
		return clock.RealClock{}
	}
	return p.Clock
}

// Until probes first and then sleeps one interval between probes. It returns
// the last snapshot once want is reached. ERROR fails immediately with a
// ProviderError; reaching GONE while waiting for ACTIVE is also a
// ProviderError. A spent budget yields a TimeoutError.
func (p Poller) Until(ctx context.Context, resourceID string, want Status, probe Probe) (*reconcile.Snapshot, error) {
	attempts := p.Attempts()
	clk := p.clock()

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status, snapshot, err := probe(ctx)
		if err != nil {
			return nil, err
		}
		p.Log.Debug("poll", "resource", resourceID, "attempt", attempt, "status", string(status), "want", string(want))

		switch {
		case status == want:
			return snapshot, nil
		case status == StatusError:
			return nil, convergoerrors.NewProviderError(p.Provider, resourceID, fmt.Errorf("resource entered %s state", StatusError))
		case status == StatusGone && want == StatusActive:
			return nil, convergoerrors.NewProviderError(p.Provider, resourceID, fmt.Errorf("resource disappeared while waiting for %s", want))
		}

		if attempt < attempts {
			clk.Sleep(p.interval())
		}
	}

	return nil, convergoerrors.NewTimeoutError(resourceID, string(want), attempts)
}
