// Package compute reconciles a single named compute instance against a
// cloud provider. Provider adapters live in subpackages; this package owns
// validation, matching, mutation and the wait loop shared by all of them.
package compute

import (
	"context"
	"time"

	"k8s.io/utils/clock"

	"github.com/alexisbeaulieu97/convergo/internal/logger"
	"github.com/alexisbeaulieu97/convergo/internal/reconcile"
	"github.com/alexisbeaulieu97/convergo/internal/wait"
)

// Options tune how a compute reconciliation waits.
type Options struct {
	// Interval between status probes. Zero selects wait.DefaultInterval.
	Interval time.Duration
	// Clock is used for sleeping between probes. Nil selects the real clock.
	Clock clock.Clock
	Log   *logger.Logger
}

// NewReconciler wires a Reconciler for d against provider. Provider calls
// return before the change completes, so without d.Wait outcomes are
// reported as unconfirmed.
func NewReconciler(provider Provider, d Desired, opts Options) (*reconcile.Reconciler[Desired, Instance], error) {
	timeout := d.WaitTimeout
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	poller := wait.Poller{Interval: opts.Interval, Timeout: timeout, Clock: opts.Clock}
	cloud := NewCloud(provider, d, poller, opts.Log)

	options := []reconcile.Option{reconcile.Async(), reconcile.WithLogger(opts.Log)}
	if d.Wait {
		options = append(options, reconcile.WithWaiter(cloud))
	}

	validator := Validator{AllowStopped: provider.PowerControl()}
	if pv, ok := provider.(DesiredValidator); ok {
		validator.Provider = pv
	}

	return reconcile.New[Desired, Instance](
		validator,
		cloud,
		Matcher{PowerAware: provider.PowerControl(), Log: opts.Log},
		cloud,
		options...,
	)
}

// Run performs one compute reconciliation.
func Run(ctx context.Context, provider Provider, d Desired, check bool, opts Options) (*reconcile.Outcome, error) {
	r, err := NewReconciler(provider, d, opts)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, d, check)
}
