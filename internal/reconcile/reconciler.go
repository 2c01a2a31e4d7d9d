package reconcile

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/convergo/internal/logger"
)

// Validator rejects structurally invalid desired states before any I/O.
type Validator[D Desired] interface {
	Validate(desired D) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc[D Desired] func(desired D) error

// Validate calls f(desired).
func (f ValidatorFunc[D]) Validate(desired D) error { return f(desired) }

// Observer materializes the current entries of a resource domain. It is
// called once per invocation and must not cache between calls.
type Observer[E any] interface {
	Observe(ctx context.Context) ([]Observed[E], error)
	// Describe converts an observed entry into its public snapshot.
	Describe(entry E) *Snapshot
}

// Matcher locates the desired state among observed entries.
type Matcher[D Desired, E any] interface {
	Match(desired D, observed []Observed[E]) MatchResult
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc[D Desired, E any] func(desired D, observed []Observed[E]) MatchResult

// Match calls f(desired, observed).
func (f MatcherFunc[D, E]) Match(desired D, observed []Observed[E]) MatchResult {
	return f(desired, observed)
}

// Mutator applies a chosen action and persists it. Update and Delete receive
// the entry referenced by the match handle.
type Mutator[D Desired, E any] interface {
	Create(ctx context.Context, desired D) (*Snapshot, error)
	Update(ctx context.Context, desired D, current Observed[E]) (*Snapshot, error)
	Delete(ctx context.Context, desired D, current Observed[E]) (*Snapshot, error)
}

// Previewer is optionally implemented by a Mutator to describe, without
// mutating, what an action would change. Reconciler detects it through a
// type assertion and only uses it in check mode.
type Previewer[D Desired, E any] interface {
	Preview(desired D, action Action, current *Observed[E]) (string, error)
}

// Waiter blocks until the resource touched by action reaches a terminal state.
type Waiter interface {
	Wait(ctx context.Context, action Action, snapshot *Snapshot) (*Snapshot, error)
}

// Reconciler is the decision procedure shared by every front end. It owns
// no I/O of its own; everything flows through the injected collaborators.
type Reconciler[D Desired, E any] struct {
	validator Validator[D]
	observer  Observer[E]
	matcher   Matcher[D, E]
	mutator   Mutator[D, E]
	waiter    Waiter
	async     bool
	log       *logger.Logger
}

// Option customises a Reconciler.
type Option func(*options)

type options struct {
	waiter Waiter
	async  bool
	log    *logger.Logger
}

// WithWaiter makes the Reconciler wait for convergence after each mutation.
// A nil waiter disables waiting.
func WithWaiter(w Waiter) Option {
	return func(o *options) { o.waiter = w }
}

// Async declares that the Mutator returns before the provider finishes the
// change. Without a Waiter such outcomes are reported as not converged.
func Async() Option {
	return func(o *options) { o.async = true }
}

// WithLogger attaches a logger for decision tracing.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// New wires a Reconciler from its collaborators.
func New[D Desired, E any](v Validator[D], obs Observer[E], m Matcher[D, E], mut Mutator[D, E], opts ...Option) (*Reconciler[D, E], error) {
	if v == nil || obs == nil || m == nil || mut == nil {
		return nil, fmt.Errorf("reconciler requires a validator, observer, matcher and mutator")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Reconciler[D, E]{
		validator: v,
		observer:  obs,
		matcher:   m,
		mutator:   mut,
		waiter:    o.waiter,
		async:     o.async,
		log:       o.log,
	}, nil
}

// Decide maps a target and a match onto the minimal action.
func Decide(target Target, m MatchResult) Action {
	if target.Absent() {
		if m.IdentityMatch {
			return ActionDelete
		}
		return ActionNone
	}
	switch {
	case !m.IdentityMatch:
		return ActionCreate
	case !m.FullMatch:
		return ActionUpdate
	default:
		return ActionNone
	}
}

// Run performs one reconciliation. In check mode the Mutator and Waiter are
// never called; the outcome reports what would change.
func (r *Reconciler[D, E]) Run(ctx context.Context, desired D, check bool) (*Outcome, error) {
	if err := r.validator.Validate(desired); err != nil {
		return nil, err
	}

	observed, err := r.observer.Observe(ctx)
	if err != nil {
		return nil, err
	}

	match := r.matcher.Match(desired, observed)
	action := Decide(desired.TargetState(), match)

	var current *Observed[E]
	if match.IdentityMatch {
		current = lookup(observed, match.Handle)
		if current == nil {
			return nil, fmt.Errorf("match handle %s does not reference an observed entry", match.Handle)
		}
	}

	r.log.Debug("reconcile decision",
		"target", string(desired.TargetState()),
		"observed", len(observed),
		"identity_match", match.IdentityMatch,
		"full_match", match.FullMatch,
		"handle", match.Handle.String(),
		"action", string(action),
		"check", check,
	)

	if check {
		return r.predict(desired, action, current)
	}

	if action == ActionNone {
		outcome := &Outcome{Action: ActionNone, Converged: true}
		if current != nil {
			outcome.State = r.observer.Describe(current.Entry)
		}
		return outcome, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snapshot *Snapshot
	switch action {
	case ActionCreate:
		snapshot, err = r.mutator.Create(ctx, desired)
	case ActionUpdate:
		snapshot, err = r.mutator.Update(ctx, desired, *current)
	case ActionDelete:
		snapshot, err = r.mutator.Delete(ctx, desired, *current)
	}
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Changed: true, Action: action, State: snapshot}
	if r.waiter == nil {
		outcome.Converged = !r.async
		return outcome, nil
	}

	waited, err := r.waiter.Wait(ctx, action, snapshot)
	if err != nil {
		return nil, err
	}
	if waited != nil {
		outcome.State = waited
	}
	outcome.Converged = true
	return outcome, nil
}

func (r *Reconciler[D, E]) predict(desired D, action Action, current *Observed[E]) (*Outcome, error) {
	outcome := &Outcome{
		Changed:   action != ActionNone,
		Action:    action,
		Converged: action == ActionNone,
	}
	if current != nil {
		outcome.State = r.observer.Describe(current.Entry)
	}
	if action == ActionNone {
		return outcome, nil
	}
	if p, ok := r.mutator.(Previewer[D, E]); ok {
		diff, err := p.Preview(desired, action, current)
		if err != nil {
			return nil, err
		}
		outcome.Diff = diff
	}
	return outcome, nil
}

func lookup[E any](observed []Observed[E], h Handle) *Observed[E] {
	for i := range observed {
		if observed[i].Handle == h {
			return &observed[i]
		}
	}
	return nil
}
