package reconcile

import "fmt"

// Action is the mutation chosen by the decision procedure.
type Action string

const (
	ActionNone   Action = "none"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Target is the caller-declared end state of a resource.
type Target string

const (
	TargetPresent Target = "present"
	TargetAbsent  Target = "absent"
	// TargetStopped means present but powered off. Only compute resources
	// that can be stopped accept it.
	TargetStopped Target = "stopped"
)

// Absent reports whether the target asks for the resource to not exist.
func (t Target) Absent() bool {
	return t == TargetAbsent
}

// Desired is implemented by every desired-state descriptor.
type Desired interface {
	TargetState() Target
}

// Handle is an opaque reference to one observed entry. It is produced by an
// Observer, carried by a MatchResult and consumed by the Mutator within the
// same invocation; it is never valid across invocations.
type Handle struct {
	index int
	id    string
	set   bool
}

// IndexHandle references an entry by position, e.g. a line number.
func IndexHandle(index int) Handle {
	return Handle{index: index, set: true}
}

// IDHandle references an entry by provider-assigned identifier.
func IDHandle(id string) Handle {
	return Handle{index: -1, id: id, set: true}
}

// Valid reports whether the handle references anything.
func (h Handle) Valid() bool { return h.set }

// Index returns the positional index, or -1 for ID handles.
func (h Handle) Index() int {
	if !h.set {
		return -1
	}
	return h.index
}

// ID returns the identifier, or "" for positional handles.
func (h Handle) ID() string { return h.id }

func (h Handle) String() string {
	switch {
	case !h.set:
		return "<none>"
	case h.id != "":
		return h.id
	default:
		return fmt.Sprintf("#%d", h.index)
	}
}

// Observed pairs an observed entry with its handle.
type Observed[E any] struct {
	Handle Handle
	Entry  E
}

// MatchResult is the outcome of scanning observed entries for the desired
// state. FullMatch implies IdentityMatch.
type MatchResult struct {
	IdentityMatch bool
	FullMatch     bool
	Handle        Handle
}

// NoMatch is returned when no observed entry shares an identity field.
func NoMatch() MatchResult {
	return MatchResult{}
}

// Matched builds a MatchResult for the entry at h.
func Matched(h Handle, full bool) MatchResult {
	return MatchResult{IdentityMatch: true, FullMatch: full, Handle: h}
}

// Snapshot is the public-facing view of a resource after reconciliation.
type Snapshot struct {
	ID        string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string            `json:"name,omitempty" yaml:"name,omitempty"`
	Status    string            `json:"status,omitempty" yaml:"status,omitempty"`
	Addresses []string          `json:"addresses,omitempty" yaml:"addresses,omitempty"`
	Details   map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
}

// Outcome is the sole output of a reconciliation.
type Outcome struct {
	Changed bool
	Action  Action
	// Converged is false when a mutation was issued but its completion was
	// not confirmed because waiting was declined.
	Converged bool
	State     *Snapshot
	Diff      string
}
