package model

import (
	"time"

	"github.com/alexisbeaulieu97/convergo/internal/reconcile"
)

const (
	// StatusChanged marks a task that mutated its target.
	StatusChanged = "changed"
	// StatusOK marks a task whose target was already converged.
	StatusOK = "ok"
	// StatusFailed marks a task that returned an error.
	StatusFailed = "failed"
	// StatusSkipped marks a task that never ran because an earlier one failed.
	StatusSkipped = "skipped"
)

// Result is the structured payload reported for one module invocation.
// Successful runs carry the outcome fields; failures carry Failed and Msg.
type Result struct {
	Task      string            `json:"task,omitempty" yaml:"task,omitempty"`
	Module    string            `json:"module,omitempty" yaml:"module,omitempty"`
	Changed   bool              `json:"changed" yaml:"changed"`
	Action    string            `json:"action,omitempty" yaml:"action,omitempty"`
	Check     bool              `json:"check,omitempty" yaml:"check,omitempty"`
	Converged *bool             `json:"converged,omitempty" yaml:"converged,omitempty"`
	ID        string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string            `json:"name,omitempty" yaml:"name,omitempty"`
	Status    string            `json:"status,omitempty" yaml:"status,omitempty"`
	Addresses []string          `json:"addresses,omitempty" yaml:"addresses,omitempty"`
	Details   map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
	Diff      string            `json:"diff,omitempty" yaml:"diff,omitempty"`
	Failed    bool              `json:"failed,omitempty" yaml:"failed,omitempty"`
	Msg       string            `json:"msg,omitempty" yaml:"msg,omitempty"`

	Duration time.Duration `json:"-" yaml:"-"`
}

// FromOutcome builds the payload of a successful reconciliation. Converged
// is only reported when it is false, i.e. a change was issued but not
// confirmed.
func FromOutcome(module string, check bool, outcome *reconcile.Outcome) Result {
	res := Result{Module: module, Check: check}
	if outcome == nil {
		return res
	}

	res.Changed = outcome.Changed
	res.Action = string(outcome.Action)
	res.Diff = outcome.Diff
	if !check && !outcome.Converged {
		converged := false
		res.Converged = &converged
	}
	if s := outcome.State; s != nil {
		res.ID = s.ID
		res.Name = s.Name
		res.Status = s.Status
		res.Addresses = s.Addresses
		res.Details = s.Details
	}
	return res
}

// Failure builds the payload of a failed invocation.
func Failure(module string, err error) Result {
	res := Result{Module: module, Failed: true}
	if err != nil {
		res.Msg = err.Error()
	}
	return res
}

// State summarises the result as one of the Status constants.
func (r Result) State() string {
	switch {
	case r.Failed:
		return StatusFailed
	case r.Changed:
		return StatusChanged
	default:
		return StatusOK
	}
}
