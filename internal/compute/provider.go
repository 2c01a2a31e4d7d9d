package compute

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Provider.Get when the instance no longer exists.
var ErrNotFound = errors.New("instance not found")

// Phase is the provider-neutral lifecycle position of an instance.
type Phase string

const (
	PhaseBuilding Phase = "building"
	PhaseRunning  Phase = "running"
	PhaseStopped  Phase = "stopped"
	PhaseError    Phase = "error"
	PhaseDeleting Phase = "deleting"
	PhaseDeleted  Phase = "deleted"
)

// Instance is one provider-side compute instance as observed.
type Instance struct {
	ID   string
	Name string
	// Status is the raw provider status, e.g. "ACTIVE" or "Running".
	Status    string
	Phase     Phase
	Flavor    string
	Image     string
	Meta      map[string]string
	Addresses []string
}

// CreateRequest carries everything a provider needs to build an instance.
// Files maps a remote path to already-loaded contents.
type CreateRequest struct {
	Name       string
	Flavor     string
	Image      string
	Meta       map[string]string
	KeyName    string
	Files      map[string][]byte
	Network    string
	Zone       string
	DiskConfig string
	// Start is false when the instance should be created powered off.
	Start bool
}

// Change is an in-place modification. A nil Meta leaves metadata alone; an
// empty Power leaves the power state alone.
type Change struct {
	Meta  map[string]string
	Power Phase
}

// Empty reports whether the change would do nothing.
func (c Change) Empty() bool {
	return c.Meta == nil && c.Power == ""
}

// Provider is the narrow surface of a compute API used by the reconciler.
// Implementations return raw SDK errors; the caller classifies them.
type Provider interface {
	// Name identifies the provider in errors and logs.
	Name() string
	// PowerControl reports whether instances can be stopped and started.
	PowerControl() bool
	// List returns instances whose name matches name. The filter may be
	// looser than exact equality.
	List(ctx context.Context, name string) ([]Instance, error)
	// Get returns ErrNotFound once the instance is gone.
	Get(ctx context.Context, id string) (*Instance, error)
	Create(ctx context.Context, req CreateRequest) (*Instance, error)
	Update(ctx context.Context, id string, change Change) (*Instance, error)
	Delete(ctx context.Context, id string) error
}

// DesiredValidator is implemented by providers with parameter rules beyond
// the shared ones. It runs before anything is listed.
type DesiredValidator interface {
	ValidateDesired(d Desired) error
}
