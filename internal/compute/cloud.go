package compute

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/alexisbeaulieu97/convergo/internal/logger"
	"github.com/alexisbeaulieu97/convergo/internal/reconcile"
	"github.com/alexisbeaulieu97/convergo/internal/wait"
	"github.com/alexisbeaulieu97/convergo/pkg/diff"
	convergoerrors "github.com/alexisbeaulieu97/convergo/pkg/errors"
)

// Cloud observes, mutates and waits on the instances of one provider. It is
// bound to the desired instance name for the lifetime of an invocation.
type Cloud struct {
	provider Provider
	name     string
	target   reconcile.Target
	poller   wait.Poller
	log      *logger.Logger
}

var (
	_ reconcile.Observer[Instance]         = (*Cloud)(nil)
	_ reconcile.Mutator[Desired, Instance] = (*Cloud)(nil)
	_ reconcile.Waiter                     = (*Cloud)(nil)

	_ reconcile.Previewer[Desired, Instance] = (*Cloud)(nil)
)

// NewCloud binds provider to the instance described by d.
func NewCloud(provider Provider, d Desired, poller wait.Poller, log *logger.Logger) *Cloud {
	poller.Provider = provider.Name()
	if poller.Log == nil {
		poller.Log = log
	}
	return &Cloud{provider: provider, name: d.Name, target: d.State, poller: poller, log: log}
}

// Observe lists the instances named exactly like the desired one. Instances
// already torn down are skipped.
func (c *Cloud) Observe(ctx context.Context) ([]reconcile.Observed[Instance], error) {
	instances, err := c.provider.List(ctx, c.name)
	if err != nil {
		return nil, convergoerrors.NewObservationError(c.provider.Name(), err)
	}

	observed := make([]reconcile.Observed[Instance], 0, len(instances))
	for _, inst := range instances {
		if inst.Name != c.name || inst.Phase == PhaseDeleted {
			continue
		}
		observed = append(observed, reconcile.Observed[Instance]{Handle: reconcile.IDHandle(inst.ID), Entry: inst})
	}

	c.log.Debug("listed instances", "provider", c.provider.Name(), "name", c.name, "listed", len(instances), "matching", len(observed))
	return observed, nil
}

// Describe implements reconcile.Observer.
func (c *Cloud) Describe(inst Instance) *reconcile.Snapshot {
	return Snapshot(inst)
}

// Create loads injected files and builds the instance.
func (c *Cloud) Create(ctx context.Context, d Desired) (*reconcile.Snapshot, error) {
	files, err := loadFiles(d.Files)
	if err != nil {
		return nil, err
	}

	req := CreateRequest{
		Name:       d.Name,
		Flavor:     d.Flavor,
		Image:      d.Image,
		Meta:       d.Meta,
		KeyName:    d.KeyName,
		Files:      files,
		Network:    d.Network,
		Zone:       d.Zone,
		DiskConfig: d.DiskConfig,
		Start:      d.State != reconcile.TargetStopped,
	}

	c.log.Info("creating instance", "provider", c.provider.Name(), "name", d.Name, "flavor", d.Flavor, "image", d.Image, "files", len(files))
	inst, err := c.provider.Create(ctx, req)
	if err != nil {
		return nil, c.providerError(d.Name, err)
	}
	return Snapshot(*inst), nil
}

// Update resets metadata and moves the power state as needed.
func (c *Cloud) Update(ctx context.Context, d Desired, current reconcile.Observed[Instance]) (*reconcile.Snapshot, error) {
	inst := current.Entry
	change := c.changeFor(d, inst)
	if change.Empty() {
		return Snapshot(inst), nil
	}

	c.log.Info("updating instance", "provider", c.provider.Name(), "id", inst.ID, "meta", change.Meta != nil, "power", string(change.Power))
	updated, err := c.provider.Update(ctx, current.Handle.ID(), change)
	if err != nil {
		return nil, c.providerError(inst.ID, err)
	}
	return Snapshot(*updated), nil
}

func (c *Cloud) changeFor(d Desired, inst Instance) Change {
	var change Change
	if !metaEqual(d.Meta, inst.Meta) {
		change.Meta = d.Meta
	}
	if c.provider.PowerControl() {
		if want := wantPower(d.State); powerOf(inst.Phase) != want {
			change.Power = want
		}
	}
	return change
}

// Delete removes the instance. An instance that vanished between listing and
// deletion counts as deleted.
func (c *Cloud) Delete(ctx context.Context, d Desired, current reconcile.Observed[Instance]) (*reconcile.Snapshot, error) {
	inst := current.Entry
	c.log.Info("deleting instance", "provider", c.provider.Name(), "id", inst.ID, "name", inst.Name)

	if err := c.provider.Delete(ctx, current.Handle.ID()); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, c.providerError(inst.ID, err)
	}

	snap := Snapshot(inst)
	snap.Status = string(PhaseDeleting)
	return snap, nil
}

// Preview describes the attributes an action would change as a line diff.
// It never calls the provider.
func (c *Cloud) Preview(d Desired, action reconcile.Action, current *reconcile.Observed[Instance]) (string, error) {
	var before, after string
	switch action {
	case reconcile.ActionCreate:
		after = describe(d.Name, d.Flavor, d.Image, wantPower(d.State), d.Meta)
	case reconcile.ActionUpdate:
		if current == nil {
			return "", fmt.Errorf("update preview needs the current instance")
		}
		inst := current.Entry
		before = describe(inst.Name, inst.Flavor, inst.Image, powerOf(inst.Phase), inst.Meta)
		change := c.changeFor(d, inst)
		meta, power := inst.Meta, powerOf(inst.Phase)
		if change.Meta != nil {
			meta = change.Meta
		}
		if change.Power != "" {
			power = change.Power
		}
		after = describe(inst.Name, inst.Flavor, inst.Image, power, meta)
	case reconcile.ActionDelete:
		if current == nil {
			return "", fmt.Errorf("delete preview needs the current instance")
		}
		inst := current.Entry
		before = describe(inst.Name, inst.Flavor, inst.Image, powerOf(inst.Phase), inst.Meta)
	}
	return diff.Lines(before, after), nil
}

// describe renders the comparable attributes of an instance one per line,
// metadata sorted by key.
func describe(name, flavor, image string, power Phase, meta map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\n", name)
	fmt.Fprintf(&b, "flavor: %s\n", flavor)
	fmt.Fprintf(&b, "image: %s\n", image)
	fmt.Fprintf(&b, "power: %s\n", power)
	for _, k := range slices.Sorted(maps.Keys(meta)) {
		fmt.Fprintf(&b, "meta.%s: %s\n", k, meta[k])
	}
	return b.String()
}

// Wait implements reconcile.Waiter. Create and update wait for the target
// power phase, delete waits for the instance to be gone.
func (c *Cloud) Wait(ctx context.Context, action reconcile.Action, snap *reconcile.Snapshot) (*reconcile.Snapshot, error) {
	if snap == nil || snap.ID == "" {
		return nil, fmt.Errorf("cannot wait on an instance without an id")
	}

	want := wait.StatusActive
	if action == reconcile.ActionDelete {
		want = wait.StatusGone
	}

	c.log.Debug("waiting for instance", "id", snap.ID, "want", string(want), "attempts", c.poller.Attempts())
	return c.poller.Until(ctx, snap.ID, want, func(ctx context.Context) (wait.Status, *reconcile.Snapshot, error) {
		return c.probe(ctx, action, snap, want)
	})
}

func (c *Cloud) probe(ctx context.Context, action reconcile.Action, last *reconcile.Snapshot, want wait.Status) (wait.Status, *reconcile.Snapshot, error) {
	inst, err := c.provider.Get(ctx, last.ID)
	if errors.Is(err, ErrNotFound) {
		gone := *last
		gone.Status = string(PhaseDeleted)
		return wait.StatusGone, &gone, nil
	}
	if err != nil {
		return "", nil, c.providerError(last.ID, err)
	}

	snap := Snapshot(*inst)
	switch inst.Phase {
	case PhaseError:
		return wait.StatusError, snap, nil
	case PhaseDeleted:
		return wait.StatusGone, snap, nil
	}
	if want == wait.StatusActive && c.settled(action, inst.Phase) {
		return wait.StatusActive, snap, nil
	}
	return wait.StatusPending, snap, nil
}

// settled reports whether phase completes action. Without power control an
// update never changes the power state, so any settled power phase counts.
func (c *Cloud) settled(action reconcile.Action, phase Phase) bool {
	if action == reconcile.ActionUpdate && !c.provider.PowerControl() {
		return phase == PhaseRunning || phase == PhaseStopped
	}
	return phase == wantPower(c.target)
}

func (c *Cloud) providerError(id string, err error) error {
	var provErr *convergoerrors.ProviderError
	if errors.As(err, &provErr) {
		return err
	}
	return convergoerrors.NewProviderError(c.provider.Name(), id, err)
}

// Snapshot converts an instance into its public view.
func Snapshot(inst Instance) *reconcile.Snapshot {
	snap := &reconcile.Snapshot{
		ID:        inst.ID,
		Name:      inst.Name,
		Status:    inst.Status,
		Addresses: append([]string(nil), inst.Addresses...),
		Details:   map[string]string{},
	}
	if snap.Status == "" {
		snap.Status = string(inst.Phase)
	}
	if inst.Phase != "" {
		snap.Details["phase"] = string(inst.Phase)
	}
	if inst.Flavor != "" {
		snap.Details["flavor"] = inst.Flavor
	}
	if inst.Image != "" {
		snap.Details["image"] = inst.Image
	}
	for k, v := range inst.Meta {
		snap.Details["meta."+k] = v
	}
	return snap
}
