package compute

import (
	"github.com/alexisbeaulieu97/convergo/internal/logger"
	"github.com/alexisbeaulieu97/convergo/internal/reconcile"
)

// Matcher locates the instance carrying the desired name.
type Matcher struct {
	// PowerAware makes the power phase part of a full match.
	PowerAware bool
	Log        *logger.Logger
}

// Match implements reconcile.Matcher. The first instance with the exact
// desired name wins. It is fully converged when the requested metadata is
// present as given and, for power-aware providers, the power phase agrees
// with the target. Flavor and image are fixed at build time; drift is only
// reported.
func (m Matcher) Match(d Desired, observed []reconcile.Observed[Instance]) reconcile.MatchResult {
	for _, o := range observed {
		inst := o.Entry
		if inst.Name != d.Name {
			continue
		}

		m.warnDrift(d, inst)
		full := metaEqual(d.Meta, inst.Meta)
		if full && m.PowerAware {
			full = wantPower(d.State) == powerOf(inst.Phase)
		}
		return reconcile.Matched(o.Handle, full)
	}
	return reconcile.NoMatch()
}

func (m Matcher) warnDrift(d Desired, inst Instance) {
	if d.State.Absent() {
		return
	}
	if d.Flavor != "" && inst.Flavor != "" && d.Flavor != inst.Flavor {
		m.Log.Warn("flavor differs from desired; not changed in place", "id", inst.ID, "desired", d.Flavor, "actual", inst.Flavor)
	}
	if d.Image != "" && inst.Image != "" && d.Image != inst.Image {
		m.Log.Warn("image differs from desired; not changed in place", "id", inst.ID, "desired", d.Image, "actual", inst.Image)
	}
}

// wantPower is the power phase a present-style target settles in.
func wantPower(target reconcile.Target) Phase {
	if target == reconcile.TargetStopped {
		return PhaseStopped
	}
	return PhaseRunning
}

// powerOf folds transitional phases onto the power state they lead to.
// A building instance is on its way to running and must not be restarted.
func powerOf(p Phase) Phase {
	switch p {
	case PhaseBuilding, PhaseRunning:
		return PhaseRunning
	case PhaseStopped:
		return PhaseStopped
	default:
		return p
	}
}
