package hosts

import (
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/convergo/internal/config"
	"github.com/alexisbeaulieu97/convergo/internal/reconcile"
	convergoerrors "github.com/alexisbeaulieu97/convergo/pkg/errors"
)

// DefaultPath is the host table managed when no path is given.
const DefaultPath = "/etc/hosts"

const commentMarker = "#"

// Entry is one parsed data line of a host table. Aliases holds the remaining
// columns joined with commas, which is the form callers compare against.
type Entry struct {
	IP       string
	Hostname string
	Aliases  string
}

// parseEntry decomposes a line. ok is false for comments and blank lines,
// which are never match candidates.
func parseEntry(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, commentMarker) {
		return Entry{}, false
	}
	fields := strings.Fields(trimmed)
	entry := Entry{IP: fields[0]}
	if len(fields) > 1 {
		entry.Hostname = fields[1]
	}
	if len(fields) > 2 {
		entry.Aliases = strings.Join(fields[2:], ",")
	}
	return entry, true
}

// Desired is the declared state of one host-table entry.
type Desired struct {
	IP       string           `yaml:"ip" validate:"omitempty,host_addr"`
	Hostname string           `yaml:"hostname" validate:"omitempty,host_name"`
	Aliases  []string         `yaml:"aliases" validate:"omitempty,dive,host_name"`
	State    reconcile.Target `yaml:"state" validate:"required,oneof=present absent"`
}

// TargetState implements reconcile.Desired.
func (d Desired) TargetState() reconcile.Target { return d.State }

// AliasColumn is the comma-joined alias list as compared against Entry.Aliases.
func (d Desired) AliasColumn() string {
	return strings.Join(d.Aliases, ",")
}

// Line renders the desired entry as written to disk. The separator before
// the alias list is always present, so an entry without aliases ends in a space.
func (d Desired) Line() string {
	return fmt.Sprintf("%s %s %s", d.IP, d.Hostname, strings.Join(d.Aliases, " "))
}

// Params are the caller-facing invocation parameters.
type Params struct {
	IP       string `yaml:"ip"`
	Hostname string `yaml:"hostname"`
	// Aliases is comma separated and order-sensitive.
	Aliases string `yaml:"aliases"`
	State   string `yaml:"state"`
	Path    string `yaml:"path"`
	Backup  bool   `yaml:"backup"`
}

// Desired normalizes the parameters into a Desired value.
func (p Params) Desired() Desired {
	state := strings.ToLower(strings.TrimSpace(p.State))
	if state == "" {
		state = string(reconcile.TargetPresent)
	}
	return Desired{
		IP:       strings.TrimSpace(p.IP),
		Hostname: strings.TrimSpace(p.Hostname),
		Aliases:  splitAliases(p.Aliases),
		State:    reconcile.Target(state),
	}
}

func splitAliases(raw string) []string {
	var out []string
	for _, alias := range strings.Split(raw, ",") {
		alias = strings.TrimSpace(alias)
		if alias != "" {
			out = append(out, alias)
		}
	}
	return out
}

// Validate enforces the parameter rules. present needs both ip and
// hostname; absent needs exactly one of them so that the removal target is
// unambiguous.
func Validate(d Desired) error {
	if err := config.ValidateStruct(d); err != nil {
		return err
	}

	hasIP := d.IP != ""
	hasName := d.Hostname != ""

	switch d.State {
	case reconcile.TargetPresent:
		if !hasIP {
			return convergoerrors.NewValidationError("ip", "required when state is present", nil)
		}
		if !hasName {
			return convergoerrors.NewValidationError("hostname", "required when state is present", nil)
		}
	case reconcile.TargetAbsent:
		if !hasIP && !hasName {
			return convergoerrors.NewValidationError("ip", "either ip or hostname is required when state is absent", nil)
		}
		if hasIP && hasName {
			return convergoerrors.NewValidationError("ip", "only one of ip or hostname may be set when state is absent", nil)
		}
	}
	return nil
}

// Match scans entries in file order and stops at the first identity match.
// Identity is ip OR hostname; a full match needs ip AND hostname equal and,
// when aliases are requested, the exact same alias column.
func Match(d Desired, observed []reconcile.Observed[Entry]) reconcile.MatchResult {
	for _, o := range observed {
		e := o.Entry
		ipMatch := d.IP != "" && d.IP == e.IP
		nameMatch := d.Hostname != "" && d.Hostname == e.Hostname
		if !ipMatch && !nameMatch {
			continue
		}

		full := e.IP == d.IP && e.Hostname == d.Hostname
		if full && len(d.Aliases) > 0 {
			full = e.Aliases == d.AliasColumn()
		}
		return reconcile.Matched(o.Handle, full)
	}
	return reconcile.NoMatch()
}
