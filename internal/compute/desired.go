package compute

import (
	"fmt"
	"maps"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/convergo/internal/config"
	"github.com/alexisbeaulieu97/convergo/internal/reconcile"
	convergoerrors "github.com/alexisbeaulieu97/convergo/pkg/errors"
)

// DefaultWaitTimeout bounds the wait when the caller gives none.
const DefaultWaitTimeout = 300 * time.Second

// Desired is the declared state of one named instance.
type Desired struct {
	Name    string            `yaml:"name" validate:"omitempty,max=255"`
	Flavor  string            `yaml:"flavor"`
	Image   string            `yaml:"image"`
	Meta    map[string]string `yaml:"meta" validate:"omitempty,dive,keys,required,max=255,endkeys,max=255"`
	KeyName string            `yaml:"key_name"`
	// Files maps a remote path on the instance to a local file to inject.
	Files       map[string]string `yaml:"files" validate:"omitempty,dive,keys,remote_path,endkeys,required"`
	Network     string            `yaml:"network"`
	Zone        string            `yaml:"zone"`
	DiskConfig  string            `yaml:"disk_config" validate:"omitempty,oneof=auto manual"`
	State       reconcile.Target  `yaml:"state" validate:"required,oneof=present absent stopped"`
	Wait        bool              `yaml:"wait"`
	WaitTimeout time.Duration     `yaml:"wait_timeout" validate:"min=0"`
}

// TargetState implements reconcile.Desired.
func (d Desired) TargetState() reconcile.Target { return d.State }

// ParseState maps the accepted state spellings onto a Target. active is an
// alias of present and deleted an alias of absent.
func ParseState(raw string) reconcile.Target {
	switch s := strings.ToLower(strings.TrimSpace(raw)); s {
	case "", "active":
		return reconcile.TargetPresent
	case "deleted":
		return reconcile.TargetAbsent
	default:
		return reconcile.Target(s)
	}
}

// Validator checks a Desired before anything is listed.
type Validator struct {
	// AllowStopped accepts the stopped target for providers with power control.
	AllowStopped bool
	// Provider adds provider-specific rules when set.
	Provider DesiredValidator
}

// Validate implements reconcile.Validator.
func (v Validator) Validate(d Desired) error {
	if err := config.ValidateStruct(d); err != nil {
		return err
	}
	if d.State == reconcile.TargetStopped && !v.AllowStopped {
		return convergoerrors.NewValidationError("state", "stopped is not supported by this provider", nil)
	}

	if strings.TrimSpace(d.Name) == "" {
		return convergoerrors.NewValidationError("name", fmt.Sprintf("required when state is %s", d.State), nil)
	}
	if d.State.Absent() {
		return nil
	}
	if strings.TrimSpace(d.Flavor) == "" {
		return convergoerrors.NewValidationError("flavor", fmt.Sprintf("required when state is %s", d.State), nil)
	}
	if strings.TrimSpace(d.Image) == "" {
		return convergoerrors.NewValidationError("image", fmt.Sprintf("required when state is %s", d.State), nil)
	}
	if v.Provider != nil {
		return v.Provider.ValidateDesired(d)
	}
	return nil
}

// loadFiles reads every injection source. The first unreadable local file
// aborts with a FileLoadError.
func loadFiles(files map[string]string) (map[string][]byte, error) {
	if len(files) == 0 {
		return nil, nil
	}

	remotes := make([]string, 0, len(files))
	for remote := range files {
		remotes = append(remotes, remote)
	}
	sort.Strings(remotes)

	loaded := make(map[string][]byte, len(files))
	for _, remote := range remotes {
		local := files[remote]
		data, err := os.ReadFile(local)
		if err != nil {
			return nil, convergoerrors.NewFileLoadError(local, err)
		}
		loaded[remote] = data
	}
	return loaded, nil
}

func metaEqual(want, have map[string]string) bool {
	if len(want) == 0 {
		return true
	}
	return maps.Equal(want, have)
}
