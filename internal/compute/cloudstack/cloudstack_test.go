package cloudstack

import (
	"testing"
	"time"

	"github.com/apache/cloudstack-go/v2/cloudstack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/convergo/internal/compute"
	"github.com/alexisbeaulieu97/convergo/internal/reconcile"
	convergoerrors "github.com/alexisbeaulieu97/convergo/pkg/errors"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestResolveCredentials(t *testing.T) {
	t.Parallel()

	insecure := false

	tests := []struct {
		name      string
		params    Params
		env       map[string]string
		want      Credentials
		wantField string
	}{
		{
			name:   "explicit host",
			params: Params{APIKey: "k", SecretKey: "s", APIHost: "cloud.example.com"},
			want:   Credentials{Endpoint: "https://cloud.example.com/client/api", APIKey: "k", SecretKey: "s", VerifySSL: true},
		},
		{
			name:   "full url kept",
			params: Params{APIKey: "k", SecretKey: "s", APIHost: "http://10.0.0.5:8080/client/api/", VerifySSL: &insecure},
			want:   Credentials{Endpoint: "http://10.0.0.5:8080/client/api", APIKey: "k", SecretKey: "s", VerifySSL: false},
		},
		{
			name:   "environment fallback",
			params: Params{},
			env:    map[string]string{EnvAPIKey: "ek", EnvSecretKey: "es", EnvEndpoint: "https://env.example.com/client/api"},
			want:   Credentials{Endpoint: "https://env.example.com/client/api", APIKey: "ek", SecretKey: "es", VerifySSL: true},
		},
		{
			name:      "missing api key",
			params:    Params{SecretKey: "s", APIHost: "h"},
			wantField: "api_key",
		},
		{
			name:      "missing secret",
			params:    Params{APIKey: "k", APIHost: "h"},
			wantField: "secret_key",
		},
		{
			name:      "missing host",
			params:    Params{APIKey: "k", SecretKey: "s"},
			wantField: "api_host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveCredentials(tt.params, lookupFrom(tt.env))
			if tt.wantField != "" {
				var valErr *convergoerrors.ValidationError
				require.ErrorAs(t, err, &valErr)
				assert.Equal(t, tt.wantField, valErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParamsDesired(t *testing.T) {
	t.Parallel()

	d := Params{
		Name:       "web-1",
		TemplateID: "tmpl-1",
		OfferingID: "small",
		NetworkID:  "net-1",
		State:      "stopped",
		Wait:       true,
		WaitFor:    90,
	}.Desired(lookupFrom(map[string]string{EnvZone: "zone-a"}))

	assert.Equal(t, "small", d.Flavor)
	assert.Equal(t, "tmpl-1", d.Image)
	assert.Equal(t, "net-1", d.Network)
	assert.Equal(t, "zone-a", d.Zone)
	assert.Equal(t, reconcile.TargetStopped, d.State)
	assert.Equal(t, 90*time.Second, d.WaitTimeout)

	explicit := Params{ZoneID: "zone-b"}.Desired(lookupFrom(map[string]string{EnvZone: "zone-a"}))
	assert.Equal(t, "zone-b", explicit.Zone)
}

func TestValidateDesired(t *testing.T) {
	t.Parallel()

	p := &Provider{}

	var valErr *convergoerrors.ValidationError
	err := p.ValidateDesired(compute.Desired{Name: "web-1", State: reconcile.TargetPresent})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "zone_id", valErr.Field)

	err = p.ValidateDesired(compute.Desired{Name: "web-1", Zone: "z", Files: map[string]string{"/etc/motd": "motd"}})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "files", valErr.Field)

	require.NoError(t, p.ValidateDesired(compute.Desired{Name: "web-1", Zone: "z"}))
}

func TestPhaseOf(t *testing.T) {
	t.Parallel()

	tests := map[string]compute.Phase{
		"Running":   compute.PhaseRunning,
		"Starting":  compute.PhaseBuilding,
		"Stopping":  compute.PhaseBuilding,
		"Stopped":   compute.PhaseStopped,
		"Error":     compute.PhaseError,
		"Destroyed": compute.PhaseDeleted,
		"Expunging": compute.PhaseDeleted,
	}
	for state, want := range tests {
		assert.Equal(t, want, phaseOf(state), "state %q", state)
	}
}

func TestInstanceFrom(t *testing.T) {
	t.Parallel()

	vm := &cloudstack.VirtualMachine{
		Id:                "vm-1",
		Name:              "web-1",
		State:             "Running",
		Serviceofferingid: "small",
		Templateid:        "tmpl-1",
		Publicip:          "203.0.113.7",
		Nic:               []cloudstack.Nic{{Ipaddress: "10.1.1.5"}},
		Tags:              []cloudstack.Tags{{Key: "role", Value: "web"}},
	}

	inst := instanceFrom(vm)
	assert.Equal(t, "vm-1", inst.ID)
	assert.Equal(t, compute.PhaseRunning, inst.Phase)
	assert.Equal(t, "small", inst.Flavor)
	assert.Equal(t, "tmpl-1", inst.Image)
	assert.Equal(t, map[string]string{"role": "web"}, inst.Meta)
	assert.Equal(t, []string{"203.0.113.7", "10.1.1.5"}, inst.Addresses)
}

func TestTagDelta(t *testing.T) {
	t.Parallel()

	stale, missing := tagDelta(
		map[string]string{"role": "db", "team": "infra", "keep": "1"},
		map[string]string{"role": "web", "keep": "1", "new": "x"},
	)
	assert.Equal(t, map[string]string{"role": "db", "team": "infra"}, stale)
	assert.Equal(t, map[string]string{"role": "web", "new": "x"}, missing)

	stale, missing = tagDelta(map[string]string{"a": "1"}, map[string]string{"a": "1"})
	assert.Empty(t, stale)
	assert.Empty(t, missing)
}
