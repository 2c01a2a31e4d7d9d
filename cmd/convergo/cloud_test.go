package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/convergo/internal/compute"
	"github.com/alexisbeaulieu97/convergo/internal/compute/cloudstack"
	"github.com/alexisbeaulieu97/convergo/internal/compute/rackspace"
)

func TestRaxCommandCreatesServer(t *testing.T) {
	stubEnv(t, map[string]string{
		rackspace.EnvUsername: "jdoe",
		rackspace.EnvAPIKey:   "secret",
		rackspace.EnvRegion:   "dfw",
	})
	rax, _ := stubCompute(t)

	stdout, _, err := executeCommand(t, "rax", "--name", "web-1", "--flavor", "performance1-1", "--image", "ubuntu", "--meta", "role=web")
	require.NoError(t, err)

	res := decodeResult(t, stdout)
	require.True(t, res.Changed)
	require.Equal(t, "create", res.Action)
	require.Equal(t, "srv-1", res.ID)
	require.NotNil(t, res.Converged)
	require.False(t, *res.Converged)

	require.Len(t, rax.Created, 1)
	require.Equal(t, map[string]string{"role": "web"}, rax.Created[0].Meta)
}

func TestRaxCommandRejectsMissingFlavorBeforeAuth(t *testing.T) {
	stubEnv(t, nil)
	rax, _ := stubCompute(t)

	stdout, _, err := executeCommand(t, "rax", "--name", "web-1", "--image", "ubuntu")
	require.ErrorIs(t, err, errReported)
	require.Contains(t, decodeResult(t, stdout).Msg, "flavor")
	require.Empty(t, rax.Created)
}

func TestRaxCommandRequiresCredentials(t *testing.T) {
	stubEnv(t, nil)
	stubCompute(t)

	stdout, _, err := executeCommand(t, "rax", "--name", "web-1", "--flavor", "f", "--image", "i")
	require.ErrorIs(t, err, errReported)
	require.Contains(t, decodeResult(t, stdout).Msg, "username")
}

func TestCloudStackCommandStopsRunningMachine(t *testing.T) {
	stubEnv(t, map[string]string{
		cloudstack.EnvAPIKey:    "k",
		cloudstack.EnvSecretKey: "s",
		cloudstack.EnvEndpoint:  "cloud.example.com",
		cloudstack.EnvZone:      "zone-a",
	})
	_, cs := stubCompute(t)
	cs.Seed(compute.Instance{Name: "web-1", Phase: compute.PhaseRunning})

	stdout, _, err := executeCommand(t, "cloudstack", "--name", "web-1", "--template-id", "tmpl", "--offering-id", "small", "--state", "stopped")
	require.NoError(t, err)

	res := decodeResult(t, stdout)
	require.True(t, res.Changed)
	require.Equal(t, "update", res.Action)
	require.Len(t, cs.Updated, 1)
	require.Equal(t, compute.PhaseStopped, cs.Updated[0].Power)
}
