package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/convergo/internal/config"
)

func TestHostsCommandAddsEntryOnce(t *testing.T) {
	path := writeFile(t, "hosts", "127.0.0.1 localhost\n")
	args := []string{"hosts", "--path", path, "--ip", "192.168.1.1", "--hostname", "host1", "--aliases", "a1,a2"}

	stdout, _, err := executeCommand(t, args...)
	require.NoError(t, err)

	res := decodeResult(t, stdout)
	require.Equal(t, config.ModuleHosts, res.Module)
	require.True(t, res.Changed)
	require.Equal(t, "create", res.Action)
	require.Equal(t, "127.0.0.1 localhost\n192.168.1.1 host1 a1 a2\n", readFile(t, path))

	stdout, _, err = executeCommand(t, args...)
	require.NoError(t, err)
	require.False(t, decodeResult(t, stdout).Changed)
}

func TestHostsCommandCheckModeLeavesFile(t *testing.T) {
	path := writeFile(t, "hosts", "127.0.0.1 localhost\n")

	stdout, _, err := executeCommand(t, "--check", "-o", "text", "hosts", "--path", path, "--ip", "10.0.0.9", "--hostname", "db")
	require.NoError(t, err)
	require.Contains(t, stdout, "would create")
	require.Contains(t, stdout, "10.0.0.9 db")
	require.Equal(t, "127.0.0.1 localhost\n", readFile(t, path))
}

func TestHostsCommandReportsValidationFailure(t *testing.T) {
	path := writeFile(t, "hosts", "")

	stdout, stderr, err := executeCommand(t, "hosts", "--path", path, "--state", "absent")
	require.ErrorIs(t, err, errReported)

	res := decodeResult(t, stdout)
	require.True(t, res.Failed)
	require.Contains(t, res.Msg, "ip")
	require.Contains(t, stderr, "module failed")
	require.Contains(t, stderr, `"component":"hosts"`)
}

func TestRootRejectsUnknownOutputFormat(t *testing.T) {
	_, _, err := executeCommand(t, "-o", "xml", "version")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown output format")
}
