package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/alexisbeaulieu97/convergo/internal/compute"
	"github.com/alexisbeaulieu97/convergo/internal/compute/cloudstack"
	"github.com/alexisbeaulieu97/convergo/internal/compute/computetest"
	"github.com/alexisbeaulieu97/convergo/internal/compute/rackspace"
	"github.com/alexisbeaulieu97/convergo/internal/logger"
	"github.com/alexisbeaulieu97/convergo/internal/model"
)

// executeCommand runs the root command with args, keeping the payload on
// stdout apart from the logs on stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func decodeResult(t *testing.T, payload string) model.Result {
	t.Helper()
	var res model.Result
	require.NoError(t, json.Unmarshal([]byte(payload), &res), payload)
	return res
}

func decodeSummary(t *testing.T, payload string) model.RunSummary {
	t.Helper()
	var summary model.RunSummary
	require.NoError(t, json.Unmarshal([]byte(payload), &summary), payload)
	return summary
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// stubEnv replaces the environment lookup for the duration of the test.
func stubEnv(t *testing.T, env map[string]string) {
	t.Helper()
	original := lookupEnv
	t.Cleanup(func() { lookupEnv = original })
	lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

// stubCompute routes both cloud modules to in-memory providers and a fake
// clock for the duration of the test.
func stubCompute(t *testing.T) (rax *computetest.Provider, cs *computetest.Provider) {
	t.Helper()

	rax = computetest.New(rackspace.ProviderName, false)
	cs = computetest.New(cloudstack.ProviderName, true)
	clk := clocktesting.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	origRax, origCS, origOpts := newRaxProvider, newCloudStackProvider, computeOptions
	t.Cleanup(func() {
		newRaxProvider, newCloudStackProvider, computeOptions = origRax, origCS, origOpts
	})

	newRaxProvider = func(ctx context.Context, creds rackspace.Credentials, log *logger.Logger) (compute.Provider, error) {
		return rax, nil
	}
	newCloudStackProvider = func(creds cloudstack.Credentials, zone string, expunge bool, log *logger.Logger) compute.Provider {
		return cs
	}
	computeOptions = func(log *logger.Logger) compute.Options {
		return compute.Options{Interval: 5 * time.Second, Clock: clk, Log: log}
	}
	return rax, cs
}
