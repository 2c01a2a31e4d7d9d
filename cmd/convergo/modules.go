package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/convergo/internal/compute"
	"github.com/alexisbeaulieu97/convergo/internal/compute/cloudstack"
	"github.com/alexisbeaulieu97/convergo/internal/compute/rackspace"
	"github.com/alexisbeaulieu97/convergo/internal/config"
	"github.com/alexisbeaulieu97/convergo/internal/hosts"
	"github.com/alexisbeaulieu97/convergo/internal/logger"
	"github.com/alexisbeaulieu97/convergo/internal/model"
	"github.com/alexisbeaulieu97/convergo/internal/reconcile"
	convergoerrors "github.com/alexisbeaulieu97/convergo/pkg/errors"
)

// Seams replaced in tests.
var (
	lookupEnv = os.LookupEnv

	newRaxProvider = func(ctx context.Context, creds rackspace.Credentials, log *logger.Logger) (compute.Provider, error) {
		return rackspace.New(ctx, creds, log)
	}

	newCloudStackProvider = func(creds cloudstack.Credentials, zone string, expunge bool, log *logger.Logger) compute.Provider {
		p := cloudstack.New(creds, zone, log)
		p.Expunge = expunge
		return p
	}

	computeOptions = func(log *logger.Logger) compute.Options {
		return compute.Options{Log: log}
	}
)

type moduleFunc func(ctx context.Context, log *logger.Logger) (*reconcile.Outcome, error)

// runModule runs one module invocation and writes its payload. A failure is
// reported in the payload and surfaces as errReported.
func runModule(cmd *cobra.Command, root *rootFlags, module string, fn moduleFunc) error {
	log, err := newLogger(root, cmd.Name(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	log = log.With("module", module)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	outcome, runErr := fn(ctx, log)

	var res model.Result
	if runErr != nil {
		log.Error(runErr, "module failed")
		res = model.Failure(module, runErr)
	} else {
		res = model.FromOutcome(module, root.check, outcome)
		log.Debug("module finished", "changed", res.Changed, "action", res.Action)
	}

	if err := writeResult(cmd.OutOrStdout(), root.output, res); err != nil {
		return err
	}
	if runErr != nil {
		return errReported
	}
	return nil
}

func runHosts(ctx context.Context, p hosts.Params, check bool, log *logger.Logger) (*reconcile.Outcome, error) {
	return hosts.Run(ctx, p, check, log)
}

func runRax(ctx context.Context, p rackspace.Params, check bool, log *logger.Logger) (*reconcile.Outcome, error) {
	d := p.Desired()
	// Reject bad parameters before authenticating.
	if err := (compute.Validator{}).Validate(d); err != nil {
		return nil, err
	}

	creds, err := rackspace.ResolveCredentials(p, lookupEnv)
	if err != nil {
		return nil, err
	}
	provider, err := newRaxProvider(ctx, creds, log)
	if err != nil {
		return nil, convergoerrors.NewProviderError(rackspace.ProviderName, "", err)
	}
	return compute.Run(ctx, provider, d, check, computeOptions(log))
}

func runCloudStack(ctx context.Context, p cloudstack.Params, check bool, log *logger.Logger) (*reconcile.Outcome, error) {
	d := p.Desired(lookupEnv)
	creds, err := cloudstack.ResolveCredentials(p, lookupEnv)
	if err != nil {
		return nil, err
	}
	provider := newCloudStackProvider(creds, d.Zone, p.Expunge, log)
	return compute.Run(ctx, provider, d, check, computeOptions(log))
}

// runTask decodes a task's parameters for its module and runs it.
func runTask(ctx context.Context, task config.Task, check bool, log *logger.Logger) (*reconcile.Outcome, error) {
	switch task.Module {
	case config.ModuleHosts:
		var p hosts.Params
		if err := decodeTaskParams(task, &p); err != nil {
			return nil, err
		}
		return runHosts(ctx, p, check, log)
	case config.ModuleRackspace:
		p := rackspace.Params{WaitTimeout: int(compute.DefaultWaitTimeout.Seconds())}
		if err := decodeTaskParams(task, &p); err != nil {
			return nil, err
		}
		return runRax(ctx, p, check, log)
	case config.ModuleCloudStack:
		p := cloudstack.Params{WaitFor: int(compute.DefaultWaitTimeout.Seconds())}
		if err := decodeTaskParams(task, &p); err != nil {
			return nil, err
		}
		return runCloudStack(ctx, p, check, log)
	default:
		return nil, convergoerrors.NewValidationError("module", fmt.Sprintf("unknown module %q", task.Module), nil)
	}
}

func decodeTaskParams(task config.Task, out any) error {
	if err := task.DecodeParams(out); err != nil {
		return convergoerrors.NewValidationError("params", err.Error(), err)
	}
	return nil
}
