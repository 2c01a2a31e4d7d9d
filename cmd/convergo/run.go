package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/convergo/internal/config"
	"github.com/alexisbeaulieu97/convergo/internal/model"
)

type runOptions struct {
	TaskFile string
}

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tasks of a YAML or TOML task file in order",
		Long: `Run executes every task of a task file in order and stops at the first
failure; the remaining tasks are reported as skipped. A task runs in check
mode when --check is given or the task sets check: true.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTasks(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.TaskFile, "file", "f", "", "Path to the task file")
	cmd.MarkFlagRequired("file") //nolint:errcheck

	return cmd
}

func runTasks(cmd *cobra.Command, root *rootFlags, opts runOptions) error {
	log, err := newLogger(root, cmd.Name(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tf, err := config.ParseTaskFile(opts.TaskFile)
	if err != nil {
		log.Error(err, "invalid task file", "path", opts.TaskFile)
		if werr := writeResult(cmd.OutOrStdout(), root.output, model.Failure("", err)); werr != nil {
			return werr
		}
		return errReported
	}

	log.Info("running task file", "path", opts.TaskFile, "tasks", len(tf.Tasks))
	summary := model.NewRunSummary(len(tf.Tasks))

	for _, task := range tf.Tasks {
		if !summary.Succeeded() {
			summary.Skip(task.Label(), task.Module)
			continue
		}

		check := root.check || task.Check
		taskLog := log.WithFields(map[string]any{"task": task.Label(), "module": task.Module})
		start := time.Now()

		outcome, runErr := runTask(ctx, task, check, taskLog)

		var res model.Result
		if runErr != nil {
			taskLog.Error(runErr, "task failed")
			res = model.Failure(task.Module, runErr)
		} else {
			res = model.FromOutcome(task.Module, check, outcome)
			taskLog.Info("task finished", "changed", res.Changed, "action", res.Action)
		}
		res.Task = task.Label()
		res.Duration = time.Since(start)
		summary.Add(res)
	}

	if err := writeSummary(cmd.OutOrStdout(), root.output, summary); err != nil {
		return err
	}
	if summary.ExitCode() != 0 {
		return errReported
	}
	return nil
}
