package main

import (
	"io"
	"os"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/convergo/internal/logger"
)

// newLogger writes to w, which is stderr outside of tests, so stdout only
// carries the result payload. Every entry carries the subcommand name and the
// invocation id.
func newLogger(root *rootFlags, component string, w io.Writer) (*logger.Logger, error) {
	level := "info"
	if root.verbose {
		level = "debug"
	}

	log, err := logger.New(logger.Options{Level: level, HumanReadable: isTerminal(w), Writer: w, Component: component})
	if err != nil {
		return nil, err
	}
	return log.With("invocation_id", uuid.NewString()), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
