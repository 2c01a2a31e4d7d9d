package hosts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/convergo/internal/logger"
	"github.com/alexisbeaulieu97/convergo/internal/reconcile"
	convergoerrors "github.com/alexisbeaulieu97/convergo/pkg/errors"
)

// File observes and mutates one host-table file. Observe loads the table
// into memory; the next mutation consumes that copy and persists it.
type File struct {
	path   string
	backup bool
	log    *logger.Logger
	now    func() time.Time

	table *Table
}

// NewFile returns a File for path. An empty path selects DefaultPath.
func NewFile(path string, backup bool, log *logger.Logger) *File {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	return &File{path: path, backup: backup, log: log, now: time.Now}
}

var (
	_ reconcile.Observer[Entry]           = (*File)(nil)
	_ reconcile.Mutator[Desired, Entry]   = (*File)(nil)
	_ reconcile.Previewer[Desired, Entry] = (*File)(nil)
)

// Observe reads the table and returns its data lines in file order, each
// keyed by its line index.
func (f *File) Observe(ctx context.Context) ([]reconcile.Observed[Entry], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := readTable(f.path)
	if err != nil {
		return nil, convergoerrors.NewObservationError(f.path, err)
	}
	f.table = table

	observed := make([]reconcile.Observed[Entry], 0, len(table.Lines))
	for idx, line := range table.Lines {
		entry, ok := parseEntry(line)
		if !ok {
			continue
		}
		observed = append(observed, reconcile.Observed[Entry]{Handle: reconcile.IndexHandle(idx), Entry: entry})
	}

	f.log.Debug("read host table", "path", table.Path, "exists", table.Exists, "lines", len(table.Lines), "entries", len(observed))
	return observed, nil
}

// Describe implements reconcile.Observer.
func (f *File) Describe(e Entry) *reconcile.Snapshot {
	return entrySnapshot(e.IP, e.Hostname, e.Aliases, "present", f.path)
}

// Create appends the desired line.
func (f *File) Create(ctx context.Context, d Desired) (*reconcile.Snapshot, error) {
	table, err := f.take()
	if err != nil {
		return nil, err
	}
	apply(table, d, reconcile.ActionCreate, reconcile.Handle{})
	if err := f.persist(table); err != nil {
		return nil, err
	}
	return entrySnapshot(d.IP, d.Hostname, d.AliasColumn(), "present", table.Path), nil
}

// Update rewrites the matched line in place.
func (f *File) Update(ctx context.Context, d Desired, current reconcile.Observed[Entry]) (*reconcile.Snapshot, error) {
	table, err := f.take()
	if err != nil {
		return nil, err
	}
	if err := checkHandle(table, current.Handle); err != nil {
		return nil, err
	}
	apply(table, d, reconcile.ActionUpdate, current.Handle)
	if err := f.persist(table); err != nil {
		return nil, err
	}
	return entrySnapshot(d.IP, d.Hostname, d.AliasColumn(), "present", table.Path), nil
}

// Delete removes the matched line.
func (f *File) Delete(ctx context.Context, d Desired, current reconcile.Observed[Entry]) (*reconcile.Snapshot, error) {
	table, err := f.take()
	if err != nil {
		return nil, err
	}
	if err := checkHandle(table, current.Handle); err != nil {
		return nil, err
	}
	apply(table, d, reconcile.ActionDelete, current.Handle)
	if err := f.persist(table); err != nil {
		return nil, err
	}
	e := current.Entry
	return entrySnapshot(e.IP, e.Hostname, e.Aliases, "absent", table.Path), nil
}

// Preview renders the unified diff the action would produce, leaving the
// loaded table untouched.
func (f *File) Preview(d Desired, action reconcile.Action, current *reconcile.Observed[Entry]) (string, error) {
	if f.table == nil {
		return "", fmt.Errorf("host table %s has not been observed", f.path)
	}
	var h reconcile.Handle
	if current != nil {
		h = current.Handle
		if err := checkHandle(f.table, h); err != nil {
			return "", err
		}
	}
	after := f.table.clone()
	apply(after, d, action, h)
	return unifiedDiff(f.table.Path, f.table, after), nil
}

// take hands out the observed table exactly once.
func (f *File) take() (*Table, error) {
	if f.table == nil {
		return nil, fmt.Errorf("host table %s has not been observed", f.path)
	}
	table := f.table
	f.table = nil
	return table, nil
}

func (f *File) persist(table *Table) error {
	if f.backup && table.Exists {
		backupPath, err := createBackup(table.Path, []byte(table.original), table.Perm, f.now())
		if err != nil {
			return fmt.Errorf("failed to create backup of %s: %w", table.Path, err)
		}
		f.log.Info("backed up host table", "path", table.Path, "backup", backupPath)
	}

	if err := writeFileAtomic(table.Path, []byte(table.Content()), table.Perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", table.Path, err)
	}
	f.log.Debug("wrote host table", "path", table.Path, "lines", len(table.Lines))
	return nil
}

func apply(table *Table, d Desired, action reconcile.Action, h reconcile.Handle) {
	switch action {
	case reconcile.ActionCreate:
		table.Lines = append(table.Lines, d.Line())
		table.Trailing = true
	case reconcile.ActionUpdate:
		table.Lines[h.Index()] = d.Line()
	case reconcile.ActionDelete:
		idx := h.Index()
		table.Lines = append(table.Lines[:idx:idx], table.Lines[idx+1:]...)
		if len(table.Lines) == 0 {
			table.Trailing = false
		}
	}
}

func checkHandle(table *Table, h reconcile.Handle) error {
	idx := h.Index()
	if idx < 0 || idx >= len(table.Lines) {
		return fmt.Errorf("line %s is outside host table %s", h, table.Path)
	}
	return nil
}

func entrySnapshot(ip, hostname, aliases, status, path string) *reconcile.Snapshot {
	snap := &reconcile.Snapshot{
		Name:    hostname,
		Status:  status,
		Details: map[string]string{"path": path},
	}
	if ip != "" {
		snap.Addresses = []string{ip}
	}
	if aliases != "" {
		snap.Details["aliases"] = aliases
	}
	return snap
}
