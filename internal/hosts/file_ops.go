package hosts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultFileMode os.FileMode = 0o644

// Table is the in-memory copy of a host-table file. Lines keeps every line,
// comments and blanks included, in file order; entry handles index into it.
type Table struct {
	Path     string
	Exists   bool
	Perm     os.FileMode
	Lines    []string
	Trailing bool

	original string
}

func readTable(path string) (*Table, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	table := &Table{Path: expanded, Perm: defaultFileMode, Lines: []string{}}

	resolved, err := filepath.EvalSymlinks(expanded)
	if err == nil {
		table.Path = resolved
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	info, err := os.Stat(table.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return table, nil
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", table.Path)
	}

	data, err := os.ReadFile(table.Path)
	if err != nil {
		return nil, err
	}

	table.Exists = true
	table.Perm = info.Mode().Perm()
	table.original = string(data)
	table.Lines, table.Trailing = splitLines(table.original)
	return table, nil
}

// Content renders the table back to file content.
func (t *Table) Content() string {
	return joinLines(t.Lines, t.Trailing)
}

func (t *Table) clone() *Table {
	cp := *t
	cp.Lines = append([]string(nil), t.Lines...)
	return &cp
}

func splitLines(content string) ([]string, bool) {
	if content == "" {
		return []string{}, false
	}
	trailing := strings.HasSuffix(content, "\n")
	trimmed := content
	if trailing {
		trimmed = strings.TrimSuffix(content, "\n")
	}
	if trimmed == "" {
		if trailing {
			return []string{}, true
		}
		return []string{""}, false
	}
	return strings.Split(trimmed, "\n"), trailing
}

func joinLines(lines []string, trailing bool) string {
	if len(lines) == 0 {
		if trailing {
			return "\n"
		}
		return ""
	}
	joined := strings.Join(lines, "\n")
	if trailing {
		return joined + "\n"
	}
	return joined
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			path = home
		} else if strings.HasPrefix(path, "~/") {
			path = filepath.Join(home, path[2:])
		}
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(path)
}

// writeFileAtomic stages data in a temp file next to path and renames it into
// place, so readers see either the old or the new file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".hosts-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func createBackup(path string, content []byte, perm os.FileMode, now time.Time) (string, error) {
	base := filepath.Base(path)
	backupPath := filepath.Join(filepath.Dir(path), fmt.Sprintf("%s.%s.bak", base, now.UTC().Format("20060102T150405")))

	if err := os.WriteFile(backupPath, content, perm); err != nil {
		return "", err
	}
	return backupPath, nil
}
