package hosts

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

func unifiedDiff(path string, before, after *Table) string {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before.Content()),
		B:        difflib.SplitLines(after.Content()),
		FromFile: path + " (before)",
		ToFile:   path + " (after)",
		Context:  3,
	}
	diff, _ := difflib.GetUnifiedDiffString(ud)
	return strings.TrimSpace(diff)
}
