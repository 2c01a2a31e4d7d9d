package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/convergo/internal/model"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
	outputText = "text"
)

// errReported signals that a failure payload was already written, so main
// only needs to set the exit code.
var errReported = errors.New("failure reported")

var (
	changedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	diffStyle    = lipgloss.NewStyle().PaddingLeft(2)
)

func validateOutputFormat(format string) error {
	switch format {
	case outputJSON, outputYAML, outputText:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want json, yaml or text)", format)
	}
}

func writeResult(w io.Writer, format string, res model.Result) error {
	switch format {
	case outputYAML:
		return writeYAML(w, res)
	case outputText:
		_, err := fmt.Fprintln(w, renderText(res))
		return err
	default:
		return writeJSON(w, res)
	}
}

func writeSummary(w io.Writer, format string, summary *model.RunSummary) error {
	switch format {
	case outputYAML:
		return writeYAML(w, summary)
	case outputText:
		lines := make([]string, 0, len(summary.Results)+1)
		for _, res := range summary.Results {
			lines = append(lines, renderText(res))
		}
		lines = append(lines, detailStyle.Render(fmt.Sprintf("total=%d changed=%d ok=%d failed=%d skipped=%d",
			summary.Total, summary.Changed, summary.OK, summary.Failed, summary.Skipped)))
		_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
		return err
	default:
		return writeJSON(w, summary)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// renderText renders one result as a status badge followed by what was
// touched, and the diff underneath when there is one.
func renderText(res model.Result) string {
	var badge string
	switch {
	case res.Status == model.StatusSkipped && res.Action == "":
		badge = skippedStyle.Render("skipped")
	case res.Failed:
		badge = failedStyle.Render("failed")
	case res.Changed && res.Check:
		badge = changedStyle.Render("would " + res.Action)
	case res.Changed:
		badge = changedStyle.Render(res.Action)
	default:
		badge = okStyle.Render("ok")
	}

	parts := []string{badge}
	if res.Task != "" {
		parts = append(parts, res.Task)
	}
	if res.Module != "" {
		parts = append(parts, detailStyle.Render("["+res.Module+"]"))
	}
	if res.Failed {
		parts = append(parts, res.Msg)
		return strings.Join(parts, " ")
	}

	if res.Name != "" {
		parts = append(parts, res.Name)
	}
	if res.ID != "" {
		parts = append(parts, detailStyle.Render("id="+res.ID))
	}
	if res.Status != "" && res.Status != model.StatusSkipped {
		parts = append(parts, detailStyle.Render("status="+res.Status))
	}
	if len(res.Addresses) > 0 {
		parts = append(parts, detailStyle.Render("addresses="+strings.Join(res.Addresses, ",")))
	}
	if res.Converged != nil && !*res.Converged {
		parts = append(parts, detailStyle.Render("(not waited)"))
	}

	line := strings.Join(parts, " ")
	if res.Diff != "" {
		line += "\n" + diffStyle.Render(res.Diff)
	}
	return line
}
