package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/convergo/internal/model"
)

func TestWriteResultFormats(t *testing.T) {
	res := model.Result{Module: "hosts", Changed: true, Action: "update", Name: "web", Diff: "-a\n+b"}

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, outputJSON, res))
	require.Contains(t, buf.String(), `"action": "update"`)

	buf.Reset()
	require.NoError(t, writeResult(&buf, outputYAML, res))
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "update", decoded["action"])
	require.Equal(t, true, decoded["changed"])

	buf.Reset()
	require.NoError(t, writeResult(&buf, outputText, res))
	require.Contains(t, buf.String(), "update")
	require.Contains(t, buf.String(), "web")
	require.Contains(t, buf.String(), "+b")
}

func TestRenderTextBadges(t *testing.T) {
	unconfirmed := false

	tests := []struct {
		name string
		res  model.Result
		want []string
	}{
		{name: "failed", res: model.Result{Failed: true, Msg: "boom"}, want: []string{"failed", "boom"}},
		{name: "check", res: model.Result{Changed: true, Check: true, Action: "delete"}, want: []string{"would delete"}},
		{name: "skipped", res: model.Result{Task: "later", Status: model.StatusSkipped}, want: []string{"skipped", "later"}},
		{name: "ok", res: model.Result{Name: "web-1", ID: "srv-1"}, want: []string{"ok", "web-1", "id=srv-1"}},
		{name: "unconfirmed", res: model.Result{Changed: true, Action: "create", Converged: &unconfirmed}, want: []string{"create", "not waited"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := renderText(tt.res)
			for _, want := range tt.want {
				require.Contains(t, out, want)
			}
		})
	}
}

func TestWriteSummaryTextTotals(t *testing.T) {
	summary := model.NewRunSummary(2)
	summary.Add(model.Result{Task: "one", Changed: true, Action: "create"})
	summary.Skip("two", "rax")

	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, outputText, summary))
	require.Contains(t, buf.String(), "total=2 changed=1 ok=0 failed=0 skipped=1")
}
