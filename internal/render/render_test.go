package render_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/reap-dev/reap/internal/render"
	"github.com/reap-dev/reap/pkg/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []lint.Diagnostic{
	{File: "a.py", Line: 1, Col: 8, RuleID: "RP001", Severity: lint.SeverityWarning, Message: "`os` imported but unused"},
	{File: "b.py", Line: 3, Col: 5, RuleID: "RP005", Severity: lint.SeverityWarning, Message: "code is unreachable"},
}

func TestHumanOutputFormat(t *testing.T) {
	var out bytes.Buffer
	r := render.New(&out, &out, render.ModeText)
	require.NoError(t, r.Diagnostics(sample))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "a.py:1:8: RP001 `os` imported but unused", lines[0])
	assert.Equal(t, "b.py:3:5: RP005 code is unreachable", lines[1])
	assert.Equal(t, "Found 2 issue(s)", lines[2])
}

func TestHumanOutputClean(t *testing.T) {
	var out bytes.Buffer
	r := render.New(&out, &out, render.ModeText)
	require.NoError(t, r.Diagnostics(nil))
	assert.Equal(t, "Found 0 issue(s)\n", out.String())
}

func TestJSONOutput(t *testing.T) {
	var out bytes.Buffer
	r := render.New(&out, &out, render.ModeJSON)
	require.NoError(t, r.Diagnostics(sample))

	var doc struct {
		Count       int `json:"count"`
		Diagnostics []struct {
			File    string `json:"file"`
			Line    int    `json:"line"`
			Col     int    `json:"col"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, 2, doc.Count)
	require.Len(t, doc.Diagnostics, 2)
	assert.Equal(t, "a.py", doc.Diagnostics[0].File)
	assert.Equal(t, 8, doc.Diagnostics[0].Col)
	assert.Equal(t, "RP001", doc.Diagnostics[0].Code)
}

func TestJSONOutputEmpty(t *testing.T) {
	var out bytes.Buffer
	r := render.New(&out, &out, render.ModeJSON)
	require.NoError(t, r.Diagnostics(nil))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.EqualValues(t, 0, doc["count"])
}

func TestPipedOutputHasNoColorCodes(t *testing.T) {
	var out bytes.Buffer
	r := render.New(&out, &out, render.ModeAuto)
	require.NoError(t, r.Diagnostics(sample))
	assert.NotContains(t, out.String(), "\x1b[", "a non-terminal writer must get plain text")
}

func TestSummaryTable(t *testing.T) {
	var out bytes.Buffer
	r := render.New(&out, &out, render.ModeText)
	r.Summary(sample)
	assert.Contains(t, out.String(), "RP001")
	assert.Contains(t, out.String(), "RP005")
}

func TestRulesTable(t *testing.T) {
	var out bytes.Buffer
	r := render.New(&out, &out, render.ModeText)
	require.NoError(t, r.Rules([]lint.RuleInfo{
		{ID: "RP001", Name: "imports.unused", Group: "imports", Description: "Imported name is never used.", Type: "file"},
	}))
	assert.Contains(t, out.String(), "RP001")
	assert.Contains(t, out.String(), "imports.unused")
}
