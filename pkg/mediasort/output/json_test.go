package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatter_Format_ValidJSON(t *testing.T) {
	formatter := &JSONFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleSummary())
	require.NoError(t, err)

	var decoded jsonOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "run-2026-03-14T09-30-00-1b9d6bcd", decoded.Run.RunID)
	assert.Equal(t, "/data", decoded.Run.Root)
	assert.Equal(t, []string{"alice"}, decoded.Run.Scopes)
	assert.Equal(t, "preserve", decoded.Run.Mode)
	assert.Equal(t, "completed", decoded.Run.Status)
	assert.Equal(t, "3s", decoded.Run.Elapsed)

	assert.Equal(t, int64(3), decoded.Counts.Scanned)
	assert.Equal(t, int64(1), decoded.Counts.Extracted)
	assert.Equal(t, int64(1), decoded.Counts.Moved)
	assert.Equal(t, int64(1), decoded.Counts.Skipped)
	assert.Equal(t, int64(1), decoded.Counts.Errored)
	assert.Equal(t, int64(1024), decoded.Counts.BytesMoved)
	assert.Equal(t, "1.0 KiB", decoded.Counts.BytesHuman)

	require.Len(t, decoded.Operations, 4)
	assert.Equal(t, "extract", decoded.Operations[0].Kind)
	assert.Equal(t, "move", decoded.Operations[1].Kind)
	assert.True(t, decoded.Operations[1].FromArchive)
	assert.Equal(t, "skip", decoded.Operations[2].Kind)
	assert.Equal(t, "error", decoded.Operations[3].Kind)
	assert.Equal(t, "zip: not a valid zip file", decoded.Operations[3].Error)
}

func TestJSONFormatter_Format_Indented(t *testing.T) {
	formatter := &JSONFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleSummary())
	require.NoError(t, err)

	// Indented output spans multiple lines
	assert.Greater(t, strings.Count(buf.String(), "\n"), 10)
}

func TestJSONFormatter_Format_EmptySummary(t *testing.T) {
	formatter := &JSONFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, emptySummary())
	require.NoError(t, err)

	var decoded jsonOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Empty(t, decoded.Operations)
	assert.Equal(t, int64(0), decoded.Counts.Moved)
}

func TestJSONFormatter_Registration(t *testing.T) {
	formatter, err := Get("json")
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, formatter)
}

func TestJSONLFormatter_Format_OneRecordPerLine(t *testing.T) {
	formatter := &JSONLFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleSummary())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	for _, line := range lines {
		var op jsonOperation
		require.NoError(t, json.Unmarshal([]byte(line), &op), "line: %s", line)
		assert.NotEmpty(t, op.Kind)
		assert.NotEmpty(t, op.Source)
	}
}

func TestJSONLFormatter_Format_EmptySummary(t *testing.T) {
	formatter := &JSONLFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, emptySummary())
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestJSONLFormatter_Registration(t *testing.T) {
	formatter, err := Get("jsonl")
	require.NoError(t, err)
	assert.IsType(t, &JSONLFormatter{}, formatter)
}
