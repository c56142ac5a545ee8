package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsFormatter_Format_MoveDestinationsOnly(t *testing.T) {
	formatter := &PathsFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleSummary())
	require.NoError(t, err)

	// The sample has one move; skips, extracts, and errors are omitted.
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, "/data/NonMedia/alice/doc.txt", lines[0])
}

func TestPathsFormatter_Format_EmptySummary(t *testing.T) {
	formatter := &PathsFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, emptySummary())
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestPathsFormatter_Registration(t *testing.T) {
	formatter, err := Get("paths")
	require.NoError(t, err)
	assert.IsType(t, &PathsFormatter{}, formatter)
}

func TestNullFormatter_Format_NullDelimited(t *testing.T) {
	formatter := &NullFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleSummary())
	require.NoError(t, err)

	output := buf.String()
	assert.True(t, strings.HasSuffix(output, "\x00"))

	parts := strings.Split(strings.TrimSuffix(output, "\x00"), "\x00")
	require.Len(t, parts, 1)
	assert.Equal(t, "/data/NonMedia/alice/doc.txt", parts[0])
}

func TestNullFormatter_Registration(t *testing.T) {
	formatter, err := Get("null")
	require.NoError(t, err)
	assert.IsType(t, &NullFormatter{}, formatter)
}
