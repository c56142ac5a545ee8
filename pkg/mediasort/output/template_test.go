package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateFormatter_Format_DefaultTemplate(t *testing.T) {
	formatter := NewTemplateFormatter(defaultTemplate)
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleSummary())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "extract")
	assert.Contains(t, lines[0], "/data/alice/bundle.zip")
}

func TestTemplateFormatter_Format_CustomTemplate(t *testing.T) {
	formatter := NewTemplateFormatter(`{{.RunID}} moved {{.Moved}} files ({{bytes .BytesMoved}})`)
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleSummary())
	require.NoError(t, err)

	assert.Equal(t, "run-2026-03-14T09-30-00-1b9d6bcd moved 1 files (1.0 KiB)", buf.String())
}

func TestTemplateFormatter_Format_DateFunc(t *testing.T) {
	formatter := NewTemplateFormatter(`{{date .StartedAt "2006-01-02"}}`)
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", buf.String())
}

func TestTemplateFormatter_Format_InvalidTemplate(t *testing.T) {
	formatter := NewTemplateFormatter(`{{.Unclosed`)
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleSummary())
	assert.Error(t, err)
}

func TestTemplateFormatter_SetTemplate(t *testing.T) {
	formatter := NewTemplateFormatter(`first`)
	var buf bytes.Buffer

	require.NoError(t, formatter.Format(&buf, sampleSummary()))
	assert.Equal(t, "first", buf.String())

	formatter.SetTemplate(`second`)
	buf.Reset()
	require.NoError(t, formatter.Format(&buf, sampleSummary()))
	assert.Equal(t, "second", buf.String())
}

func TestTemplateFormatter_Registration(t *testing.T) {
	formatter, err := Get("template")
	require.NoError(t, err)
	assert.IsType(t, &TemplateFormatter{}, formatter)
}
