package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}
	return records
}

func TestWithOperation(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	log.WithOperation("op-1", "build").Info("tool started")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "op-1", records[0]["operation_id"])
	assert.Equal(t, "build", records[0]["operation"])
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	log.WithFields(map[string]any{"host": "db.local", "db": "shop"}).Warn("catalog existence check failed")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "db.local", records[0]["host"])
	assert.Equal(t, "shop", records[0]["db"])
}

func TestErrorAddsStack(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	log.Error("boom")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0]["stack"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json")

	log.Info("dropped")
	log.Warn("kept")

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0]["msg"])
}

func TestWriter_SplitsLines(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "json")
	w := log.Writer("tool output")

	_, err := w.Write([]byte("first\r\nsec"))
	require.NoError(t, err)
	_, err = w.Write([]byte("ond\n\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)

	records := decodeLines(t, &buf)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0]["line"])
	assert.Equal(t, "second", records[1]["line"])
}
