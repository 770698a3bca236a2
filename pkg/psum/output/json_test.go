package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatter_Format(t *testing.T) {
	formatter := &JSONFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleReport())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	outcomes, ok := decoded["outcomes"].([]any)
	require.True(t, ok)
	require.Len(t, outcomes, 5)

	first, ok := outcomes[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/data/a.bin", first["path"])
	assert.Equal(t, "OK", first["status"])
	_, hasErr := first["error"]
	assert.False(t, hasErr, "error field should be omitted for clean outcomes")

	summary, ok := decoded["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), summary["matched"])
	assert.Equal(t, float64(3), summary["failures"])

	meta, ok := decoded["meta"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/data/archive.psum", meta["checksum_file"])
	assert.Equal(t, float64(4), meta["checked"])
	assert.Equal(t, "1.5s", meta["elapsed"])
}

func TestJSONLFormatter_Format(t *testing.T) {
	formatter := &JSONLFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleReport())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)

	for i, line := range lines {
		var obj map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &obj), "line %d is not valid JSON", i)
		assert.NotEmpty(t, obj["path"])
		assert.NotEmpty(t, obj["status"])
	}

	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[4]), &last))
	assert.Equal(t, "EXTRA", last["status"])
}
