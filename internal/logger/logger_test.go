package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false, "json")
	l.Debug().Msg("hidden")
	l.Info().Str("sample", "sample0").Msg("built")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "built", entry["message"])
	require.Equal(t, "sample0", entry["sample"])
}

func TestNewVerboseConsole(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true, "console")
	l.Debug().Msg("visible")
	require.Contains(t, buf.String(), "visible")
}
