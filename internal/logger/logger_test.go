package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/config"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(config.LoggerConfig{Level: "warn"}, "gs", &buf)
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "gs: shown")

	lvl, ok := parseLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, hclog.Debug, lvl)
}

func TestUnknownLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(config.LoggerConfig{Level: "loud"}, "gs", &buf)
	assert.Contains(t, buf.String(), "unknown log level")
	assert.True(t, l.IsInfo())
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	NewWithOutput(config.LoggerConfig{JSON: true}, "gs", &buf).Info("started", "port", 8080)
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "started", line["@message"])
	assert.EqualValues(t, 8080, line["port"])
}
