package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", "json", &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.WithField("asset_id", "abc").Warn("kept")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "abc", entry["asset_id"])
	assert.Equal(t, "warning", entry["level"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", "TEXT", &buf)
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	logger.Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{name: "Unknown Level", level: "loud", format: "json"},
		{name: "Unknown Format", level: "info", format: "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.level, tt.format, &bytes.Buffer{})
			assert.Error(t, err)
		})
	}
}
