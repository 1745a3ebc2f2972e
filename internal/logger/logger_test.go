package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.WithField("component", "fetcher").WithError(errors.New("boom")).Errorf("cycle %s failed", "abc")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cycle abc failed", entry["msg"])
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "fetcher", entry["component"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("warn", &buf)

	log.Debugf("hidden")
	log.Infof("hidden")
	assert.Empty(t, buf.String())

	log.Warnf("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("loud", &buf)

	log.Debugf("hidden")
	assert.Empty(t, buf.String())
	log.Infof("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNew(t *testing.T) {
	assert.NotNil(t, New("debug", "development"))
	assert.NotNil(t, New("info", "production"))
	assert.NotNil(t, Nop())
}
