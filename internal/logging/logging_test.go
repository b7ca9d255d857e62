package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{NoColor: true})
	log.Debug().Msg("hidden")
	log.Info().Str("db", "x.db").Msg("opened")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "opened")
	assert.Contains(t, out, "db=x.db")
	assert.NotContains(t, out, "\x1b[")

	buf.Reset()
	log = New(&buf, Options{Debug: true, NoColor: true})
	log.Debug().Msg("split node")
	assert.Contains(t, buf.String(), "split node")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{JSON: true})
	log.Warn().Int64("bytes", 20).Msg("dropped")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "warn", event["level"])
	assert.Equal(t, "dropped", event["message"])
	assert.EqualValues(t, 20, event["bytes"])
}
