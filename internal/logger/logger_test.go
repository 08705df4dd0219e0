package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New("warn", &buf)

	l.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	l.Warn().Str("key", "checkout").Msg("shown")
	assert.Contains(t, buf.String(), `"key":"checkout"`)
	assert.Contains(t, buf.String(), `"time":`)
}

func TestNewUnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New("loud", &buf)

	l.Debug().Msg("hidden")
	l.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), New("debug", &buf))

	FromContext(ctx).Debug().Msg("from context")
	assert.Contains(t, buf.String(), "from context")
}
