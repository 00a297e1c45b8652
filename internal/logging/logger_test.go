package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, INFO, ParseLevel("info"))
	assert.Equal(t, WARN, ParseLevel("warn"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel(""))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestNewTraceID(t *testing.T) {
	first := NewTraceID()
	second := NewTraceID()

	require.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestWithTrace(t *testing.T) {
	ctx := WithTrace(context.Background(), "trace-123")

	logger := &StructuredLogger{}
	assert.Equal(t, "trace-123", logger.extractTraceID(ctx))
	assert.Empty(t, logger.extractTraceID(context.Background()))
}

func TestLogger_WithTraceIDAndComponent(t *testing.T) {
	base := NewLogger(INFO).(*StructuredLogger)

	traced := base.WithTraceID("trace-9").(*StructuredLogger)
	assert.Equal(t, "trace-9", traced.traceID)
	assert.Empty(t, base.traceID, "the base logger is unchanged")

	scoped := traced.WithComponent("suggest").(*StructuredLogger)
	assert.Equal(t, "suggest", scoped.component)
	assert.Equal(t, "trace-9", scoped.traceID, "trace carries through component scoping")
}
