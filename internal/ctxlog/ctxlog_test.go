package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContextFallsBack(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New("debug", "json", &buf)
	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Debug("hello", "node", 3)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"node":3`)
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New("warn", "text", &buf)
	l.Info("quiet")
	l.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
