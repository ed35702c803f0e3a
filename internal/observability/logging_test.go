package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")
	ctx = WithStage(ctx, "collect")
	ctx = WithTrigger(ctx, "watch")

	lc := GetContext(ctx)
	assert.Equal(t, LogContext{RunID: "run-123", Stage: "collect", Trigger: "watch"}, lc)

	ctx = WithStage(ctx, "hooks")
	assert.Equal(t, "hooks", GetContext(ctx).Stage)
	assert.Equal(t, "run-123", GetContext(ctx).RunID)
}

func TestAttrs_EmptyContext(t *testing.T) {
	assert.Empty(t, Attrs(context.Background()))
	assert.Len(t, Attrs(context.Background(), slog.Int("n", 1)), 1)
}

func TestLog_WritesContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := WithStage(WithRunID(context.Background(), "abc"), "write")
	Log(ctx, logger, slog.LevelInfo, "Stage completed", slog.Int("files", 3))

	out := buf.String()
	assert.Contains(t, out, "run_id=abc")
	assert.Contains(t, out, "stage=write")
	assert.Contains(t, out, "files=3")
	assert.Contains(t, out, `msg="Stage completed"`)
}
