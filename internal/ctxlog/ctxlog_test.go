package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	assert.PanicsWithValue(t, "ctxlog: logger missing from context", func() {
		FromContext(context.Background())
	})

	_, ok := Lookup(context.Background())
	assert.False(t, ok)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), logger)
	require.Same(t, logger, FromContext(ctx))

	FromContext(With(ctx, "block", "Extractor")).Info("hello")
	assert.Contains(t, buf.String(), "block=Extractor")
	assert.Contains(t, buf.String(), "msg=hello")
}
