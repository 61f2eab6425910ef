package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestFromContext_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf)

	ctx := WithContext(context.Background(), logger)

	// Level methods must chain directly off the return value.
	FromContext(ctx).Info().Str("key", "value").Msg("stored logger")

	if !strings.Contains(buf.String(), `"key":"value"`) {
		t.Errorf("expected log output to reach the context logger's writer, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "stored logger") {
		t.Errorf("expected message in output, got %q", buf.String())
	}
}

func TestFromContext_Fallback(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil {
		t.Fatal("expected a fallback logger, got nil")
	}
	// Must be usable without panicking.
	logger.Debug().Msg("fallback logger")
}
