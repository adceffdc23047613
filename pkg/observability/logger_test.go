package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("plan_code", "PRO").Info("subscription created")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "subscription created", entry["msg"])
	assert.Equal(t, "PRO", entry["plan_code"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Info("not logged")
	assert.Empty(t, buf.String())

	logger.Warnf("seat count %d suspicious", 9000)
	assert.Contains(t, buf.String(), "seat count 9000 suspicious")
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithError(errors.New("boom")).Error("operation failed")
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	logger.WithError(nil).Info("no error field")
	assert.NotContains(t, buf.String(), `"error"`)
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequestID(ctx, "req_42")

	FromContext(ctx).Info("handled")

	assert.Contains(t, buf.String(), "req_42")
	assert.Equal(t, "req_42", GetRequestID(ctx))
}

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	func() {
		defer RecoverPanic(logger, "test op")
		panic("kaboom")
	}()

	assert.Contains(t, buf.String(), "kaboom")
	assert.Contains(t, buf.String(), "test op")
}

func TestMustRecover(t *testing.T) {
	assert.NoError(t, MustRecover(nil))
	assert.EqualError(t, MustRecover("oops"), "panic: oops")
}
