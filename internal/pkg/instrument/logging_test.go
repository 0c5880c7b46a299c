package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	buf.Reset()
	return m
}

func TestLogHandler_Masking(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newLogHandler(&buf, &Config{ServiceName: "emunotify", MaskFields: []string{" SIG ", "access_token"}}, nil))

	log.Info("unsubscribe", "sig", "deadbeef", "user_id", 7)
	line := decodeLine(t, &buf)
	assert.Equal(t, "***", line["sig"])
	assert.EqualValues(t, 7, line["user_id"])
	assert.Equal(t, "emunotify", line["service"])
	assert.Equal(t, "INFO", line["severity"])
	assert.Contains(t, line["file"], "internal/pkg/instrument/logging_test.go:")

	log.Info("body", "msg_body", `{"access_token":"abc","nested":{"Access_Token":"x"},"ok":1}`)
	line = decodeLine(t, &buf)
	assert.JSONEq(t, `{"access_token":"***","nested":{"Access_Token":"***"},"ok":1}`, line["msg_body"].(string))

	log.With("sig", "s").Info("with attrs", slog.Group("req", slog.String("access_token", "t")))
	line = decodeLine(t, &buf)
	assert.Equal(t, "***", line["sig"])
	assert.Equal(t, map[string]any{"access_token": "***"}, line["req"])

	log.Info("bytes", "payload", []byte(`[{"sig":"a"}]`), "headers", map[string]string{"sig": "b"})
	line = decodeLine(t, &buf)
	assert.JSONEq(t, `[{"sig":"***"}]`, line["payload"].(string))
	assert.Equal(t, map[string]any{"sig": "***"}, line["headers"])
}

func TestLogHandler_CorrelationAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newLogHandler(&buf, &Config{LogLevel: "warn"}, nil))

	log.InfoContext(context.Background(), "dropped")
	assert.Zero(t, buf.Len())

	ctx := SetCorrelationID(context.Background(), "cid-7")
	log.WarnContext(ctx, "kept")
	line := decodeLine(t, &buf)
	assert.Equal(t, "cid-7", line["_cID"])
	assert.NotContains(t, line, "service")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelError, parseLevel(" ERROR "))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, GetCorrelationID(context.Background()))
	assert.Equal(t, "x", GetCorrelationID(SetCorrelationID(context.Background(), "x")))
}
