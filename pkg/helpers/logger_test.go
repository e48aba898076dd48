package helpers

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_StampsAppAndEnv(t *testing.T) {
	logger := NewLogger("task-manager", "production")
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	LogWarn(logger, "mirror failed", errors.New("bucket gone"), logrus.Fields{"user_id": "u1"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "task-manager", entry["app"])
	assert.Equal(t, "production", entry["env"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "bucket gone", entry["error"])
	assert.Equal(t, "warning", entry["level"])
}

func TestLogInfo_NilFields(t *testing.T) {
	logger := NewLogger("task-manager", "staging")
	var buf bytes.Buffer
	logger.SetOutput(&buf)

	LogInfo(logger, "ready", nil)
	assert.Contains(t, buf.String(), `"msg":"ready"`)
}
