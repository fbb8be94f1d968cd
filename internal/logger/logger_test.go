package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureWritesJSONToFile(t *testing.T) {
	defer func() {
		Logger.SetOutput(os.Stdout)
		Logger.SetLevel(logrus.InfoLevel)
	}()

	path := filepath.Join(t.TempDir(), "api.log")
	require.NoError(t, Configure("debug", path))

	LogEvent(logrus.DebugLevel, "Request allowed", logrus.Fields{"endpoint": "GET /api/v1/movies"})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "Request allowed", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "GET /api/v1/movies", entry["endpoint"])
}

func TestConfigureRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Configure("chatty", ""))
}
