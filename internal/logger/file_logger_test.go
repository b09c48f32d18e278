package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir replicates testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLogger_WritesSessionFile(t *testing.T) {
	chdir(t, t.TempDir())

	l, err := NewLogger("unit")
	require.NoError(t, err)

	l.Info("hello %s", "world")
	l.Warn("careful")
	l.Risk("strategy %d disabled: %s", 3, "daily_loss")
	l.Signal("momentum", 1, 0.8, 25, 100.5)
	require.NoError(t, l.Close())

	path := filepath.Join("logs", "unit_"+time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "TRADING SESSION STARTED")
	assert.Contains(t, content, "[INFO] hello world")
	assert.Contains(t, content, "[WARN] careful")
	assert.Contains(t, content, "[RISK] strategy 3 disabled: daily_loss")
	assert.Contains(t, content, "[SIGNAL] momentum symbol=1")
}

func TestLogger_CloseIsIdempotent(t *testing.T) {
	chdir(t, t.TempDir())

	l, err := NewLogger("unit")
	require.NoError(t, err)
	require.NoError(t, l.Close())
	assert.NoError(t, l.Close())
}

func TestLogger_AppendsAcrossSessions(t *testing.T) {
	chdir(t, t.TempDir())

	first, err := NewLogger("unit")
	require.NoError(t, err)
	first.Info("first run")
	require.NoError(t, first.Close())

	second, err := NewLogger("unit")
	require.NoError(t, err)
	second.Info("second run")
	require.NoError(t, second.Close())

	path := filepath.Join("logs", "unit_"+time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(string(data), "TRADING SESSION STARTED"))
	assert.Contains(t, string(data), "first run")
	assert.Contains(t, string(data), "second run")
}
