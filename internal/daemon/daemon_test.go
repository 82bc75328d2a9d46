package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_WritesPIDFileAndStop_Terminates(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "mdkeeper.pid")

	pid, err := Start([]string{"sleep", "30"}, pidFile)
	require.NoError(t, err)
	assert.Greater(t, pid, 0)

	raw, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	assert.Equal(t, pid, mustAtoi(t, string(raw)))

	status, err := StatusOf(pidFile)
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, pid, status.PID)

	stopped, err := Stop(pidFile, 2*time.Second)
	require.NoError(t, err)
	assert.True(t, stopped)

	_, err = os.Stat(pidFile)
	assert.True(t, os.IsNotExist(err))
}

func TestStart_SecondCallReturnsExistingPID(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "mdkeeper.pid")

	first, err := Start([]string{"sleep", "30"}, pidFile)
	require.NoError(t, err)
	defer Stop(pidFile, 2*time.Second)

	second, err := Start([]string{"sleep", "30"}, pidFile)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStatusOf_NoPIDFileReturnsNotRunning(t *testing.T) {
	status, err := StatusOf(filepath.Join(t.TempDir(), "absent.pid"))
	require.NoError(t, err)
	assert.False(t, status.Running)
}

func TestStop_NoPIDFileReturnsFalse(t *testing.T) {
	stopped, err := Stop(filepath.Join(t.TempDir(), "absent.pid"), time.Second)
	require.NoError(t, err)
	assert.False(t, stopped)
}

func TestReload_NoRunningProcessReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "mdkeeper.pid")
	require.NoError(t, os.WriteFile(pidFile, []byte("999999"), 0o644))

	reloaded, err := Reload(pidFile)
	require.NoError(t, err)
	assert.False(t, reloaded)
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(strings.TrimSpace(s))
	require.NoError(t, err)
	return n
}
