package checker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestParseLogEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "empty.log", "")
	d, err := ParseLog(path)
	require.NoError(t, err)
	assert.Equal(t, LogEmpty, d.Status)
}

func TestParseLogSingleLineErrorIsCrash(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "crash.log", "ERROR: segfault\n")
	d, err := ParseLog(path)
	require.NoError(t, err)
	assert.Equal(t, LogCrash, d.Status)
	assert.Equal(t, "ERROR: segfault", d.Message)
}

func TestParseLogZeroRunTimeIsComplete(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "ok.log", "starting\nrun time (s): 0\n")
	d, err := ParseLog(path)
	require.NoError(t, err)
	require.Equal(t, LogComplete, d.Status)
	require.NotNil(t, d.RunTime)
	assert.Equal(t, 0, *d.RunTime)
}

func TestParseLogWithoutRunTimeOrErrorIsIncomplete(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "stuck.log", "step 1\nstep 2\n")
	d, err := ParseLog(path)
	require.NoError(t, err)
	assert.Equal(t, LogIncomplete, d.Status)
}

func TestParseLogRunTimeOutsideLastTenLinesIsIncomplete(t *testing.T) {
	dir := t.TempDir()
	lines := "run time (s): 99\n"
	for i := 0; i < 15; i++ {
		lines += "noise\n"
	}
	path := writeLog(t, dir, "old.log", lines)
	d, err := ParseLog(path)
	require.NoError(t, err)
	assert.Equal(t, LogIncomplete, d.Status)
}
