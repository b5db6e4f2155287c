package ini

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReadsSectionsAndKeys(t *testing.T) {
	src := "[general]\nscheduler = SLURM\n\n[job:cluster]\nscript = cluster.sh\nstatus = SUBMITTED\n"
	f, err := Parse(src)
	require.NoError(t, err)

	general := f.Section("general")
	v, ok := general.Get("scheduler")
	require.True(t, ok)
	assert.Equal(t, "SLURM", v)

	job := f.Section("job:cluster")
	v, ok = job.Get("status")
	require.True(t, ok)
	assert.Equal(t, "SUBMITTED", v)

	assert.Equal(t, []string{"general", "job:cluster"}, f.Sections())
}

func TestParseRejectsKeyOutsideSection(t *testing.T) {
	_, err := Parse("scheduler = SLURM\n")
	require.Error(t, err)
}

func TestParseRejectsMalformedLine(t *testing.T) {
	_, err := Parse("[general]\nnotakeyvalue\n")
	require.Error(t, err)
}

func TestParseIgnoresCommentsAndBlankLines(t *testing.T) {
	src := "# a comment\n\n[general]\n; also a comment\nscheduler = SGE\n"
	f, err := Parse(src)
	require.NoError(t, err)
	v, ok := f.Section("general").Get("scheduler")
	require.True(t, ok)
	assert.Equal(t, "SGE", v)
}

func TestWriteFileIsAtomicAndReadable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build.cfg")

	f := New()
	f.Section("general").Set("scheduler", "TORQUE")

	require.NoError(t, f.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	reparsed, err := Parse(string(data))
	require.NoError(t, err)
	v, ok := reparsed.Section("general").Get("scheduler")
	require.True(t, ok)
	assert.Equal(t, "TORQUE", v)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover temp file should remain")
}
