package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverLibrariesFindsBamFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib1.bam"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib2.bam"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	hints, err := DiscoverLibraries([]string{dir})
	require.NoError(t, err)
	require.Len(t, hints, 2)
	assert.Equal(t, "lib1", hints[0].Name)
	assert.Equal(t, "lib2", hints[1].Name)
}

func TestWriteStarterConfigIsParseable(t *testing.T) {
	dir := t.TempDir()
	hints := []LibraryHint{{Name: "lib1", Protocol: ProtocolGenome, BamFile: "/data/lib1.bam"}}
	path := filepath.Join(dir, "config.ini")

	require.NoError(t, WriteStarterConfig(path, "/out", "SLURM", "q", 4000, hints))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	cfg, err := ParseConfig(string(data))
	require.NoError(t, err)
	assert.Equal(t, "/out", cfg.Output)
	require.Len(t, cfg.Libraries, 1)
	assert.Equal(t, "lib1", cfg.Libraries[0].Name)
}
