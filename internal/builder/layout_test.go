package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverClusterOutputsFindsConsistentBatch(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"run1-1.tab", "run1-2.tab", "run1-3.tab"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	batch, n, err := DiscoverClusterOutputs(dir)
	require.NoError(t, err)
	assert.Equal(t, "run1", batch)
	assert.Equal(t, 3, n)
}

func TestDiscoverClusterOutputsRejectsInconsistentBatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run1-1.tab"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run2-1.tab"), nil, 0o644))
	_, _, err := DiscoverClusterOutputs(dir)
	require.Error(t, err)
}

func TestDiscoverClusterOutputsRejectsEmptyDir(t *testing.T) {
	dir := t.TempDir()
	_, _, err := DiscoverClusterOutputs(dir)
	require.Error(t, err)
}

func TestLibraryLayoutMkdirAll(t *testing.T) {
	root := t.TempDir()
	lib := LibraryConfig{Name: "lib1", DiseaseStatus: "diseased", Protocol: ProtocolGenome}
	layout := LibraryLayout(root, lib)
	require.NoError(t, layout.MkdirAll())

	for _, dir := range []string{layout.Root, layout.Cluster, layout.Validate, layout.Annotate} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
