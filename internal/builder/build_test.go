package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/svpipe/internal/exec"
	"github.com/mattsolo1/svpipe/internal/job"
)

func TestSetupDryModeBuildsSingleLibraryPipeline(t *testing.T) {
	root := t.TempDir()
	cfg := &PipelineConfig{
		Output:          root,
		Scheduler:       "SLURM",
		Queue:           "q",
		DefaultMemoryMB: 4000,
		Conversions:     map[string]ConversionSpec{},
		Libraries: []LibraryConfig{
			{
				Name:          "lib1",
				Protocol:      ProtocolGenome,
				DiseaseStatus: "diseased",
				BamFile:       "/data/lib1.bam",
				Inputs:        []string{"raw.tab"},
			},
		},
	}

	mock := &exec.Mock{}
	m, err := Setup(SetupOptions{Config: cfg, Dry: true, Exec: mock})
	require.NoError(t, err)

	names := m.Names()
	assert.Contains(t, names, "cluster_lib1")
	assert.Contains(t, names, "validate_lib1")
	assert.Contains(t, names, "annotate_lib1")
	assert.Contains(t, names, "pairing")
	assert.Contains(t, names, "summary")

	validateJob, ok := m.Resolve("validate_lib1")
	require.True(t, ok)
	arr, ok := validateJob.(*job.ArrayJob)
	require.True(t, ok)
	assert.Equal(t, 1, arr.Tasks, "dry mode materializes N=1 placeholders")

	pairingJob, ok := m.Resolve("pairing")
	require.True(t, ok)
	assert.Equal(t, []string{"annotate_lib1"}, pairingJob.Base().Dependencies)

	summaryJob, ok := m.Resolve("summary")
	require.True(t, ok)
	assert.Equal(t, []string{"pairing"}, summaryJob.Base().Dependencies)

	// scripts were written to disk
	layout := LibraryLayout(root, cfg.Libraries[0])
	for _, p := range []string{
		filepath.Join(layout.Cluster, "run.sh"),
		filepath.Join(layout.Validate, "run.sh"),
		filepath.Join(layout.Annotate, "run.sh"),
	} {
		_, err := os.Stat(p)
		require.NoError(t, err, "expected script at %s", p)
	}
}

func TestSetupDiscoversRealClusterCount(t *testing.T) {
	root := t.TempDir()
	cfg := &PipelineConfig{
		Output:          root,
		Scheduler:       "SLURM",
		DefaultMemoryMB: 1000,
		Conversions:     map[string]ConversionSpec{},
		Libraries: []LibraryConfig{
			{Name: "lib1", Protocol: ProtocolGenome, DiseaseStatus: "d", BamFile: "x.bam", Inputs: []string{"raw.tab"}},
		},
	}
	layout := LibraryLayout(root, cfg.Libraries[0])
	require.NoError(t, layout.MkdirAll())
	for _, name := range []string{"batch1-1.tab", "batch1-2.tab"} {
		require.NoError(t, os.WriteFile(filepath.Join(layout.Cluster, name), nil, 0o644))
	}

	mock := &exec.Mock{}
	m, err := Setup(SetupOptions{Config: cfg, Dry: false, Exec: mock})
	require.NoError(t, err)

	validateJob, ok := m.Resolve("validate_lib1")
	require.True(t, ok)
	arr := validateJob.(*job.ArrayJob)
	assert.Equal(t, 2, arr.Tasks)
}
