package builder

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/svpipe/internal/exec"
	"github.com/mattsolo1/svpipe/internal/job"
	"github.com/mattsolo1/svpipe/internal/manifest"
)

func TestSubmitSubmitsInTopologicalOrderAndPersists(t *testing.T) {
	root := t.TempDir()
	cfg := &PipelineConfig{
		Output:          root,
		Scheduler:       "SLURM",
		Queue:           "q",
		DefaultMemoryMB: 4000,
		Conversions:     map[string]ConversionSpec{},
		Libraries: []LibraryConfig{
			{Name: "lib1", Protocol: ProtocolGenome, DiseaseStatus: "diseased", BamFile: "x.bam", Inputs: []string{"raw.tab"}},
		},
	}

	setupMock := &exec.Mock{}
	m, err := Setup(SetupOptions{Config: cfg, Dry: true, Exec: setupMock})
	require.NoError(t, err)
	require.NoError(t, manifest.Write(filepath.Join(root, ManifestFile), m))

	var submitted []string
	id := 1000
	submitMock := &exec.Mock{
		OutputFunc: func(name string, arg ...string) (string, error) {
			submitted = append(submitted, name)
			id++
			return "Submitted batch job " + strconv.Itoa(id), nil
		},
	}

	result, err := Submit(SubmitOptions{OutputRoot: root, Exec: submitMock})
	require.NoError(t, err)

	for _, name := range []string{"cluster_lib1", "validate_lib1", "annotate_lib1", "pairing", "summary"} {
		j, ok := result.Resolve(name)
		require.True(t, ok, name)
		assert.Equal(t, job.Submitted, j.Base().Status, name)
		assert.NotEmpty(t, j.Base().JobIdent, name)
	}

	data, err := os.ReadFile(filepath.Join(root, ManifestFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "status = SUBMITTED")
}

func TestSubmitRediscoversClusterTaskCount(t *testing.T) {
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

	setupMock := &exec.Mock{}
	m, err := Setup(SetupOptions{Config: cfg, Dry: true, Exec: setupMock})
	require.NoError(t, err)

	clusterJob, ok := m.Resolve("cluster_lib1")
	require.True(t, ok)
	clusterJob.Base().Status = job.Completed
	clusterJob.Base().JobIdent = "500"

	clusterDir := filepath.Dir(clusterJob.Base().Script)
	for _, name := range []string{"batch1-1.tab", "batch1-2.tab", "batch1-3.tab"} {
		require.NoError(t, os.WriteFile(filepath.Join(clusterDir, name), nil, 0o644))
	}
	require.NoError(t, manifest.Write(filepath.Join(root, ManifestFile), m))

	submitMock := &exec.Mock{
		OutputFunc: func(name string, arg ...string) (string, error) {
			return "Submitted batch job 999", nil
		},
	}
	result, err := Submit(SubmitOptions{OutputRoot: root, Exec: submitMock})
	require.NoError(t, err)

	validateJob, ok := result.Resolve("validate_lib1")
	require.True(t, ok)
	assert.Equal(t, 3, validateJob.(*job.ArrayJob).Tasks)

	annotateJob, ok := result.Resolve("annotate_lib1")
	require.True(t, ok)
	assert.Equal(t, 3, annotateJob.(*job.ArrayJob).Tasks)
}
