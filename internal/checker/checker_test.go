package checker

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStampAndLog(t *testing.T, dir string, runtimeSeconds int, mod time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	stamp := filepath.Join(dir, CompletionStamp)
	require.NoError(t, os.WriteFile(stamp, nil, 0o644))
	log := filepath.Join(dir, "run.log")
	require.NoError(t, os.WriteFile(log, []byte("done\nrun time (s): "+strconv.Itoa(runtimeSeconds)+"\n"), 0o644))
	require.NoError(t, os.Chtimes(stamp, mod, mod))
	require.NoError(t, os.Chtimes(log, mod, mod))
}

func TestCheckSucceedsOnFullyCompletePipeline(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	libDir := filepath.Join(root, "lib1_diseased_genome")
	writeStampAndLog(t, filepath.Join(libDir, "cluster"), 10, base)
	writeStampAndLog(t, filepath.Join(libDir, "validate", "batch-1"), 20, base.Add(time.Minute))
	writeStampAndLog(t, filepath.Join(libDir, "annotate", "batch-1"), 30, base.Add(2*time.Minute))
	writeStampAndLog(t, filepath.Join(root, "pairing"), 5, base.Add(3*time.Minute))
	writeStampAndLog(t, filepath.Join(root, "summary"), 2, base.Add(4*time.Minute))

	require.NoError(t, os.MkdirAll(filepath.Join(root, "converted_inputs"), 0o755))

	report, err := Check(CheckOptions{OutputRoot: root})
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Empty(t, report.Violations)
	require.Len(t, report.Libraries, 1)
	assert.Equal(t, "lib1_diseased_genome", report.Libraries[0].Name)
	assert.NotContains(t, report.Ignored, "converted_inputs")
}

func TestCheckDetectsOrderingViolation(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	libDir := filepath.Join(root, "lib1_diseased_genome")
	writeStampAndLog(t, filepath.Join(libDir, "cluster"), 10, base)
	writeStampAndLog(t, filepath.Join(libDir, "validate", "batch-1"), 20, base.Add(time.Minute))
	writeStampAndLog(t, filepath.Join(libDir, "annotate", "batch-1"), 30, base.Add(2*time.Minute))
	writeStampAndLog(t, filepath.Join(root, "pairing"), 5, base.Add(3*time.Minute))
	// Summary stamped before pairing: an ordering violation.
	writeStampAndLog(t, filepath.Join(root, "summary"), 2, base.Add(time.Second))

	report, err := Check(CheckOptions{OutputRoot: root})
	require.NoError(t, err)

	assert.False(t, report.Success)
	require.NotEmpty(t, report.Violations)
}

func TestCheckIgnoresUnrecognizedDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "scratch_notes"), 0o755))

	report, err := Check(CheckOptions{OutputRoot: root})
	require.NoError(t, err)
	assert.Contains(t, report.Ignored, "scratch_notes")
	assert.Empty(t, report.Libraries)
}
