package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/svpipe/internal/checker"
)

func TestRenderPlainTextNoColorCodes(t *testing.T) {
	rt := 42
	r := &checker.PipelineReport{
		OutputRoot: "/out",
		Success:    true,
		Libraries: []*checker.LibraryReport{
			{
				Name:    "lib1_diseased_genome",
				Success: true,
				Cluster: &checker.StageReport{
					Stage: checker.StageCluster,
					Tasks: map[int]checker.TaskReport{1: {Index: 1, Status: checker.TaskComplete, RunTime: &rt}},
				},
				MaxRunTime:   &rt,
				TotalRunTime: &rt,
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "lib1_diseased_genome")
	assert.Contains(t, out, "COMPLETE")
	assert.Contains(t, out, "pipeline complete")
	assert.False(t, strings.Contains(out, "\x1b["), "plain Render must not emit ANSI escapes")
}

func TestRenderReportsFailureAndViolations(t *testing.T) {
	r := &checker.PipelineReport{
		OutputRoot: "/out",
		Success:    false,
		Libraries: []*checker.LibraryReport{
			{Name: "lib1_diseased_genome", Success: false},
		},
		Violations: []checker.OrderingViolation{
			{Library: "lib1_diseased_genome", Task: 1, Detail: "annotate stamp precedes validate stamp"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "annotate stamp precedes validate stamp")
	assert.Contains(t, out, "pipeline incomplete")
}

func TestRenderMultiTaskStageCollapsesRanges(t *testing.T) {
	r := &checker.PipelineReport{
		OutputRoot: "/out",
		Libraries: []*checker.LibraryReport{
			{
				Name: "lib1_diseased_genome",
				Validate: &checker.StageReport{
					Stage: checker.StageValidate,
					Tasks: map[int]checker.TaskReport{
						1: {Index: 1, Status: checker.TaskComplete},
						2: {Index: 2, Status: checker.TaskComplete},
						3: {Index: 3, Status: checker.TaskCrash},
					},
				},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r))
	out := buf.String()
	assert.Contains(t, out, "1-2")
	assert.Contains(t, out, "CRASH: 3")
}
