package manifest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/svpipe/internal/ini"
	"github.com/mattsolo1/svpipe/internal/job"
)

func buildSample(t *testing.T) *Manifest {
	t.Helper()
	m := New(General{Output: "/out", Scheduler: "SLURM", Queue: "q", MemoryMB: 4000})

	cluster := &job.Job{Name: "cluster1", Stage: job.StageCluster, Script: "cluster.sh", Status: job.Completed}
	require.NoError(t, m.AddJob(cluster))

	validateBase := job.Job{Name: "validate1", Stage: job.StageValidate, Script: "validate.sh", Dependencies: []string{"cluster1"}}
	validate, err := job.NewArrayJob(validateBase, 3, 0)
	require.NoError(t, err)
	validate.TaskList[0].Status = job.Completed
	validate.TaskList[1].Status = job.Running
	validate.TaskList[2].StatusComment = "queued at 10:00"
	require.NoError(t, m.AddJob(validate))

	annotateBase := job.Job{Name: "annotate1", Stage: job.StageAnnotate, Script: "annotate.sh", Dependencies: []string{"validate1"}}
	annotate, err := job.NewArrayJob(annotateBase, 3, 2)
	require.NoError(t, err)
	require.NoError(t, m.AddJob(annotate))

	pairing := &job.Job{Name: "pairing1", Stage: job.StagePairing, Script: "pairing.sh", Dependencies: []string{"annotate1"}}
	require.NoError(t, m.AddJob(pairing))

	summary := &job.Job{Name: "summary1", Stage: job.StageSummary, Script: "summary.sh", Dependencies: []string{"pairing1"}}
	require.NoError(t, m.AddJob(summary))

	return m
}

func TestRoundTripSerializeDeserialize(t *testing.T) {
	m := buildSample(t)
	f := Serialize(m)

	reparsed, err := Deserialize(f)
	require.NoError(t, err)

	assert.Equal(t, m.General, reparsed.General)
	assert.Equal(t, m.Names(), reparsed.Names())

	original, ok := m.Resolve("validate1")
	require.True(t, ok)
	roundtrip, ok := reparsed.Resolve("validate1")
	require.True(t, ok)

	origArr := original.(*job.ArrayJob)
	rtArr := roundtrip.(*job.ArrayJob)
	assert.Equal(t, origArr.Tasks, rtArr.Tasks)
	for i := range origArr.TaskList {
		assert.Equal(t, origArr.TaskList[i].Status, rtArr.TaskList[i].Status)
		assert.Equal(t, origArr.TaskList[i].StatusComment, rtArr.TaskList[i].StatusComment)
	}
}

func TestRoundTripThroughTextRendering(t *testing.T) {
	m := buildSample(t)
	text := Serialize(m).String()

	f, err := ini.Parse(text)
	require.NoError(t, err)
	reparsed, err := Deserialize(f)
	require.NoError(t, err)

	assert.Equal(t, Serialize(reparsed).String(), text, "deserialize(serialize(M)) must re-serialize identically")
}

func TestWriteReadFile(t *testing.T) {
	m := buildSample(t)
	path := filepath.Join(t.TempDir(), "build.cfg")
	require.NoError(t, Write(path, m))

	reparsed, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, m.Names(), reparsed.Names())
}

func TestAddJobRejectsDuplicateName(t *testing.T) {
	m := New(General{})
	require.NoError(t, m.AddJob(&job.Job{Name: "a"}))
	err := m.AddJob(&job.Job{Name: "a"})
	assert.Error(t, err)
}

func TestBuildManifestParseScenario(t *testing.T) {
	src := `[general]
scheduler = SLURM
output = /out
queue = q

[job1]
name = job1
stage = validate
tasks = 1000

[job2]
name = job2
stage = annotate
dependencies = job1

[job3]
name = job3
stage = pairing
dependencies = job2

[job4]
name = job4
stage = summary
dependencies = job3
`
	f, err := ini.Parse(src)
	require.NoError(t, err)
	m, err := Deserialize(f)
	require.NoError(t, err)

	p, err := BuildPipeline(m)
	require.NoError(t, err)

	require.Len(t, p.Validations, 1)
	assert.Equal(t, "job1", p.Validations[0].JobName())

	require.Len(t, p.Annotations, 1)
	assert.Equal(t, "job2", p.Annotations[0].JobName())

	require.NotNil(t, p.Pairing)
	assert.Equal(t, "job3", p.Pairing.JobName())

	require.NotNil(t, p.Summary)
	assert.Equal(t, []string{"job3"}, p.Summary.Base().Dependencies)
}

func TestReplaceJobResizesArrayJob(t *testing.T) {
	m := buildSample(t)

	resized, err := job.NewArrayJob(job.Job{
		Name:         "validate1",
		Stage:        job.StageValidate,
		Script:       "validate.sh",
		Dependencies: []string{"cluster1"},
	}, 5, 0)
	require.NoError(t, err)

	require.NoError(t, m.ReplaceJob(resized))

	got, ok := m.Resolve("validate1")
	require.True(t, ok)
	assert.Equal(t, 5, got.(*job.ArrayJob).Tasks)
}

func TestReplaceJobRejectsUnknownName(t *testing.T) {
	m := buildSample(t)
	err := m.ReplaceJob(&job.Job{Name: "does_not_exist"})
	assert.Error(t, err)
}

func TestTopologicalOrderRespectsDependencies(t *testing.T) {
	m := buildSample(t)
	order, err := m.TopologicalOrder()
	require.NoError(t, err)

	pos := map[string]int{}
	for i, name := range order {
		pos[name] = i
	}
	assert.Less(t, pos["cluster1"], pos["validate1"])
	assert.Less(t, pos["validate1"], pos["annotate1"])
	assert.Less(t, pos["annotate1"], pos["pairing1"])
	assert.Less(t, pos["pairing1"], pos["summary1"])
}
