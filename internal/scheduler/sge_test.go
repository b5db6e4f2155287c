package scheduler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/svpipe/internal/exec"
	"github.com/mattsolo1/svpipe/internal/job"
)

func TestSgeSubmitArrayJob(t *testing.T) {
	mock := &exec.Mock{
		ShellFunc: func(commandLine string) (string, error) {
			return "Your job-array 321.1-100:1 (\"validate\") has been submitted\n", nil
		},
	}
	adapter, err := New(SGE, mock)
	require.NoError(t, err)

	base := job.Job{Name: "validate", Script: "validate.sh"}
	arr, err := job.NewArrayJob(base, 100, 10)
	require.NoError(t, err)

	err = adapter.Submit(fakeResolver{}, arr, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "321", arr.JobIdent)

	require.Len(t, mock.Commands, 1)
	assert.Contains(t, mock.Commands[0], "-t 1-100")
	assert.Contains(t, mock.Commands[0], "-tc 10")
}

func TestSgeConvertStateUnknownCharErrors(t *testing.T) {
	_, err := convertState("Zqw")
	require.Error(t, err)
}

func TestSgeConvertStateFoldsWorstWins(t *testing.T) {
	st, err := convertState("Eqw")
	require.NoError(t, err)
	assert.Equal(t, job.Error, st)
}

func TestSgeConvertStateMapsSAndTToError(t *testing.T) {
	st, err := convertState("s")
	require.NoError(t, err)
	assert.Equal(t, job.Error, st)

	st, err = convertState("T")
	require.NoError(t, err)
	assert.Equal(t, job.Error, st)
}

func TestSgeUpdateParsesQstat(t *testing.T) {
	mock := &exec.Mock{
		OutputFunc: func(name string, arg ...string) (string, error) {
			return strings.Join([]string{
				"job-ID  prior   name       user         state submit/start at     queue",
				"-----------------------------------------------------------------",
				"   555 0.50000 myjob      me           r     07/31/2026 10:00:00 all.q",
			}, "\n"), nil
		},
	}
	adapter, err := New(SGE, mock)
	require.NoError(t, err)

	j := &job.Job{Name: "myjob", JobIdent: "555"}
	require.NoError(t, adapter.Update(j))
	assert.Equal(t, job.Running, j.Status)
}

func TestSgeCancel(t *testing.T) {
	mock := &exec.Mock{}
	adapter, err := New(SGE, mock)
	require.NoError(t, err)

	j := &job.Job{Name: "myjob", JobIdent: "555"}
	require.NoError(t, adapter.Cancel(j))
	assert.Equal(t, "", j.JobIdent)
	assert.Contains(t, mock.Commands[0], "qdel 555")
}
