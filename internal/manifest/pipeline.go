package manifest

import (
	"fmt"

	"github.com/mattsolo1/svpipe/internal/job"
)

// Pipeline is the stage-grouped view of a Manifest's jobs: every
// clustering/validate/annotate job across all libraries, plus the
// singleton pairing and summary jobs.
type Pipeline struct {
	Clustering  []job.JobLike
	Validations []job.JobLike
	Annotations []job.JobLike
	Pairing     job.JobLike
	Summary     job.JobLike
}

// BuildPipeline groups m's jobs by stage, enforcing that pairing and
// summary are each singletons.
func BuildPipeline(m *Manifest) (*Pipeline, error) {
	p := &Pipeline{}
	for _, name := range m.Names() {
		j := m.jobs[name]
		switch j.Base().Stage {
		case job.StageCluster:
			p.Clustering = append(p.Clustering, j)
		case job.StageValidate:
			p.Validations = append(p.Validations, j)
		case job.StageAnnotate:
			p.Annotations = append(p.Annotations, j)
		case job.StagePairing:
			if p.Pairing != nil {
				return nil, fmt.Errorf("manifest: more than one pairing job (%q and %q)", p.Pairing.JobName(), j.JobName())
			}
			p.Pairing = j
		case job.StageSummary:
			if p.Summary != nil {
				return nil, fmt.Errorf("manifest: more than one summary job (%q and %q)", p.Summary.JobName(), j.JobName())
			}
			p.Summary = j
		default:
			return nil, fmt.Errorf("manifest: job %q has unrecognized stage %q", j.JobName(), j.Base().Stage)
		}
	}
	return p, nil
}
