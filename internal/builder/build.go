package builder

import (
	"fmt"
	"path/filepath"

	"github.com/mattsolo1/svpipe/internal/exec"
	"github.com/mattsolo1/svpipe/internal/job"
	"github.com/mattsolo1/svpipe/internal/manifest"
	"github.com/mattsolo1/svpipe/internal/scheduler"
)

// SetupOptions configures a single setup run.
type SetupOptions struct {
	Config *PipelineConfig
	Dry    bool // if true, write N=1 placeholder array jobs instead of discovering N
	Exec   exec.CommandExecutor
}

// Setup runs the Builder end-to-end: resolves conversions, materializes
// the directory layout, emits per-stage scripts, builds the job DAG,
// and returns the resulting Manifest (not yet written to disk — callers
// call manifest.Write separately, keeping in-memory construction
// decoupled from persistence).
func Setup(opts SetupOptions) (*manifest.Manifest, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	adapter, err := scheduler.New(scheduler.Backend(cfg.Scheduler), opts.Exec)
	if err != nil {
		return nil, err
	}

	pairingDir, summaryDir, err := EnsureTopLevelDirs(cfg.Output)
	if err != nil {
		return nil, err
	}

	m := manifest.New(manifest.General{
		Output:         cfg.Output,
		Scheduler:      cfg.Scheduler,
		Queue:          cfg.Queue,
		MemoryMB:       cfg.DefaultMemoryMB,
		SkipValidation: cfg.SkipValidation,
		SkipPairing:    cfg.SkipPairing,
	})

	var annotateNames []string
	var annotatedOutputs []string

	for _, lib := range cfg.Libraries {
		layout := LibraryLayout(cfg.Output, lib)
		if err := layout.MkdirAll(); err != nil {
			return nil, err
		}

		inputs, err := ResolveInputs(opts.Exec, cfg.Output, lib.Inputs, cfg.Conversions)
		if err != nil {
			return nil, err
		}

		n := 1
		batch := lib.Name
		if !opts.Dry {
			discoveredBatch, discoveredN, discErr := DiscoverClusterOutputs(layout.Cluster)
			if discErr == nil {
				batch, n = discoveredBatch, discoveredN
			}
			// If the cluster job has not yet run (directory empty), fall
			// through with the dry placeholder of N=1 until a later
			// invocation re-discovers the real count.
		}

		clusterJobName := fmt.Sprintf("cluster_%s", lib.Name)
		clusterScript := filepath.Join(layout.Cluster, "run.sh")
		clusterCmd := WorkerCommand{
			Program: "svpipe-cluster",
			Flags:   []string{"--output", layout.Cluster, "--library", lib.Name, "--inputs", joinInputs(inputs)},
		}
		if err := EmitScript(clusterScript, adapter, clusterCmd); err != nil {
			return nil, err
		}
		clusterJob := &job.Job{
			Name:      clusterJobName,
			Stage:     job.StageCluster,
			Script:    clusterScript,
			Resources: resourcesFor(cfg, lib, "cluster"),
		}
		if err := m.AddJob(clusterJob); err != nil {
			return nil, err
		}

		if cfg.SkipValidation {
			continue
		}

		validateJobName := fmt.Sprintf("validate_%s", lib.Name)
		validateScript := filepath.Join(layout.Validate, "run.sh")
		validateCmd := ValidationCommand(cfg, lib, inputs, filepath.Join(layout.Cluster, batch+"-${"+adapter.EnvTaskIdent()+"}.tab"), layout.Validate)
		if err := EmitScript(validateScript, adapter, validateCmd); err != nil {
			return nil, err
		}
		validateArr, err := job.NewArrayJob(job.Job{
			Name:         validateJobName,
			Stage:        job.StageValidate,
			Script:       validateScript,
			Resources:    resourcesFor(cfg, lib, "validate"),
			Dependencies: []string{clusterJobName},
		}, n, 0)
		if err != nil {
			return nil, err
		}
		if err := m.AddJob(validateArr); err != nil {
			return nil, err
		}

		annotateJobName := fmt.Sprintf("annotate_%s", lib.Name)
		annotateScript := filepath.Join(layout.Annotate, "run.sh")
		annotateCmd := AnnotateCommand(lib, filepath.Join(layout.Validate, batch+"-${"+adapter.EnvTaskIdent()+"}.tab"), layout.Annotate)
		if err := EmitScript(annotateScript, adapter, annotateCmd); err != nil {
			return nil, err
		}
		annotateArr, err := job.NewArrayJob(job.Job{
			Name:         annotateJobName,
			Stage:        job.StageAnnotate,
			Script:       annotateScript,
			Resources:    resourcesFor(cfg, lib, "annotate"),
			Dependencies: []string{validateJobName},
		}, n, 0)
		if err != nil {
			return nil, err
		}
		if err := m.AddJob(annotateArr); err != nil {
			return nil, err
		}

		annotateNames = append(annotateNames, annotateJobName)
		annotatedOutputs = append(annotatedOutputs, layout.Annotate)
	}

	if !cfg.SkipPairing && len(annotateNames) > 0 {
		pairingScript := filepath.Join(pairingDir, "run.sh")
		pairingCmd := PairingCommand(pairingDir, annotatedOutputs)
		if err := EmitScript(pairingScript, adapter, pairingCmd); err != nil {
			return nil, err
		}
		pairingJob := &job.Job{
			Name:         "pairing",
			Stage:        job.StagePairing,
			Script:       pairingScript,
			Resources:    resourcesFor(cfg, LibraryConfig{}, "pairing"),
			Dependencies: annotateNames,
		}
		if err := m.AddJob(pairingJob); err != nil {
			return nil, err
		}

		summaryScript := filepath.Join(summaryDir, "run.sh")
		summaryCmd := SummaryCommand(summaryDir, pairingDir, cfg.Filters)
		if err := EmitScript(summaryScript, adapter, summaryCmd); err != nil {
			return nil, err
		}
		summaryJob := &job.Job{
			Name:         "summary",
			Stage:        job.StageSummary,
			Script:       summaryScript,
			Resources:    resourcesFor(cfg, LibraryConfig{}, "summary"),
			Dependencies: []string{"pairing"},
		}
		if err := m.AddJob(summaryJob); err != nil {
			return nil, err
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func resourcesFor(cfg *PipelineConfig, lib LibraryConfig, stage string) job.Resources {
	mem := cfg.DefaultMemoryMB
	if lib.MemoryMB != nil {
		if v, ok := lib.MemoryMB[stage]; ok && v > 0 {
			mem = v
		}
	}
	queue := cfg.Queue
	if lib.Queue != nil {
		if v, ok := lib.Queue[stage]; ok && v != "" {
			queue = v
		}
	}
	return job.Resources{MemoryMB: mem, Queue: queue, ImportEnv: true}
}

func joinInputs(inputs []string) string {
	out := ""
	for i, in := range inputs {
		if i > 0 {
			out += " "
		}
		out += in
	}
	return out
}
