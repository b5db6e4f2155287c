package builder

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/mattsolo1/svpipe/internal/errs"
)

// Layout resolves every directory path the Builder and later the
// completion checker care about for a single library.
type Layout struct {
	Root     string // <output>/<lib>_<disease>_<protocol>
	Cluster  string
	Validate string
	Annotate string
}

// LibraryLayout returns the directory layout for lib under outputRoot.
func LibraryLayout(outputRoot string, lib LibraryConfig) Layout {
	root := filepath.Join(outputRoot, LibraryDirName(lib))
	return Layout{
		Root:     root,
		Cluster:  filepath.Join(root, "cluster"),
		Validate: filepath.Join(root, "validate"),
		Annotate: filepath.Join(root, "annotate"),
	}
}

// MkdirAll creates every directory in the layout. The shared top-level
// output directories are created by EnsureTopLevelDirs, not here.
func (l Layout) MkdirAll() error {
	for _, dir := range []string{l.Root, l.Cluster, l.Validate, l.Annotate} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(errs.UserInput, err, "creating directory %s", dir)
		}
	}
	return nil
}

// EnsureTopLevelDirs creates the pipeline-wide directories shared across
// libraries: converted_inputs/, pairing/, summary/.
func EnsureTopLevelDirs(outputRoot string) (pairingDir, summaryDir string, err error) {
	pairingDir = filepath.Join(outputRoot, "pairing")
	summaryDir = filepath.Join(outputRoot, "summary")
	for _, dir := range []string{filepath.Join(outputRoot, ConvertedInputsDir), pairingDir, summaryDir} {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return "", "", errs.Wrap(errs.UserInput, mkErr, "creating directory %s", dir)
		}
	}
	return pairingDir, summaryDir, nil
}

// TaskDir returns the per-task subdirectory "<stageDir>/<batch>-<k>".
func TaskDir(stageDir, batch string, k int) string {
	return filepath.Join(stageDir, batchTaskName(batch, k))
}

func batchTaskName(batch string, k int) string {
	return batch + "-" + strconv.Itoa(k)
}

// clusterOutputPattern matches the cluster stage's discovered output
// files "<batch>-<k>.tab".
var clusterOutputPattern = regexp.MustCompile(`^(?P<batch>.+)-(?P<k>\d+)\.tab$`)

// DiscoverClusterOutputs inspects clusterDir after the cluster job
// completes and returns the shared batch prefix and the discovered task
// count N, reading filenames of the form "<batch>-<k>.tab" for k in
// 1..N. Returns an error if the directory holds no matching files or if
// more than one batch prefix is present — every library must settle on
// a single consistent prefix.
func DiscoverClusterOutputs(clusterDir string) (batch string, n int, err error) {
	entries, readErr := os.ReadDir(clusterDir)
	if readErr != nil {
		return "", 0, errs.Wrap(errs.UserInput, readErr, "reading cluster output directory %s", clusterDir)
	}

	maxK := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := clusterOutputPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		b := m[1]
		k, convErr := strconv.Atoi(m[2])
		if convErr != nil {
			continue
		}
		if batch == "" {
			batch = b
		} else if batch != b {
			return "", 0, errs.New(errs.Structural, "cluster output directory %s has inconsistent batch prefixes %q and %q", clusterDir, batch, b)
		}
		if k > maxK {
			maxK = k
		}
	}
	if batch == "" {
		return "", 0, errs.New(errs.UserInput, "cluster output directory %s has no matching <batch>-<k>.tab files", clusterDir)
	}
	return batch, maxK, nil
}
