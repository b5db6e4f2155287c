package builder

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mattsolo1/svpipe/internal/errs"
	"github.com/mattsolo1/svpipe/internal/exec"
)

// ConvertedInputsDir is the fixed subdirectory name for materialized
// conversion output.
const ConvertedInputsDir = "converted_inputs"

// ResolveInputs turns a library's raw input list into absolute file
// paths, materializing any aliased conversion exactly once (idempotent:
// a conversion whose output file already exists is not re-run). Raw
// paths and globs that are not aliases in the conversion table pass
// through unchanged.
func ResolveInputs(execCmd exec.CommandExecutor, outputRoot string, inputs []string, conversions map[string]ConversionSpec) ([]string, error) {
	convDir := filepath.Join(outputRoot, ConvertedInputsDir)
	if err := os.MkdirAll(convDir, 0o755); err != nil {
		return nil, errs.Wrap(errs.UserInput, err, "creating %s", convDir)
	}

	resolved := make([]string, 0, len(inputs))
	for _, in := range inputs {
		spec, isAlias := conversions[in]
		if !isAlias {
			resolved = append(resolved, in)
			continue
		}
		outPath := filepath.Join(convDir, in+".tab")
		if _, err := os.Stat(outPath); err == nil {
			resolved = append(resolved, outPath)
			continue
		} else if !os.IsNotExist(err) {
			return nil, errs.Wrap(errs.UserInput, err, "checking conversion output %s", outPath)
		}

		if err := materializeConversion(execCmd, spec, outPath); err != nil {
			return nil, err
		}
		resolved = append(resolved, outPath)
	}
	return resolved, nil
}

// materializeConversion runs a single conversion to completion,
// synchronously, aborting setup on failure.
func materializeConversion(execCmd exec.CommandExecutor, spec ConversionSpec, outPath string) error {
	if spec.Tool != "" {
		args := append([]string{"convert", spec.Tool}, spec.Params...)
		args = append(args, "-o", outPath)
		if _, err := execCmd.Output("svpipe-convert", args...); err != nil {
			return errs.Wrap(errs.UserInput, err, "converting input via built-in tool %q", spec.Tool)
		}
		return nil
	}
	commandLine := strings.TrimSpace(spec.Command) + " -o " + outPath
	if _, err := execCmd.Shell(commandLine); err != nil {
		return errs.Wrap(errs.UserInput, err, "running conversion command %q", commandLine)
	}
	return nil
}
