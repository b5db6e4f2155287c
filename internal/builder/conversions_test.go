package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/svpipe/internal/exec"
)

func TestResolveInputsMaterializesAliasOnce(t *testing.T) {
	root := t.TempDir()
	mock := &exec.Mock{
		ShellFunc: func(commandLine string) (string, error) {
			// Simulate the external conversion command writing its output.
			outPath := filepath.Join(root, ConvertedInputsDir, "delly_calls.tab")
			return "", os.WriteFile(outPath, []byte("converted\n"), 0o644)
		},
	}
	conversions := map[string]ConversionSpec{
		"delly_calls": {Command: "delly-to-tab /data/delly.vcf"},
	}

	resolved, err := ResolveInputs(mock, root, []string{"delly_calls", "raw.tab"}, conversions)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, filepath.Join(root, ConvertedInputsDir, "delly_calls.tab"), resolved[0])
	assert.Equal(t, "raw.tab", resolved[1])
	assert.Len(t, mock.Commands, 1)

	// Second call must not re-run the conversion (idempotent).
	resolved2, err := ResolveInputs(mock, root, []string{"delly_calls"}, conversions)
	require.NoError(t, err)
	assert.Equal(t, resolved[:1], resolved2)
	assert.Len(t, mock.Commands, 1, "conversion must not re-run once its output exists")
}
