package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertSetToRangesCollapsesRuns(t *testing.T) {
	in := setOf(1, 2, 3, 7, 9, 10, 11)
	assert.Equal(t, "1-3, 7, 9-11", ConvertSetToRanges(in))
}

func TestConvertSetToRangesEmpty(t *testing.T) {
	assert.Equal(t, "", ConvertSetToRanges(setOf()))
}

func TestParseRangesRoundTrips(t *testing.T) {
	in := setOf(1, 2, 3, 7, 9, 10, 11)
	out, err := ParseRanges(ConvertSetToRanges(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
