package paycalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The breakdown document is a map; the response must present it in a fixed
// order regardless: EPF first, SOCSO-prefixed codes next, the rest
// alphabetically.
func TestMapBreakdownToResponse_PresentationOrder(t *testing.T) {
	breakdown := map[string]DeductionSnapshot{
		"ZAKAT":         {},
		"SOCSO_FOREIGN": {},
		"ADVANCE":       {},
		"EPF":           {},
		"SOCSO":         {},
	}

	entries := mapBreakdownToResponse(breakdown)

	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		codes = append(codes, e.Code)
	}
	assert.Equal(t, []string{"EPF", "SOCSO", "SOCSO_FOREIGN", "ADVANCE", "ZAKAT"}, codes)
}

func TestMapBreakdownToResponse_Empty(t *testing.T) {
	entries := mapBreakdownToResponse(map[string]DeductionSnapshot{})
	require.NotNil(t, entries)
	assert.Empty(t, entries)
}
