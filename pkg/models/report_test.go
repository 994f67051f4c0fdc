package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStyles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "styles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
styles:
  - name: downtime_analysis
    title: Downtime Analysis Report
    required_components:
      - failure patterns
      - root causes
      - recovery procedures
  - name: oee_report
    title: OEE Report
    required_components:
      - availability
      - performance
      - quality
`), 0o600))

	reg, err := LoadStyles(path)
	require.NoError(t, err)

	downtime := reg.Get("downtime_analysis")
	assert.Equal(t, "Downtime Analysis Report", downtime.Title)
	assert.Len(t, downtime.RequiredComponents, 3)
	assert.False(t, downtime.IsGeneric())

	// Generic always present, and unknown names fall back to it.
	assert.True(t, reg.Get("generic").IsGeneric())
	assert.True(t, reg.Get("no-such-style").IsGeneric())
}

func TestLoadStylesMissingFile(t *testing.T) {
	_, err := LoadStyles("/nonexistent/styles.yaml")
	assert.Error(t, err)
}

func TestChartSpecApplyPalette(t *testing.T) {
	spec := &ChartSpec{
		Type:  "line",
		XKey:  "month",
		YKeys: []string{"amount", "count"},
		// Model-chosen colors must be overwritten.
		Colors: map[string]string{"amount": "#123456"},
	}
	spec.ApplyPalette()

	assert.Equal(t, ChartPalette[0], spec.Colors["amount"])
	assert.Equal(t, ChartPalette[1], spec.Colors["count"])
	assert.True(t, spec.Legend)

	// Deterministic across repeated calls.
	again := *spec
	again.ApplyPalette()
	assert.Equal(t, spec.Colors, again.Colors)
}

func TestChartSpecSingleSeriesNoLegend(t *testing.T) {
	spec := &ChartSpec{Type: "bar", XKey: "month", YKeys: []string{"amount"}}
	spec.ApplyPalette()
	assert.False(t, spec.Legend)
}
