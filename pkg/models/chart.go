package models

// ChartSpec is a declarative chart description derived from a QueryResult and
// the user's question. Colors are assigned deterministically by yKey position,
// never model-chosen.
type ChartSpec struct {
	Type   string            `json:"type"` // "line", "bar", "pie", "area"
	XKey   string            `json:"x_key"`
	YKeys  []string          `json:"y_keys"`
	Colors map[string]string `json:"colors"`
	Legend bool              `json:"legend"`
}

// ChartPalette is the fixed color palette. colors[yKeys[i]] is always
// palette[i % len(palette)] regardless of what the model returns.
var ChartPalette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// ApplyPalette overwrites the color mapping from the fixed palette so chart
// colors are stable across runs.
func (c *ChartSpec) ApplyPalette() {
	c.Colors = make(map[string]string, len(c.YKeys))
	for i, key := range c.YKeys {
		c.Colors[key] = ChartPalette[i%len(ChartPalette)]
	}
	c.Legend = len(c.YKeys) > 1
}

// ChartWithData pairs a chart spec with the rows it plots, for report
// assembly and export collaborators. Purpose ties the chart back to the
// batch query that produced its data.
type ChartWithData struct {
	Purpose string           `json:"purpose"`
	Spec    ChartSpec        `json:"spec"`
	Data    []map[string]any `json:"data"`
}
