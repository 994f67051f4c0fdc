package models

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// BatchQuery is one purposed SQL statement in a generated batch.
type BatchQuery struct {
	Purpose string `json:"purpose"`
	Query   string `json:"query"`
}

// BatchQueryResult is the per-query outcome of batch execution. A failed
// query carries a non-empty Error and empty Data/Columns; the batch as a
// whole still returns one entry per query.
type BatchQueryResult struct {
	Purpose string           `json:"purpose"`
	Data    []map[string]any `json:"data"`
	Columns []string         `json:"columns"`
	Error   string           `json:"error,omitempty"`
}

// Failed reports whether this batch entry failed execution.
func (r *BatchQueryResult) Failed() bool { return r.Error != "" }

// ReportArtifact is the deep-analysis pipeline's final output. Immutable once
// returned.
type ReportArtifact struct {
	RunID            uuid.UUID       `json:"run_id"`
	HTMLContent      string          `json:"html_content"`
	Charts           []ChartWithData `json:"charts"`
	PromptRefinement string          `json:"prompt_refinement,omitempty"`
}

// ReportStyle names a report template and the components its prompts must
// request at every pipeline stage.
type ReportStyle struct {
	Name               string   `yaml:"name" json:"name"`
	Title              string   `yaml:"title" json:"title"`
	RequiredComponents []string `yaml:"required_components" json:"required_components"`
}

// GenericStyleName is the default style. The prompt-refinement stage is
// skipped for it.
const GenericStyleName = "generic"

// IsGeneric reports whether this is the default style.
func (s *ReportStyle) IsGeneric() bool { return s.Name == GenericStyleName }

// StyleRegistry holds the named report styles loaded at startup.
type StyleRegistry struct {
	styles map[string]*ReportStyle
}

// LoadStyles reads report style definitions from a YAML file.
// The generic style is always present even if the file omits it.
func LoadStyles(path string) (*StyleRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read styles file: %w", err)
	}

	var doc struct {
		Styles []*ReportStyle `yaml:"styles"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse styles file: %w", err)
	}

	reg := &StyleRegistry{styles: make(map[string]*ReportStyle, len(doc.Styles)+1)}
	for _, s := range doc.Styles {
		if s.Name == "" {
			return nil, fmt.Errorf("style with empty name in %s", path)
		}
		reg.styles[s.Name] = s
	}
	if _, ok := reg.styles[GenericStyleName]; !ok {
		reg.styles[GenericStyleName] = &ReportStyle{Name: GenericStyleName, Title: "Analysis Report"}
	}

	return reg, nil
}

// NewStyleRegistry builds a registry from explicit styles (for tests).
func NewStyleRegistry(styles ...*ReportStyle) *StyleRegistry {
	reg := &StyleRegistry{styles: make(map[string]*ReportStyle, len(styles)+1)}
	for _, s := range styles {
		reg.styles[s.Name] = s
	}
	if _, ok := reg.styles[GenericStyleName]; !ok {
		reg.styles[GenericStyleName] = &ReportStyle{Name: GenericStyleName, Title: "Analysis Report"}
	}
	return reg
}

// Get returns the named style, falling back to generic for unknown names.
func (r *StyleRegistry) Get(name string) *ReportStyle {
	if s, ok := r.styles[name]; ok {
		return s
	}
	return r.styles[GenericStyleName]
}

// Names returns all registered style names.
func (r *StyleRegistry) Names() []string {
	names := make([]string, 0, len(r.styles))
	for name := range r.styles {
		names = append(names, name)
	}
	return names
}
