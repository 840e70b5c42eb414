package pipeline

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/wikiqid/internal/model"
)

// AbsentMarker is printed in text mode when no identifier was resolved
const AbsentMarker = "none"

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Renderer writes resolutions in one output format
type Renderer struct {
	format string
}

// NewRenderer creates a renderer, rejecting unknown formats
func NewRenderer(format string) (*Renderer, error) {
	switch format {
	case "", FormatText:
		return &Renderer{format: FormatText}, nil
	case FormatJSON, FormatYAML:
		return &Renderer{format: format}, nil
	default:
		return nil, model.NewValidationError("format", format, "must be one of text, json, yaml")
	}
}

// Render writes res to w
func (r *Renderer) Render(w io.Writer, res *model.Resolution) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	default:
		if _, err := fmt.Fprintln(w, TextLine(res)); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}

// RenderSummary writes a human-readable breakdown, used for verbose output
func (r *Renderer) RenderSummary(w io.Writer, res *model.Resolution) {
	fmt.Fprintf(w, "Title:          %s\n", res.Title)
	if res.ResolvedTitle != res.Title {
		fmt.Fprintf(w, "Resolved title: %s\n", res.ResolvedTitle)
	}
	if res.NormalizedTitle != "" {
		fmt.Fprintf(w, "Normalized:     %s\n", res.NormalizedTitle)
	}
	if res.Fragment != "" {
		fmt.Fprintf(w, "Fragment:       %s\n", res.Fragment)
	}
	if res.PageMissing {
		fmt.Fprintln(w, "Page:           missing on Wikipedia")
	}
	fmt.Fprintf(w, "Variant:        %s\n", res.Variant)
	fmt.Fprintf(w, "Status:         %s\n", res.Status)
	if res.Label != "" {
		fmt.Fprintf(w, "Label:          %s\n", res.Label)
	}
	if res.SitelinkTitle != "" {
		fmt.Fprintf(w, "Sitelink:       %s\n", res.SitelinkTitle)
	}
	if res.Description != "" {
		fmt.Fprintf(w, "Description:    %s\n", res.Description)
	}
	if res.Detail != "" {
		fmt.Fprintf(w, "Detail:         %s\n", res.Detail)
	}
}

// TextLine returns the identifier, or AbsentMarker when there is none
func TextLine(res *model.Resolution) string {
	if res.Found() {
		return res.QID
	}
	return AbsentMarker
}
