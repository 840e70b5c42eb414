package model

import "time"

// Variant selects how a title is resolved
type Variant string

const (
	VariantDirect Variant = "direct" // Query Wikidata with the raw title
	VariantFollow Variant = "follow" // Resolve Wikipedia redirects first, then query Wikidata
)

// ParseVariant maps a user supplied name to a Variant
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantDirect, VariantFollow:
		return Variant(s), nil
	default:
		return "", NewValidationError("variant", s, "must be one of direct, follow")
	}
}

// Status is the outcome of an entity lookup.
// Only StatusFound carries an identifier; every other status is an absent result.
type Status string

const (
	StatusFound       Status = "found"
	StatusNoEntities  Status = "no_entities" // Response carried no entities object
	StatusEmpty       Status = "empty"       // Entities object was empty
	StatusMissing     Status = "missing"     // Wikidata has no item for the title
	StatusAmbiguous   Status = "ambiguous"   // More than one entity came back
	StatusUnavailable Status = "unavailable" // Transport, HTTP status or decode failure
)

// Absent reports whether the status carries no identifier
func (s Status) Absent() bool {
	return s != StatusFound
}

// Resolution is the result of resolving one page title
type Resolution struct {
	Title           string    `json:"title" yaml:"title"`                                           // Title as given
	ResolvedTitle   string    `json:"resolved_title" yaml:"resolved_title"`                         // Title sent to Wikidata
	NormalizedTitle string    `json:"normalized_title,omitempty" yaml:"normalized_title,omitempty"` // Title after MediaWiki normalization
	Redirected      bool      `json:"redirected" yaml:"redirected"`                                 // Wikipedia redirect was followed
	Fragment        string    `json:"fragment,omitempty" yaml:"fragment,omitempty"`                 // Section anchor of the redirect target
	PageMissing     bool      `json:"page_missing,omitempty" yaml:"page_missing,omitempty"`         // Wikipedia has no page under ResolvedTitle
	Variant         Variant   `json:"variant" yaml:"variant"`
	QID             string    `json:"qid,omitempty" yaml:"qid,omitempty"`
	Label           string    `json:"label,omitempty" yaml:"label,omitempty"`                   // English label of the entity
	Description     string    `json:"description,omitempty" yaml:"description,omitempty"`       // English description of the entity
	SitelinkTitle   string    `json:"sitelink_title,omitempty" yaml:"sitelink_title,omitempty"` // enwiki title the entity links to
	Status          Status    `json:"status" yaml:"status"`
	Detail          string    `json:"detail,omitempty" yaml:"detail,omitempty"` // API error info or failure text
	ResolvedAt      time.Time `json:"resolved_at" yaml:"resolved_at"`
}

// Found reports whether an identifier was resolved
func (r *Resolution) Found() bool {
	return r != nil && r.Status == StatusFound && r.QID != ""
}
