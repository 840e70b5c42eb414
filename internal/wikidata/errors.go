package wikidata

import "errors"

var (
	// ErrAmbiguous indicates more than one entity came back for a single title.
	ErrAmbiguous = errors.New("wikidata returned more than one entity")
	// ErrUnavailable indicates the entity lookup could not be completed.
	ErrUnavailable = errors.New("wikidata unavailable")
)
