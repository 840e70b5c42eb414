package wikidata

import "encoding/json"

// entitiesResponse is the wbgetentities reply. Entities stays nil when the key is absent.
type entitiesResponse struct {
	Entities map[string]entity `json:"entities"`
	Error    *apiError         `json:"error,omitempty"`
	Warnings json.RawMessage   `json:"warnings,omitempty"`
	Success  int               `json:"success"`
}

type entity struct {
	ID           string                  `json:"id"`
	Type         string                  `json:"type"`
	Site         string                  `json:"site"`  // Set on missing entities
	Title        string                  `json:"title"` // Set on missing entities
	Missing      *string                 `json:"missing,omitempty"`
	Labels       map[string]languageText `json:"labels"`
	Descriptions map[string]languageText `json:"descriptions"`
	Sitelinks    map[string]sitelink     `json:"sitelinks"`
}

type languageText struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

type sitelink struct {
	Site  string `json:"site"`
	Title string `json:"title"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// isMissing reports whether the entry is Wikidata's placeholder for an unmatched title
func (e entity) isMissing(key string) bool {
	return e.Missing != nil || (len(key) > 0 && key[0] == '-')
}
