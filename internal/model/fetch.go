package model

// Response headers MediaWiki uses to report lag, throttling and API errors
const (
	HeaderRetryAfter     = "Retry-After"
	HeaderDatabaseLag    = "X-Database-Lag"
	HeaderMediaWikiError = "MediaWiki-API-Error"
)

// FetchMeta contains HTTP metadata from an API response
type FetchMeta struct {
	StatusCode  int               `json:"status_code"`
	ContentType string            `json:"content_type,omitempty"`
	FinalURL    string            `json:"final_url,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// APIError returns the error code MediaWiki reported in its response headers, if any
func (m *FetchMeta) APIError() string {
	if m == nil {
		return ""
	}
	return m.Headers[HeaderMediaWikiError]
}

// LogAttrs returns slog key/value pairs for the non-empty fields
func (m *FetchMeta) LogAttrs() []any {
	if m == nil {
		return nil
	}
	attrs := []any{"status", m.StatusCode}
	if m.FinalURL != "" {
		attrs = append(attrs, "url", m.FinalURL)
	}
	if m.ContentType != "" {
		attrs = append(attrs, "content_type", m.ContentType)
	}
	if v := m.Headers[HeaderDatabaseLag]; v != "" {
		attrs = append(attrs, "database_lag", v)
	}
	if v := m.Headers[HeaderRetryAfter]; v != "" {
		attrs = append(attrs, "retry_after", v)
	}
	if v := m.Headers[HeaderMediaWikiError]; v != "" {
		attrs = append(attrs, "api_error", v)
	}
	return attrs
}
