// Package wikidata resolves English Wikipedia titles to Wikidata entity identifiers.
package wikidata

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ppiankov/wikiqid/internal/model"
	"github.com/ppiankov/wikiqid/internal/tracing"
)

const (
	// Site scopes title lookups to the English Wikipedia
	Site = "enwiki"
	// Language restricts labels and descriptions to English
	Language = "en"
)

// RedirectMode selects how wbgetentities treats redirecting titles
type RedirectMode int

const (
	// RedirectMetadata sends prop=redirects and queries the raw title
	RedirectMetadata RedirectMode = iota
	// FollowRedirects sends redirects=yes so Wikidata resolves sitelink redirects itself
	FollowRedirects
)

func (m RedirectMode) String() string {
	switch m {
	case RedirectMetadata:
		return "metadata"
	case FollowRedirects:
		return "follow"
	default:
		return "unknown"
	}
}

// Fetcher decodes the JSON reply of a GET request
type Fetcher interface {
	FetchJSON(ctx context.Context, endpoint string, params url.Values, out any) (*model.FetchMeta, error)
}

// Client looks up Wikidata entities by sitelink title
type Client struct {
	fetcher     Fetcher
	APIEndpoint string
	Logger      *slog.Logger
}

// NewClient creates a new Wikidata client
func NewClient(f Fetcher, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		fetcher:     f,
		APIEndpoint: model.DefaultWikidataEndpoint,
		Logger:      logger,
	}
}

// Lookup is the outcome of resolving one title.
// QID is set only when Status is model.StatusFound.
type Lookup struct {
	Title       string
	QID         string
	Label       string
	Description string
	SiteTitle   string // enwiki sitelink title of the entity
	Status      model.Status
	Detail      string
}

// EntityForTitle queries wbgetentities for the entity bound to title on enwiki.
//
// Absent results (no entities object, an empty one, or the missing-entity marker) are
// returned with a nil error. Transport and decode failures return a Lookup with
// StatusUnavailable and an error wrapping ErrUnavailable. More than one entity returns
// StatusAmbiguous and ErrAmbiguous.
func (c *Client) EntityForTitle(ctx context.Context, title string, mode RedirectMode) (*Lookup, error) {
	if err := model.ValidateTitle(title); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "wikidata.wbgetentities")
	defer span.End()
	tracing.AddWikiAttributes(span, "wbgetentities", title)
	span.SetAttributes(attribute.String("wikidata.redirect_mode", mode.String()))

	params := url.Values{}
	params.Set("action", "wbgetentities")
	params.Set("format", "json")
	params.Set("sites", Site)
	params.Set("titles", title)
	params.Set("languages", Language)
	switch mode {
	case FollowRedirects:
		params.Set("redirects", "yes")
	default:
		params.Set("prop", "redirects")
	}

	var resp entitiesResponse
	meta, err := c.fetcher.FetchJSON(ctx, c.endpoint(), params, &resp)
	if err != nil {
		tracing.RecordError(span, err)
		c.Logger.Warn("Wikidata lookup failed", "title", title, "error", err)
		return &Lookup{
			Title:  title,
			Status: model.StatusUnavailable,
			Detail: err.Error(),
		}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	c.Logger.Debug("wbgetentities response", append([]any{"title", title}, meta.LogAttrs()...)...)
	if len(resp.Warnings) > 0 {
		c.Logger.Debug("wbgetentities warnings", "title", title, "warnings", string(resp.Warnings))
	}

	lookup := extract(title, &resp)
	if lookup.Status == model.StatusNoEntities && lookup.Detail == "" {
		lookup.Detail = meta.APIError()
	}
	span.SetAttributes(attribute.String("wikidata.status", string(lookup.Status)))
	c.Logger.Debug("Wikidata lookup", "title", title, "status", lookup.Status, "qid", lookup.QID)

	if lookup.Status == model.StatusAmbiguous {
		err := fmt.Errorf("%w for %q: %s", ErrAmbiguous, title, lookup.Detail)
		tracing.RecordError(span, err)
		return lookup, err
	}
	return lookup, nil
}

// extract applies the identifier extraction policy to a decoded reply
func extract(title string, resp *entitiesResponse) *Lookup {
	lookup := &Lookup{Title: title}

	switch {
	case resp.Entities == nil:
		lookup.Status = model.StatusNoEntities
		if resp.Error != nil {
			lookup.Detail = resp.Error.Code + ": " + resp.Error.Info
		}
		return lookup
	case len(resp.Entities) == 0:
		lookup.Status = model.StatusEmpty
		return lookup
	case len(resp.Entities) > 1:
		keys := make([]string, 0, len(resp.Entities))
		for key := range resp.Entities {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		lookup.Status = model.StatusAmbiguous
		lookup.Detail = strings.Join(keys, ", ")
		return lookup
	}

	for key, ent := range resp.Entities {
		if ent.isMissing(key) {
			lookup.Status = model.StatusMissing
			return lookup
		}

		lookup.Status = model.StatusFound
		lookup.QID = key
		if ent.ID != "" {
			lookup.QID = ent.ID
		}
		if l, ok := ent.Labels[Language]; ok {
			lookup.Label = l.Value
		}
		if d, ok := ent.Descriptions[Language]; ok {
			lookup.Description = d.Value
		}
		if sl, ok := ent.Sitelinks[Site]; ok {
			lookup.SiteTitle = sl.Title
		}
	}
	return lookup
}

func (c *Client) endpoint() string {
	if c.APIEndpoint != "" {
		return c.APIEndpoint
	}
	return model.DefaultWikidataEndpoint
}
