// Package wikipedia follows English Wikipedia redirects through the action API.
package wikipedia

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/ppiankov/wikiqid/internal/model"
	"github.com/ppiankov/wikiqid/internal/tracing"
)

// Fetcher decodes the JSON reply of a GET request
type Fetcher interface {
	FetchJSON(ctx context.Context, endpoint string, params url.Values, out any) (*model.FetchMeta, error)
}

// Client handles Wikipedia API interactions
type Client struct {
	fetcher     Fetcher
	APIEndpoint string
	Logger      *slog.Logger
}

// NewClient creates a new Wikipedia client
func NewClient(f Fetcher, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		fetcher:     f,
		APIEndpoint: model.DefaultWikipediaEndpoint,
		Logger:      logger,
	}
}

// Redirect describes how a title was resolved
type Redirect struct {
	Title      string // Title as given
	Target     string // Title after following redirects
	Normalized string // Title after MediaWiki normalization, if it changed
	Fragment   string // Section anchor of the redirect target, if any
	Redirected bool
	Missing    bool // No page exists under Target
}

type queryResponse struct {
	Query *struct {
		Normalized []titleMapping  `json:"normalized"`
		Redirects  []titleMapping  `json:"redirects"`
		Pages      map[string]page `json:"pages"`
	} `json:"query"`
}

type titleMapping struct {
	From       string `json:"from"`
	To         string `json:"to"`
	ToFragment string `json:"tofragment,omitempty"`
}

type page struct {
	PageID  int     `json:"pageid"`
	Title   string  `json:"title"`
	Missing *string `json:"missing,omitempty"`
}

// Resolve queries action=query with redirects=1 for title.
// Without a redirects list in the reply the target is the title unchanged.
func (c *Client) Resolve(ctx context.Context, title string) (*Redirect, error) {
	if err := model.ValidateTitle(title); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "wikipedia.query")
	defer span.End()
	tracing.AddWikiAttributes(span, "query", title)

	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", title)
	params.Set("redirects", "1")
	params.Set("format", "json")

	var resp queryResponse
	meta, err := c.fetcher.FetchJSON(ctx, c.endpoint(), params, &resp)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("resolve redirect for %q: %w", title, err)
	}
	c.Logger.Debug("Wikipedia query response", append([]any{"title", title}, meta.LogAttrs()...)...)

	r := &Redirect{Title: title, Target: title}
	if resp.Query == nil {
		return r, nil
	}

	if len(resp.Query.Normalized) > 0 {
		r.Normalized = resp.Query.Normalized[0].To
	}
	if len(resp.Query.Redirects) > 0 {
		first := resp.Query.Redirects[0]
		r.Target = first.To
		r.Fragment = first.ToFragment
		r.Redirected = true
	}

	for _, p := range resp.Query.Pages {
		if p.Missing != nil {
			r.Missing = true
		}
	}

	c.Logger.Debug("Wikipedia redirect", "title", title, "target", r.Target, "redirected", r.Redirected, "missing", r.Missing)
	return r, nil
}

// ResolveRedirect returns the canonical title after following any redirect.
// On failure it returns title unchanged alongside the error.
func (c *Client) ResolveRedirect(ctx context.Context, title string) (string, error) {
	r, err := c.Resolve(ctx, title)
	if err != nil {
		return title, err
	}
	return r.Target, nil
}

func (c *Client) endpoint() string {
	if c.APIEndpoint != "" {
		return c.APIEndpoint
	}
	return model.DefaultWikipediaEndpoint
}
