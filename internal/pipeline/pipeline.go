package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ppiankov/wikiqid/internal/model"
	"github.com/ppiankov/wikiqid/internal/tracing"
	"github.com/ppiankov/wikiqid/internal/wikidata"
	"github.com/ppiankov/wikiqid/internal/wikipedia"
)

// Pipeline orchestrates title resolution
type Pipeline struct {
	wikipedia *wikipedia.Client
	wikidata  *wikidata.Client
	config    *model.Config
	logger    *slog.Logger
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	fetcher := NewFetcherFromConfig(cfg.HTTP)
	fetcher.Logger = logger

	wp := wikipedia.NewClient(fetcher, logger)
	if cfg.Wikipedia.Endpoint != "" {
		wp.APIEndpoint = cfg.Wikipedia.Endpoint
	}

	wd := wikidata.NewClient(fetcher, logger)
	if cfg.Wikidata.Endpoint != "" {
		wd.APIEndpoint = cfg.Wikidata.Endpoint
	}

	return &Pipeline{
		wikipedia: wp,
		wikidata:  wd,
		config:    cfg,
		logger:    logger,
	}
}

// Resolve maps a page title to a Wikidata identifier using the configured variant.
// Only invalid input returns an error; lookup failures are reported through the
// Resolution's status and detail.
func (p *Pipeline) Resolve(ctx context.Context, title string) (*model.Resolution, error) {
	if err := model.ValidateTitle(title); err != nil {
		return nil, err
	}

	variant := p.config.Variant()
	ctx, span := tracing.StartSpan(ctx, "resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("wikiqid.variant", string(variant)),
		attribute.String("wiki.page.title", title),
	)

	res := &model.Resolution{
		Title:         title,
		ResolvedTitle: title,
		Variant:       variant,
	}

	mode := wikidata.RedirectMetadata
	if variant == model.VariantFollow {
		mode = wikidata.FollowRedirects

		// 1. Follow Wikipedia redirects
		r, err := p.wikipedia.Resolve(ctx, title)
		switch {
		case err != nil:
			// Wikidata still follows sitelink redirects itself in this mode
			p.logger.Warn("Redirect resolution failed, using title as given", "title", title, "error", err)
		case r.Target != "":
			res.ResolvedTitle = r.Target
			res.NormalizedTitle = r.Normalized
			res.Redirected = r.Redirected
			res.Fragment = r.Fragment
			res.PageMissing = r.Missing
		}
	}

	// 2. Look up the entity
	lookup, err := p.wikidata.EntityForTitle(ctx, res.ResolvedTitle, mode)
	if lookup == nil {
		return nil, err
	}
	res.QID = lookup.QID
	res.Label = lookup.Label
	res.Description = lookup.Description
	res.SitelinkTitle = lookup.SiteTitle
	res.Status = lookup.Status
	res.Detail = lookup.Detail
	if err != nil {
		tracing.RecordError(span, err)
		res.Detail = err.Error()
	}
	res.ResolvedAt = time.Now().UTC()

	span.SetAttributes(attribute.String("wikidata.status", string(res.Status)))
	if res.Found() {
		span.SetAttributes(attribute.String("wikidata.qid", res.QID))
	}
	p.logger.Debug("Resolved", "title", title, "resolved_title", res.ResolvedTitle, "status", res.Status, "qid", res.QID)

	return res, nil
}
