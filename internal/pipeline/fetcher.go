package pipeline

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ppiankov/wikiqid/internal/model"
	"github.com/ppiankov/wikiqid/internal/tracing"
	"github.com/ppiankov/wikiqid/internal/util"
)

// Fetcher issues GET requests against JSON APIs
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	Logger     *slog.Logger
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, insecureTLS bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	transport := &http.Transport{
		Proxy:                 util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	}
	if insecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via --insecure
	}

	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
		Logger:    slog.Default(),
	}
}

// NewFetcherFromConfig creates a Fetcher from the HTTP section of the config
func NewFetcherFromConfig(cfg model.HTTPConfig) *Fetcher {
	return NewFetcher(cfg.Timeout, cfg.UserAgent, cfg.MaxBodyBytes, cfg.InsecureTLS, cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
}

// FetchError describes a failed fetch. StatusCode is 0 when no response arrived.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is a fetch failure that happened before any response was received
func IsTransport(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.StatusCode == 0
}

// FetchJSON issues a GET to endpoint with params and decodes the JSON body into out
func (f *Fetcher) FetchJSON(ctx context.Context, endpoint string, params url.Values, out any) (*model.FetchMeta, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, &FetchError{URL: endpoint, Err: fmt.Errorf("parse endpoint: %w", err)}
	}
	q := u.Query()
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	rawURL := u.String()

	ctx, span := tracing.StartSpan(ctx, "http.get")
	defer span.End()
	span.SetAttributes(
		attribute.String("url.full", rawURL),
		attribute.String("server.address", u.Host),
	)

	meta, err := f.fetch(ctx, rawURL, out)
	if meta != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", meta.StatusCode))
	}
	tracing.RecordError(span, err)
	return meta, err
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string, out any) (*model.FetchMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")
	tracing.InjectHeaders(ctx, req.Header)

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("fetch: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	f.logger().Debug("GET", "url", rawURL, "status", resp.StatusCode, "duration", time.Since(start))

	meta := &model.FetchMeta{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
		Headers:     make(map[string]string),
	}

	// MediaWiki reports lag and deprecations through these
	for _, key := range []string{model.HeaderRetryAfter, model.HeaderDatabaseLag, model.HeaderMediaWikiError} {
		if val := resp.Header.Get(key); val != "" {
			meta.Headers[key] = val
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return meta, &FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status),
		}
	}

	// Read one byte past the limit to detect truncation
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return meta, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > f.maxBytes {
		return meta, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: response exceeds %d bytes", f.maxBytes)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return meta, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode json: %w", err)}
	}

	return meta, nil
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}
