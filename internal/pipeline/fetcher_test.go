package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/wikiqid/internal/model"
	"github.com/ppiankov/wikiqid/internal/tracing"
)

type echoReply struct {
	Action string `json:"action"`
	Titles string `json:"titles"`
}

func TestFetchJSON_Success(t *testing.T) {
	var gotUA, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Database-Lag", "0")
		_, _ = fmt.Fprintf(w, `{"action":%q,"titles":%q}`, r.URL.Query().Get("action"), r.URL.Query().Get("titles"))
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	params := url.Values{"action": {"query"}, "titles": {"Tina_Turner"}}

	var out echoReply
	meta, err := fetcher.FetchJSON(context.Background(), server.URL+"/w/api.php", params, &out)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out.Action != "query" || out.Titles != "Tina_Turner" {
		t.Errorf("Unexpected decoded body: %+v", out)
	}
	if meta.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", meta.StatusCode)
	}
	if meta.Headers["X-Database-Lag"] != "0" {
		t.Errorf("Expected lag header to be recorded, got %v", meta.Headers)
	}
	if gotUA != "test-agent" {
		t.Errorf("Expected User-Agent test-agent, got %q", gotUA)
	}
	if gotAccept != "application/json" {
		t.Errorf("Expected Accept application/json, got %q", gotAccept)
	}
}

func TestFetchJSON_KeepsEndpointQuery(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	var out map[string]any
	if _, err := fetcher.FetchJSON(context.Background(), server.URL+"?maxlag=5", url.Values{"format": {"json"}}, &out); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if gotQuery.Get("maxlag") != "5" || gotQuery.Get("format") != "json" {
		t.Errorf("Expected endpoint and request params to be merged, got %v", gotQuery)
	}
}

func TestFetchJSON_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	var out map[string]any
	meta, err := fetcher.FetchJSON(context.Background(), server.URL, nil, &out)
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	if got := err.Error(); got != "unexpected status: 404 404 Not Found" {
		t.Errorf("Unexpected error: %s", got)
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusNotFound {
		t.Errorf("Expected FetchError with status 404, got %#v", err)
	}
	if IsTransport(err) {
		t.Error("Expected HTTP status failure not to count as transport failure")
	}
	if meta == nil || meta.StatusCode != http.StatusNotFound {
		t.Errorf("Expected metadata for failed response, got %+v", meta)
	}
}

func TestFetchJSON_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	fetcher := NewFetcher(2*time.Second, "test-agent", 1<<20, false, "", "", "")
	var out map[string]any
	meta, err := fetcher.FetchJSON(context.Background(), endpoint, nil, &out)
	if err == nil {
		t.Fatal("Expected error for closed server, got nil")
	}
	if !IsTransport(err) {
		t.Errorf("Expected transport failure, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "fetch: ") {
		t.Errorf("Unexpected error: %s", err)
	}
	if meta != nil {
		t.Errorf("Expected no metadata without a response, got %+v", meta)
	}
}

func TestFetchJSON_Canceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	var out map[string]any
	_, err := fetcher.FetchJSON(ctx, server.URL, nil, &out)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFetchJSON_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body>Wikimedia Error</body></html>")
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	var out map[string]any
	_, err := fetcher.FetchJSON(context.Background(), server.URL, nil, &out)
	if err == nil {
		t.Fatal("Expected decode error, got nil")
	}
	if !strings.HasPrefix(err.Error(), "decode json: ") {
		t.Errorf("Unexpected error: %s", err)
	}
	if IsTransport(err) {
		t.Error("Expected decode failure not to count as transport failure")
	}
}

func TestFetchJSON_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"pad":%q}`, strings.Repeat("x", 256))
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 64, false, "", "", "")
	var out map[string]any
	_, err := fetcher.FetchJSON(context.Background(), server.URL, nil, &out)
	if err == nil {
		t.Fatal("Expected size error, got nil")
	}
	if got := err.Error(); got != "read body: response exceeds 64 bytes" {
		t.Errorf("Unexpected error: %s", got)
	}
}

func TestFetchJSON_InvalidEndpoint(t *testing.T) {
	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	var out map[string]any
	_, err := fetcher.FetchJSON(context.Background(), "::invalid", nil, &out)
	if err == nil {
		t.Fatal("Expected error for invalid endpoint")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Errorf("Expected FetchError, got %T", err)
	}
}

func TestIsTransport_Nil(t *testing.T) {
	if IsTransport(nil) {
		t.Error("Expected nil error to not be a transport failure")
	}
	if IsTransport(errors.New("plain")) {
		t.Error("Expected plain error to not be a transport failure")
	}
}

func TestFetchJSON_PropagatesTraceContext(t *testing.T) {
	shutdown, err := tracing.Setup(context.Background(), model.TracingConfig{Enabled: true, SampleRate: 1.0}, "test", io.Discard)
	if err != nil {
		t.Fatalf("tracing setup failed: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	var gotTraceparent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTraceparent = r.Header.Get("Traceparent")
		_, _ = fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	ctx, span := tracing.StartSpan(context.Background(), "resolve")
	defer span.End()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	var out map[string]any
	if _, err := fetcher.FetchJSON(ctx, server.URL, nil, &out); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(gotTraceparent, span.SpanContext().TraceID().String()) {
		t.Errorf("Expected traceparent with trace ID %s, got %q", span.SpanContext().TraceID(), gotTraceparent)
	}
}
