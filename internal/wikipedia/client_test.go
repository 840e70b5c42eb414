package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/ppiankov/wikiqid/internal/model"
)

type stubFetcher struct {
	body   string
	err    error
	params url.Values
	calls  int
}

func (s *stubFetcher) FetchJSON(ctx context.Context, endpoint string, params url.Values, out any) (*model.FetchMeta, error) {
	s.calls++
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	if err := json.Unmarshal([]byte(s.body), out); err != nil {
		return nil, err
	}
	return &model.FetchMeta{StatusCode: 200}, nil
}

func TestResolveRedirect_FollowsRedirect(t *testing.T) {
	f := &stubFetcher{body: `{
	  "batchcomplete": "",
	  "query": {
	    "normalized": [{"from": "William_T._Sherman", "to": "William T. Sherman"}],
	    "redirects": [{"from": "William T. Sherman", "to": "William Tecumseh Sherman"}],
	    "pages": {"33844": {"pageid": 33844, "ns": 0, "title": "William Tecumseh Sherman"}}
	  }
	}`}
	c := NewClient(f, nil)

	got, err := c.ResolveRedirect(context.Background(), "William_T._Sherman")
	if err != nil {
		t.Fatalf("ResolveRedirect failed: %v", err)
	}
	if got != "William Tecumseh Sherman" {
		t.Errorf("Expected redirect target, got %q", got)
	}

	expected := map[string]string{
		"action":    "query",
		"titles":    "William_T._Sherman",
		"redirects": "1",
		"format":    "json",
	}
	for key, want := range expected {
		if got := f.params.Get(key); got != want {
			t.Errorf("Expected %s=%s, got %q", key, want, got)
		}
	}
}

func TestResolveRedirect_NoRedirect(t *testing.T) {
	// Normalization alone is not a redirect: the title comes back unchanged
	f := &stubFetcher{body: `{
	  "query": {
	    "normalized": [{"from": "Tina_Turner", "to": "Tina Turner"}],
	    "pages": {"166440": {"pageid": 166440, "ns": 0, "title": "Tina Turner"}}
	  }
	}`}
	c := NewClient(f, nil)

	r, err := c.Resolve(context.Background(), "Tina_Turner")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if r.Target != "Tina_Turner" {
		t.Errorf("Expected title unchanged, got %q", r.Target)
	}
	if r.Redirected {
		t.Error("Expected Redirected=false")
	}
	if r.Normalized != "Tina Turner" {
		t.Errorf("Expected normalized title to be recorded, got %q", r.Normalized)
	}
}

func TestResolve_FragmentAndMissing(t *testing.T) {
	f := &stubFetcher{body: `{
	  "query": {
	    "redirects": [{"from": "Sherman's March", "to": "Sherman's March to the Sea", "tofragment": "Background"}],
	    "pages": {"-1": {"ns": 0, "title": "Sherman's March to the Sea", "missing": ""}}
	  }
	}`}
	c := NewClient(f, nil)

	r, err := c.Resolve(context.Background(), "Sherman's March")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if r.Target != "Sherman's March to the Sea" || r.Fragment != "Background" {
		t.Errorf("Unexpected redirect: %+v", r)
	}
	if !r.Missing {
		t.Error("Expected Missing=true")
	}
}

func TestResolveRedirect_NoQueryObject(t *testing.T) {
	c := NewClient(&stubFetcher{body: `{"error":{"code":"badvalue","info":"Unrecognized value"}}`}, nil)

	got, err := c.ResolveRedirect(context.Background(), "Tina_Turner")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "Tina_Turner" {
		t.Errorf("Expected title unchanged, got %q", got)
	}
}

func TestResolveRedirect_FetchFailure(t *testing.T) {
	fetchErr := errors.New("fetch: dial tcp: i/o timeout")
	c := NewClient(&stubFetcher{err: fetchErr}, nil)

	got, err := c.ResolveRedirect(context.Background(), "Tina_Turner")
	if !errors.Is(err, fetchErr) {
		t.Fatalf("Expected wrapped fetch error, got %v", err)
	}
	if got != "Tina_Turner" {
		t.Errorf("Expected title unchanged on failure, got %q", got)
	}
}

func TestResolve_InvalidTitle(t *testing.T) {
	f := &stubFetcher{body: `{}`}
	c := NewClient(f, nil)

	if _, err := c.Resolve(context.Background(), "A|B"); !model.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if f.calls != 0 {
		t.Errorf("Expected no request, got %d", f.calls)
	}
}
