package options_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdef/pkg/options"
	"github.com/goliatone/go-formdef/pkg/schema"
)

func vetServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/vets":
			if r.URL.Query().Get("limit") != "20" {
				http.Error(w, "missing limit", http.StatusBadRequest)
				return
			}
			if r.URL.Query().Get("search") != "doc" {
				_, _ = w.Write([]byte(`{"data":[]}`))
				return
			}
			_, _ = w.Write([]byte(`{"data":[{"id":7,"name":"Doc Brown"},{"id":9,"name":"Doc Ock","active":false}]}`))
		case "/api/plain":
			_, _ = w.Write([]byte(`["a","b"]`))
		case "/api/broken":
			_, _ = w.Write([]byte(`{"data":{"id":1}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRemote_MapsResults(t *testing.T) {
	server := vetServer(t)

	provider, err := options.Remote(schema.Endpoint{
		URL:         "/api/vets",
		ResultsPath: "data",
		SearchParam: "search",
		Params:      map[string]string{"limit": "20"},
		ValueKey:    "id",
		LabelKey:    "name",
	}, options.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("remote: %v", err)
	}

	results, err := provider(context.Background(), "doc")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	want := []any{
		map[string]any{"value": int64(7), "display": "Doc Brown"},
		map[string]any{"value": int64(9), "display": "Doc Ock"},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}

	empty, err := provider(context.Background(), "zzz")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty results, got %v (%v)", empty, err)
	}
}

func TestRemote_ScalarResults(t *testing.T) {
	server := vetServer(t)

	provider, err := options.Remote(schema.Endpoint{URL: server.URL + "/api/plain"})
	if err != nil {
		t.Fatalf("remote: %v", err)
	}
	results, err := provider(context.Background(), "")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	want := []any{
		map[string]any{"value": "a", "display": "a"},
		map[string]any{"value": "b", "display": "b"},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestRemote_Errors(t *testing.T) {
	server := vetServer(t)
	ctx := context.Background()

	if _, err := options.Remote(schema.Endpoint{URL: "/api/vets"}); !errors.Is(err, options.ErrRelativeEndpoint) {
		t.Fatalf("expected ErrRelativeEndpoint, got %v", err)
	}
	if _, err := options.Remote(schema.Endpoint{URL: server.URL, Method: "POST"}); !errors.Is(err, options.ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}

	missing, err := options.Remote(schema.Endpoint{URL: server.URL + "/api/missing"})
	if err != nil {
		t.Fatalf("remote: %v", err)
	}
	if _, err := missing(ctx, "x"); err == nil {
		t.Fatalf("expected non-2xx status to fail")
	}

	broken, err := options.Remote(schema.Endpoint{URL: server.URL + "/api/broken", ResultsPath: "data"})
	if err != nil {
		t.Fatalf("remote: %v", err)
	}
	if _, err := broken(ctx, "x"); err == nil {
		t.Fatalf("expected non-array results to fail")
	}
}
