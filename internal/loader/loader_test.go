package loader_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-formdef/internal/loader"
	"github.com/goliatone/go-formdef/pkg/schema"
)

const payload = `{"properties": {"name": {"type": "string"}}}`

func TestLoader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	doc, err := loader.New().Load(context.Background(), schema.SourceFromFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(doc.Raw()) != payload {
		t.Fatalf("unexpected payload: %s", doc.Raw())
	}
	if doc.Format() != schema.FormatJSON {
		t.Fatalf("expected json format, got %q", doc.Format())
	}

	if _, err := loader.New().Load(context.Background(), schema.SourceFromFile(filepath.Join(t.TempDir(), "missing.json"))); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoader_FS(t *testing.T) {
	files := fstest.MapFS{
		"schemas/model.yaml": &fstest.MapFile{Data: []byte("properties:\n  name:\n    type: string\n")},
	}
	l := loader.New(loader.WithFileSystem(files))

	doc, err := l.Load(context.Background(), schema.SourceFromFS("schemas/model.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Format() != schema.FormatYAML {
		t.Fatalf("expected yaml format, got %q", doc.Format())
	}
	if doc.Location() != "schemas/model.yaml" {
		t.Fatalf("unexpected location %q", doc.Location())
	}

	if _, err := loader.New().Load(context.Background(), schema.SourceFromFS("schemas/model.yaml")); err == nil {
		t.Fatalf("expected error without a file system")
	}
}

func TestLoader_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	src := schema.SourceFromURL(server.URL + "/model")
	if _, err := loader.New().Load(context.Background(), src); !errors.Is(err, loader.ErrHTTPDisabled) {
		t.Fatalf("expected ErrHTTPDisabled, got %v", err)
	}

	l := loader.New(loader.WithHTTP(5 * time.Second))
	doc, err := l.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(doc.Raw()) != payload {
		t.Fatalf("unexpected payload: %s", doc.Raw())
	}

	if _, err := l.Load(context.Background(), schema.SourceFromURL(server.URL+"/missing")); err == nil {
		t.Fatalf("expected status error")
	}

	withClient := loader.New(loader.WithHTTPClient(server.Client()))
	if _, err := withClient.Load(context.Background(), src); err != nil {
		t.Fatalf("load with injected client: %v", err)
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := loader.New().Load(ctx, schema.SourceFromFile(path)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLoader_EmptyDocument(t *testing.T) {
	files := fstest.MapFS{"empty.json": &fstest.MapFile{Data: []byte("  \n")}}
	if _, err := loader.New(loader.WithFileSystem(files)).Load(context.Background(), schema.SourceFromFS("empty.json")); err == nil {
		t.Fatalf("expected empty document error")
	}
	if _, err := loader.New().Load(context.Background(), nil); err == nil {
		t.Fatalf("expected nil source error")
	}
}
