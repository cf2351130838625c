// Package formdef is the top-level entry point: it re-exports the
// orchestrator and offers one-call helpers that turn a schema location into
// field definitions.
package formdef

import (
	"context"
	"io/fs"
	"time"

	"github.com/goliatone/go-formdef/internal/loader"
	"github.com/goliatone/go-formdef/pkg/fields"
	"github.com/goliatone/go-formdef/pkg/orchestrator"
	"github.com/goliatone/go-formdef/pkg/schema"
)

// Request aliases orchestrator.Request for callers of the root package.
type Request = orchestrator.Request

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// LoaderOption configures the loader returned by NewLoader.
type LoaderOption = loader.Option

// LoaderWithHTTP enables http(s) sources with the given timeout.
func LoaderWithHTTP(timeout time.Duration) LoaderOption {
	return loader.WithHTTP(timeout)
}

// LoaderWithFileSystem serves fs sources from files.
func LoaderWithFileSystem(files fs.FS) LoaderOption {
	return loader.WithFileSystem(files)
}

// NewLoader constructs a document loader while keeping the concrete type
// hidden from consumers.
func NewLoader(options ...LoaderOption) schema.Loader {
	return loader.New(options...)
}

// Fields loads the schema at location (a file path or http(s) URL) and
// converts it into field definitions.
func Fields(ctx context.Context, location string, options ...orchestrator.Option) ([]*fields.FieldDef, error) {
	src, err := schema.ParseSource(location)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(options...).Fields(ctx, Request{Source: src})
}

// FieldsFromBytes converts an in-memory schema document. The format is
// detected when empty.
func FieldsFromBytes(ctx context.Context, raw []byte, format schema.Format, options ...orchestrator.Option) ([]*fields.FieldDef, error) {
	doc, err := schema.NewDocument(schema.SourceFromFile("inline"), raw)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(options...).Fields(ctx, Request{Document: &doc, Format: format})
}

// Holder loads the schema at location and wraps its fields in a
// ModelsHolder.
func Holder(ctx context.Context, location string, options ...orchestrator.Option) (*fields.ModelsHolder, error) {
	src, err := schema.ParseSource(location)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(options...).Holder(ctx, Request{Source: src})
}
