package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdef/pkg/schema"
)

var (
	// ErrComponentNotFound is returned when components.schemas has no entry
	// with the requested name.
	ErrComponentNotFound = errors.New("openapi: component not found")

	// ErrNoComponents is returned for documents without components.schemas.
	ErrNoComponents = errors.New("openapi: document declares no component schemas")
)

// Adapter parses OpenAPI documents into Specs.
type Adapter struct {
	opts Options
}

// New constructs an Adapter.
func New(options ...Option) *Adapter {
	return &Adapter{opts: newOptions(options...)}
}

// Spec is a parsed OpenAPI document.
type Spec struct {
	doc    *openapi3.T
	opts   Options
	source string
}

// Parse loads the document with kin-openapi. Local references are resolved;
// external references are refused.
func (a *Adapter) Parse(ctx context.Context, doc schema.Document) (*Spec, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = false

	parsed, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if a.opts.Validate {
		if err := parsed.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	if parsed.Components == nil || len(parsed.Components.Schemas) == 0 {
		return nil, ErrNoComponents
	}

	a.opts.Logger.Debug("openapi document parsed",
		zap.String("location", doc.Location()),
		zap.Int("components", len(parsed.Components.Schemas)),
	)
	return &Spec{doc: parsed, opts: a.opts, source: doc.Location()}, nil
}

// Components lists the names of component schemas that declare properties,
// sorted.
func (s *Spec) Components() []string {
	names := make([]string, 0, len(s.doc.Components.Schemas))
	for name, ref := range s.doc.Components.Schemas {
		if ref == nil || ref.Value == nil || len(ref.Value.Properties) == 0 {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema converts the named component. Components reached through array
// items become definitions of the returned schema so "$$ref" lookups and
// cycle detection work as for hand-written documents.
func (s *Spec) Schema(name string) (schema.Schema, error) {
	ref, ok := s.doc.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return schema.Schema{}, fmt.Errorf("%w: %q", ErrComponentNotFound, name)
	}

	conv := &converter{
		components: s.doc.Components.Schemas,
		opts:       s.opts,
		queued:     map[string]struct{}{name: {}},
	}
	out := conv.object(ref.Value)
	if !out.HasProperties() {
		return schema.Schema{}, fmt.Errorf("openapi: component %q has no convertible properties", name)
	}

	for len(conv.pending) > 0 {
		next := conv.pending[0]
		conv.pending = conv.pending[1:]
		def := conv.components[next]
		if def == nil || def.Value == nil {
			return schema.Schema{}, fmt.Errorf("%w: %q", ErrComponentNotFound, next)
		}
		out.Define(next, conv.object(def.Value))
	}
	// A component referencing itself through its items needs its own entry.
	if _, self := conv.referenced[name]; self {
		out.Define(name, conv.object(ref.Value))
	}
	return out, nil
}

// Detect reports whether raw looks like an OpenAPI or Swagger document.
func Detect(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] == '{' {
		var payload map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			_, isOpenAPI := payload["openapi"]
			_, isSwagger := payload["swagger"]
			return isOpenAPI || isSwagger
		}
		return false
	}
	for _, line := range strings.Split(string(trimmed), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "openapi:") || strings.HasPrefix(line, "swagger:") {
			return true
		}
	}
	return false
}
