package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdef/internal/loader"
	"github.com/goliatone/go-formdef/pkg/fields"
	"github.com/goliatone/go-formdef/pkg/openapi"
	"github.com/goliatone/go-formdef/pkg/options"
	"github.com/goliatone/go-formdef/pkg/schema"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom document loader.
func WithLoader(l schema.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = l
	}
}

// WithConverter injects the converter used to build fields.
func WithConverter(conv *fields.Converter) Option {
	return func(o *Orchestrator) {
		o.converter = conv
	}
}

// WithOpenAPI injects the adapter used for OpenAPI documents.
func WithOpenAPI(adapter *openapi.Adapter) Option {
	return func(o *Orchestrator) {
		o.openapi = adapter
	}
}

// WithSchemaTransformer registers a Transformer that can mutate the decoded
// schema before conversion.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.transformers = append(o.transformers, t)
		}
	}
}

// WithOptionProviders binds async option providers onto built fields.
func WithOptionProviders(registry *options.Registry) Option {
	return func(o *Orchestrator) {
		o.providers = registry
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// Orchestrator coordinates loading a document, decoding it into a schema and
// converting the schema into field definitions. Missing dependencies fall
// back to the built-in implementations.
type Orchestrator struct {
	loader       schema.Loader
	converter    *fields.Converter
	openapi      *openapi.Adapter
	transformers []Transformer
	providers    *options.Registry
	logger       *zap.Logger
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.loader == nil {
		o.loader = loader.New(loader.WithLogger(o.logger))
	}
	if o.converter == nil {
		o.converter = fields.NewConverter(fields.WithLogger(o.logger))
	}
	if o.openapi == nil {
		o.openapi = openapi.New(openapi.WithLogger(o.logger))
	}
	return o
}

// Request describes which schema to convert.
type Request struct {
	// Source identifies where the document lives. Optional when Document is
	// supplied.
	Source schema.Source

	// Document bypasses the loader.
	Document *schema.Document

	// Format forces the decoder. Empty or FormatAuto detects it.
	Format schema.Format

	// Component selects the OpenAPI component schema. It may be left empty
	// when the document declares exactly one.
	Component string
}

// Schema loads and decodes the requested schema and applies transformers.
func (o *Orchestrator) Schema(ctx context.Context, req Request) (schema.Schema, error) {
	if err := ctx.Err(); err != nil {
		return schema.Schema{}, err
	}

	doc, err := o.resolveDocument(ctx, req)
	if err != nil {
		return schema.Schema{}, err
	}

	format := o.resolveFormat(doc, req.Format)
	o.logger.Debug("decoding schema",
		zap.String("location", doc.Location()),
		zap.String("format", string(format)),
	)

	var sc schema.Schema
	if format == schema.FormatOpenAPI {
		sc, err = o.fromOpenAPI(ctx, doc, req.Component)
	} else {
		sc, err = schema.Decode(doc.Raw(), format)
	}
	if err != nil {
		return schema.Schema{}, err
	}

	for _, t := range o.transformers {
		if err := t.Transform(ctx, &sc); err != nil {
			return schema.Schema{}, fmt.Errorf("orchestrator: transform schema: %w", err)
		}
	}
	return sc, nil
}

// Fields runs the whole pipeline and returns the built field definitions.
func (o *Orchestrator) Fields(ctx context.Context, req Request) ([]*fields.FieldDef, error) {
	sc, err := o.Schema(ctx, req)
	if err != nil {
		return nil, err
	}
	built, err := o.converter.SchemaToFields(sc)
	if err != nil {
		return nil, err
	}
	if err := o.bind(built); err != nil {
		return nil, err
	}
	return built, nil
}

// Holder runs the pipeline and wraps the result in a ModelsHolder.
func (o *Orchestrator) Holder(ctx context.Context, req Request) (*fields.ModelsHolder, error) {
	sc, err := o.Schema(ctx, req)
	if err != nil {
		return nil, err
	}
	holder, err := fields.NewModelsHolder(sc, o.converter)
	if err != nil {
		return nil, err
	}
	if err := o.bind(holder.Fields()); err != nil {
		return nil, err
	}
	return holder, nil
}

func (o *Orchestrator) bind(built []*fields.FieldDef) error {
	if o.providers == nil {
		return nil
	}
	bound, err := o.providers.Bind(built)
	if err != nil {
		return err
	}
	o.logger.Debug("option providers bound", zap.Int("fields", bound))
	return nil
}

func (o *Orchestrator) resolveDocument(ctx context.Context, req Request) (schema.Document, error) {
	if req.Document != nil {
		return *req.Document, nil
	}
	if req.Source == nil {
		return schema.Document{}, errors.New("orchestrator: source or document is required")
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return schema.Document{}, fmt.Errorf("orchestrator: load document: %w", err)
	}
	return doc, nil
}

func (o *Orchestrator) resolveFormat(doc schema.Document, requested schema.Format) schema.Format {
	if requested != "" && requested != schema.FormatAuto {
		return requested
	}
	if openapi.Detect(doc.Raw()) {
		return schema.FormatOpenAPI
	}
	return doc.Format()
}

func (o *Orchestrator) fromOpenAPI(ctx context.Context, doc schema.Document, component string) (schema.Schema, error) {
	spec, err := o.openapi.Parse(ctx, doc)
	if err != nil {
		return schema.Schema{}, err
	}
	if component == "" {
		names := spec.Components()
		if len(names) != 1 {
			return schema.Schema{}, fmt.Errorf("%w: choose one of %v", ErrComponentRequired, names)
		}
		component = names[0]
	}
	return spec.Schema(component)
}

// ErrComponentRequired is returned when an OpenAPI document declares several
// components and the request did not name one.
var ErrComponentRequired = errors.New("orchestrator: component name is required")
