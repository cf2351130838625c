package fields

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdef/pkg/schema"
)

const defaultMaxDepth = 64

// SchemaConverter turns schemas into ordered field lists. Array fields receive
// one during Build so they can convert their item schemas without reaching
// for global state.
type SchemaConverter interface {
	SchemaToFields(s schema.Schema) ([]*FieldDef, error)
	ItemFields(items schema.Schema) ([]*FieldDef, error)
}

// Option configures a Converter.
type Option func(*Converter)

// WithFactory swaps the tag table used to pick variants.
func WithFactory(factory *Factory) Option {
	return func(c *Converter) {
		if factory != nil {
			c.factory = factory
		}
	}
}

// WithLogger attaches a logger. Conversion logs at debug level only.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLabeler overrides how missing titles are derived from property keys.
// Passing nil disables the fallback.
func WithLabeler(labeler func(string) string) Option {
	return func(c *Converter) {
		c.labeler = labeler
	}
}

// WithSanitize toggles stripping markup from titles and choice labels.
func WithSanitize(enabled bool) Option {
	return func(c *Converter) {
		c.sanitize = enabled
	}
}

// WithWidgets overrides widget identifiers per variant, e.g. to target a
// specific component library.
func WithWidgets(widgets map[Kind]string) Option {
	return func(c *Converter) {
		for kind, widget := range widgets {
			if kind.Valid() && widget != "" {
				c.widgets[kind] = widget
			}
		}
	}
}

// WithMaxDepth caps how deep array item schemas may nest.
func WithMaxDepth(depth int) Option {
	return func(c *Converter) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// Converter builds field definitions from schemas. A Converter holds no
// per-conversion state and may be shared.
type Converter struct {
	factory  *Factory
	logger   *zap.Logger
	labeler  func(string) string
	sanitize bool
	widgets  map[Kind]string
	maxDepth int
}

// NewConverter returns a Converter with the built-in factory, key-derived
// titles and sanitising enabled.
func NewConverter(options ...Option) *Converter {
	c := &Converter{
		factory:  defaultFactory,
		logger:   zap.NewNop(),
		labeler:  DefaultLabeler,
		sanitize: true,
		widgets:  make(map[Kind]string),
		maxDepth: defaultMaxDepth,
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// SchemaToFields builds one field per property in declaration order. Any
// failure aborts the whole conversion; partial lists are never returned.
func (c *Converter) SchemaToFields(s schema.Schema) ([]*FieldDef, error) {
	sess := &session{conv: c, root: s, inStack: make(map[string]struct{})}
	fields, err := sess.SchemaToFields(s)
	if err != nil {
		c.logger.Debug("schema conversion failed", zap.Error(err))
		return nil, err
	}
	return fields, nil
}

// ItemFields converts an array item fragment against an empty root. Prefer
// SchemaToFields on the enclosing schema so "$$ref" can see its definitions.
func (c *Converter) ItemFields(items schema.Schema) ([]*FieldDef, error) {
	sess := &session{conv: c, root: items, inStack: make(map[string]struct{})}
	return sess.ItemFields(items)
}

var defaultConverter = NewConverter()

// SchemaToFields converts s with the default converter.
func SchemaToFields(s schema.Schema) ([]*FieldDef, error) {
	return defaultConverter.SchemaToFields(s)
}

// session tracks the root document and the chain of references being
// expanded during one conversion.
type session struct {
	conv    *Converter
	root    schema.Schema
	stack   []string
	inStack map[string]struct{}
	depth   int
}

func (s *session) SchemaToFields(sc schema.Schema) ([]*FieldDef, error) {
	c := s.conv
	if sc.Properties == nil {
		return []*FieldDef{}, nil
	}
	fields := make([]*FieldDef, 0, sc.Properties.Len())

	for pair := sc.Properties.Oldest(); pair != nil; pair = pair.Next() {
		key, frag := pair.Key, pair.Value

		field, err := c.factory.New(frag.Type)
		if err != nil {
			var unknown *UnknownFieldTypeError
			if errors.As(err, &unknown) {
				unknown.Key = key
			}
			return nil, err
		}
		field.ID = key
		field.Key = key
		field.Required = sc.Required.Has(key)
		if frag.OptionsObject != nil {
			field.OptionsObject = frag.OptionsObject.Clone()
		}

		if err := field.Build(c.prepare(key, frag), s); err != nil {
			return nil, fmt.Errorf("fields: build %q: %w", key, err)
		}
		if widget, ok := c.widgets[field.Kind]; ok {
			field.Widget = widget
		}

		c.logger.Debug("field built",
			zap.String("key", key),
			zap.String("kind", string(field.Kind)),
			zap.Bool("required", field.Required),
			zap.Int("rules", len(field.Rules)),
			zap.Int("depth", s.depth),
		)
		fields = append(fields, field)
	}
	return fields, nil
}

func (s *session) ItemFields(items schema.Schema) ([]*FieldDef, error) {
	target, ref, err := s.resolve(items)
	if err != nil {
		return nil, err
	}
	if ref != "" {
		if _, looping := s.inStack[ref]; looping {
			return nil, fmt.Errorf("%w: %q", ErrCyclicReference, ref)
		}
		s.push(ref)
		defer s.pop()
	}
	if s.depth >= s.conv.maxDepth {
		return nil, fmt.Errorf("%w (%d)", ErrMaxDepth, s.conv.maxDepth)
	}
	s.depth++
	defer func() { s.depth-- }()

	return s.SchemaToFields(target)
}

// resolve returns the schema to expand for an items fragment. Inline
// properties win over the reference; otherwise the reference must name a
// definition of the root document.
func (s *session) resolve(items schema.Schema) (schema.Schema, string, error) {
	if items.HasProperties() || items.Ref == "" {
		return items, "", nil
	}
	name := schema.DefinitionName(items.Ref)
	def, ok := s.root.Definition(name)
	if !ok {
		def, ok = items.Definition(name)
	}
	if !ok {
		return schema.Schema{}, "", fmt.Errorf("%w: %q", ErrUnresolvedReference, items.Ref)
	}
	return def, name, nil
}

func (s *session) push(ref string) {
	s.stack = append(s.stack, ref)
	s.inStack[ref] = struct{}{}
}

func (s *session) pop() {
	if len(s.stack) == 0 {
		return
	}
	last := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	delete(s.inStack, last)
}

// prepare fills in a missing title and strips markup from display strings.
func (c *Converter) prepare(key string, frag schema.Property) schema.Property {
	if frag.Title == "" && c.labeler != nil {
		frag.Title = c.labeler(key)
	}
	if !c.sanitize {
		return frag
	}
	frag.Title = sanitizeText(frag.Title)
	if len(frag.Choices) > 0 {
		frag.Choices = sanitizeChoices(frag.Choices)
	}
	return frag
}
