package schema

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Schema is a model description: an ordered property map plus the set of
// required keys. The same shape doubles as an array item fragment, in which
// case Ref points at a reusable definition or Type/OptionsList describe an
// inline option list.
type Schema struct {
	Ref         string                                   `json:"$$ref,omitempty" yaml:"$$ref,omitempty"`
	Type        string                                   `json:"type,omitempty" yaml:"type,omitempty"`
	Title       string                                   `json:"title,omitempty" yaml:"title,omitempty"`
	Properties  *orderedmap.OrderedMap[string, Property] `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required    Required                                 `json:"required,omitempty" yaml:"required,omitempty"`
	Definitions *orderedmap.OrderedMap[string, Schema]   `json:"definitions,omitempty" yaml:"definitions,omitempty"`
	MultiTyped  bool                                     `json:"multiTyped,omitempty" yaml:"multiTyped,omitempty"`
	MultiTypes  []MultiType                              `json:"multiTypes,omitempty" yaml:"multiTypes,omitempty"`
	OptionsList *orderedmap.OrderedMap[string, any]      `json:"optionsList,omitempty" yaml:"optionsList,omitempty"`
}

// Property is the fragment describing a single form field.
type Property struct {
	Type          string         `json:"type" yaml:"type"`
	Title         string         `json:"title,omitempty" yaml:"title,omitempty"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	ModelValue    any            `json:"modelValue,omitempty" yaml:"modelValue,omitempty"`
	Minimum       *float64       `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum       *float64       `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	MaxLength     *int           `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Choices       []any          `json:"choices,omitempty" yaml:"choices,omitempty"`
	OptionsObject *OptionsSource `json:"optionsObject,omitempty" yaml:"optionsObject,omitempty"`
	MultiTyped    bool           `json:"multiTyped,omitempty" yaml:"multiTyped,omitempty"`
	MultiTypes    []MultiType    `json:"multiTypes,omitempty" yaml:"multiTypes,omitempty"`
	Items         *Schema        `json:"items,omitempty" yaml:"items,omitempty"`
}

// New returns an empty schema ready for programmatic construction.
func New() *Schema {
	return &Schema{
		Properties: orderedmap.New[string, Property](),
		Required:   Required{},
	}
}

// Add appends a property, keeping declaration order. Re-adding a key replaces
// the fragment in place.
func (s *Schema) Add(key string, prop Property) *Schema {
	if s.Properties == nil {
		s.Properties = orderedmap.New[string, Property]()
	}
	s.Properties.Set(key, prop)
	return s
}

// Require marks keys as required.
func (s *Schema) Require(keys ...string) *Schema {
	if s.Required == nil {
		s.Required = Required{}
	}
	for _, key := range keys {
		s.Required[key] = true
	}
	return s
}

// Define registers a reusable definition addressable from "$$ref".
func (s *Schema) Define(name string, def Schema) *Schema {
	if s.Definitions == nil {
		s.Definitions = orderedmap.New[string, Schema]()
	}
	s.Definitions.Set(name, def)
	return s
}

// Keys lists property keys in declaration order.
func (s Schema) Keys() []string {
	if s.Properties == nil {
		return nil
	}
	keys := make([]string, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// HasProperties reports whether the schema declares any property.
func (s Schema) HasProperties() bool {
	return s.Properties != nil && s.Properties.Len() > 0
}

// Definition looks up a reusable definition. Refs may be bare names or JSON
// pointers into "definitions" / "$defs".
func (s Schema) Definition(ref string) (Schema, bool) {
	if s.Definitions == nil {
		return Schema{}, false
	}
	return s.Definitions.Get(DefinitionName(ref))
}

// DefinitionName strips pointer prefixes from a ref.
func DefinitionName(ref string) string {
	name := strings.TrimSpace(ref)
	for _, prefix := range []string{"#/definitions/", "#/$defs/", "#/components/schemas/"} {
		if strings.HasPrefix(name, prefix) {
			return strings.TrimPrefix(name, prefix)
		}
	}
	return name
}

// Required holds the keys flagged as required. Documents may encode it as an
// object of flags or as a list of keys. Flags follow truthiness: false, 0,
// "", null and empty collections leave a key optional.
type Required map[string]bool

// Has reports whether key is present and truthy.
func (r Required) Has(key string) bool {
	return r[key]
}

// UnmarshalJSON accepts both {"key": true} and ["key"].
func (r *Required) UnmarshalJSON(data []byte) error {
	var flags map[string]any
	if err := json.Unmarshal(data, &flags); err == nil {
		*r = requiredFromFlags(flags)
		return nil
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return errors.New("schema: required must be an object of flags or a list of keys")
	}
	*r = requiredFromKeys(keys)
	return nil
}

// UnmarshalYAML accepts both mapping and sequence nodes.
func (r *Required) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var keys []string
		if err := node.Decode(&keys); err != nil {
			return err
		}
		*r = requiredFromKeys(keys)
		return nil
	case yaml.MappingNode:
		var flags map[string]any
		if err := node.Decode(&flags); err != nil {
			return err
		}
		*r = requiredFromFlags(flags)
		return nil
	default:
		return errors.New("schema: required must be a mapping or a sequence")
	}
}

func requiredFromFlags(flags map[string]any) Required {
	out := make(Required, len(flags))
	for key, flag := range flags {
		out[key] = truthy(flag)
	}
	return out
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case uint64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func requiredFromKeys(keys []string) Required {
	out := make(Required, len(keys))
	for _, key := range keys {
		out[key] = true
	}
	return out
}

// OptionsMode tells the rendering layer whether option lists are inline or
// fetched.
type OptionsMode string

const (
	OptionsSync  OptionsMode = "sync"
	OptionsAsync OptionsMode = "async"
)

// ListMethod fetches options for a choice field. It is recorded for the
// rendering layer and never invoked while building fields.
type ListMethod func(ctx context.Context, query string) ([]any, error)

// OptionsSource describes how a choice field obtains its selectable items.
type OptionsSource struct {
	Mode       OptionsMode `json:"mode" yaml:"mode"`
	ListMethod ListMethod  `json:"-" yaml:"-"`
	Options    []any       `json:"options" yaml:"options"`
	Endpoint   *Endpoint   `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// Endpoint describes a remote option list. It is only metadata here; a
// provider turns it into a ListMethod.
type Endpoint struct {
	URL         string            `json:"url" yaml:"url"`
	Method      string            `json:"method,omitempty" yaml:"method,omitempty"`
	ResultsPath string            `json:"resultsPath,omitempty" yaml:"resultsPath,omitempty"`
	SearchParam string            `json:"searchParam,omitempty" yaml:"searchParam,omitempty"`
	Params      map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	ValueKey    string            `json:"valueKey,omitempty" yaml:"valueKey,omitempty"`
	LabelKey    string            `json:"labelKey,omitempty" yaml:"labelKey,omitempty"`
}

// NewOptionsSource returns an empty source in the given mode.
func NewOptionsSource(mode OptionsMode) *OptionsSource {
	return &OptionsSource{Mode: mode, Options: []any{}}
}

// SetListMethod records the provider used for async option lists.
func (o *OptionsSource) SetListMethod(fn ListMethod) {
	o.ListMethod = fn
}

// SetOptions replaces the inline option list.
func (o *OptionsSource) SetOptions(options []any) {
	o.Options = options
}

// IsAsync reports whether options are fetched by the rendering layer.
func (o *OptionsSource) IsAsync() bool {
	return o != nil && o.Mode == OptionsAsync
}

// Clone copies the descriptor so field definitions do not share option
// slices. The provider function itself is shared.
func (o *OptionsSource) Clone() *OptionsSource {
	if o == nil {
		return nil
	}
	clone := *o
	if o.Options != nil {
		clone.Options = make([]any, len(o.Options))
		for idx, option := range o.Options {
			clone.Options[idx] = CloneValue(option)
		}
	}
	if o.Endpoint != nil {
		endpoint := *o.Endpoint
		if o.Endpoint.Params != nil {
			endpoint.Params = make(map[string]string, len(o.Endpoint.Params))
			for key, value := range o.Endpoint.Params {
				endpoint.Params[key] = value
			}
		}
		clone.Endpoint = &endpoint
	}
	return &clone
}

// MultiType describes one variant of a polymorphic array item.
type MultiType struct {
	Type     string         `json:"type" yaml:"type"`
	Title    string         `json:"title,omitempty" yaml:"title,omitempty"`
	Prefills map[string]any `json:"prefills,omitempty" yaml:"prefills,omitempty"`
}

// Clone returns a copy whose prefills share nothing with m.
func (m MultiType) Clone() MultiType {
	if m.Prefills != nil {
		m.Prefills = cloneMap(m.Prefills)
	}
	return m
}

// CloneValue deep-copies the containers a decoded document can hold: []any,
// map[string]any and map[string]string, recursing into their elements.
// Other values are returned as is.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case []any:
		if typed == nil {
			return typed
		}
		out := make([]any, len(typed))
		for idx, item := range typed {
			out[idx] = CloneValue(item)
		}
		return out
	case []string:
		if typed == nil {
			return typed
		}
		return append([]string{}, typed...)
	case map[string]any:
		if typed == nil {
			return typed
		}
		return cloneMap(typed)
	case map[string]string:
		if typed == nil {
			return typed
		}
		out := make(map[string]string, len(typed))
		for key, item := range typed {
			out[key] = item
		}
		return out
	default:
		return value
	}
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, item := range in {
		out[key] = CloneValue(item)
	}
	return out
}

// NewMultiType builds a MultiType descriptor.
func NewMultiType(typ, title string, prefills map[string]any) MultiType {
	return MultiType{Type: typ, Title: title, Prefills: prefills}
}
