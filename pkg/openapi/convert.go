package openapi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdef/pkg/fields"
	"github.com/goliatone/go-formdef/pkg/schema"
)

const componentRefPrefix = "#/components/schemas/"

type converter struct {
	components openapi3.Schemas
	opts       Options
	queued     map[string]struct{}
	referenced map[string]struct{}
	pending    []string
}

// object converts an object schema. kin-openapi keeps properties in a map, so
// order follows x-formdef-order and then the property name.
func (c *converter) object(src *openapi3.Schema) schema.Schema {
	out := schema.New()
	out.Title = src.Title
	for _, key := range propertyOrder(src) {
		prop, ok := c.property(key, src.Properties[key])
		if !ok {
			continue
		}
		out.Add(key, prop)
	}
	for _, key := range src.Required {
		if _, ok := out.Properties.Get(key); ok {
			out.Require(key)
		}
	}
	return *out
}

func (c *converter) property(key string, ref *openapi3.SchemaRef) (schema.Property, bool) {
	if ref == nil || ref.Value == nil {
		return schema.Property{}, false
	}
	src := ref.Value
	tag := c.tag(src)
	if tag == "" {
		c.opts.Logger.Debug("openapi property skipped",
			zap.String("key", key),
			zap.Strings("type", schemaTypes(src)),
		)
		return schema.Property{}, false
	}

	prop := schema.Property{
		Type:        tag,
		Title:       src.Title,
		Description: src.Description,
		ModelValue:  src.Default,
	}
	if src.Min != nil {
		value := *src.Min
		prop.Minimum = &value
	}
	if src.Max != nil {
		value := *src.Max
		prop.Maximum = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		prop.MaxLength = &value
	}

	switch tag {
	case fields.TagSingleChoiceSelect:
		prop.Choices = enumChoices(src.Enum, src.Extensions)
	case fields.TagChoices:
		if src.Items != nil && src.Items.Value != nil {
			prop.Choices = append([]any(nil), src.Items.Value.Enum...)
		} else {
			prop.Choices = append([]any(nil), src.Enum...)
		}
	case fields.TagAsyncTextSearch:
		prop.OptionsObject = asyncOptions(src)
	case fields.TagArray:
		items, ok := c.items(src.Items)
		if !ok {
			c.opts.Logger.Debug("openapi array skipped", zap.String("key", key))
			return schema.Property{}, false
		}
		prop.Items = items
		prop.MultiTypes = multiTypes(src.Extensions[extMultiTypes])
		prop.MultiTyped = len(prop.MultiTypes) > 0
	}
	return prop, true
}

// items maps an array item schema. Component references are queued as
// definitions; inline objects are expanded in place.
func (c *converter) items(ref *openapi3.SchemaRef) (*schema.Schema, bool) {
	if ref == nil {
		return nil, false
	}
	if name, ok := componentName(ref.Ref); ok {
		c.reference(name)
		return &schema.Schema{Ref: componentRefPrefix + name}, true
	}
	if ref.Value == nil {
		return nil, false
	}
	if len(ref.Value.Properties) > 0 {
		inline := c.object(ref.Value)
		return &inline, true
	}
	primitive := firstType(ref.Value)
	if primitive == "" {
		return nil, false
	}
	return &schema.Schema{Type: primitive}, true
}

func (c *converter) reference(name string) {
	if c.referenced == nil {
		c.referenced = make(map[string]struct{})
	}
	c.referenced[name] = struct{}{}
	if _, ok := c.queued[name]; ok {
		return
	}
	c.queued[name] = struct{}{}
	c.pending = append(c.pending, name)
}

// tag picks the field type tag for a schema object. Explicit extensions win,
// then relationship and endpoint hints, then enums, then the primitive type.
func (c *converter) tag(src *openapi3.Schema) string {
	if explicit, ok := src.Extensions[extType].(string); ok && strings.TrimSpace(explicit) != "" {
		return strings.TrimSpace(explicit)
	}
	primitive := firstType(src)
	if _, ok := src.Extensions[extRelationships]; ok && primitive != "array" {
		return fields.TagForeignKey
	}
	if _, ok := src.Extensions[extEndpoint]; ok && primitive == "string" {
		return fields.TagAsyncTextSearch
	}
	if len(src.Enum) > 0 && (primitive == "string" || primitive == "integer") {
		return fields.TagSingleChoiceSelect
	}
	if primitive == "array" && src.Items != nil && src.Items.Value != nil && len(src.Items.Value.Enum) > 0 {
		return fields.TagChoices
	}
	if mapped, ok := c.opts.TypeMap[primitive]; ok && mapped != "" {
		return mapped
	}
	switch primitive {
	case "string":
		return fields.TagString
	case "integer":
		return fields.TagInteger
	case "number":
		return fields.TagNumber
	case "boolean":
		return fields.TagBoolean
	case "array":
		return fields.TagArray
	default:
		return ""
	}
}

func componentName(ref string) (string, bool) {
	if !strings.HasPrefix(ref, componentRefPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, componentRefPrefix)
	return name, name != ""
}

func schemaTypes(src *openapi3.Schema) []string {
	if src.Type == nil {
		return nil
	}
	return src.Type.Slice()
}

// firstType returns the first non-null declared type.
func firstType(src *openapi3.Schema) string {
	for _, typ := range schemaTypes(src) {
		if typ != "null" {
			return typ
		}
	}
	return ""
}

func propertyOrder(src *openapi3.Schema) []string {
	seen := make(map[string]struct{}, len(src.Properties))
	order := make([]string, 0, len(src.Properties))
	for _, key := range stringList(src.Extensions[extOrder]) {
		if _, ok := src.Properties[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		order = append(order, key)
	}

	rest := make([]string, 0, len(src.Properties))
	for key := range src.Properties {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// enumChoices builds {value, display} pairs, taking display text from
// x-enumNames when it lines up with the enum.
func enumChoices(enum []any, ext map[string]any) []any {
	names := stringList(ext[extEnumNames])
	choices := make([]any, 0, len(enum))
	for idx, value := range enum {
		display := fmt.Sprint(value)
		if len(names) == len(enum) && names[idx] != "" {
			display = names[idx]
		}
		choices = append(choices, map[string]any{"value": value, "display": display})
	}
	return choices
}

func asyncOptions(src *openapi3.Schema) *schema.OptionsSource {
	options := schema.NewOptionsSource(schema.OptionsAsync)
	if len(src.Enum) > 0 {
		options.SetOptions(append([]any(nil), src.Enum...))
	}
	options.Endpoint = endpoint(src.Extensions[extEndpoint])
	return options
}
