package openapi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formdef/pkg/fields"
)

const extensionNamespace = "x-formdef"

// Violation reports a malformed form extension.
type Violation struct {
	File     string
	Location string
	Message  string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s -> %s", v.File, v.Location, v.Message)
}

// Lint checks the form extensions of every component schema. Tags are
// checked against factory, or the built-in tag table when factory is nil.
// Violations are sorted by location.
func (s *Spec) Lint(factory *fields.Factory) []Violation {
	if factory == nil {
		factory = fields.NewFactory()
	}
	l := &linter{file: s.source, factory: factory, typeMap: s.opts.TypeMap}

	names := make([]string, 0, len(s.doc.Components.Schemas))
	for name := range s.doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ref := s.doc.Components.Schemas[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		l.schema([]string{"components", "schemas", name}, ref.Value)
	}

	sort.SliceStable(l.out, func(i, j int) bool {
		if l.out[i].Location == l.out[j].Location {
			return l.out[i].Message < l.out[j].Message
		}
		return l.out[i].Location < l.out[j].Location
	})
	return l.out
}

type linter struct {
	file    string
	factory *fields.Factory
	typeMap map[string]string
	out     []Violation
}

func (l *linter) report(path []string, format string, args ...any) {
	l.out = append(l.out, Violation{
		File:     l.file,
		Location: strings.Join(path, "."),
		Message:  fmt.Sprintf(format, args...),
	})
}

func (l *linter) schema(path []string, src *openapi3.Schema) {
	l.extensions(path, src)

	keys := make([]string, 0, len(src.Properties))
	for key := range src.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		ref := src.Properties[key]
		// Component references are linted where they are declared.
		if ref == nil || ref.Value == nil || ref.Ref != "" {
			continue
		}
		l.schema(appendPath(path, "properties", key), ref.Value)
	}

	if src.Items != nil && src.Items.Value != nil && src.Items.Ref == "" {
		l.schema(appendPath(path, "items"), src.Items.Value)
	}
}

func (l *linter) extensions(path []string, src *openapi3.Schema) {
	keys := make([]string, 0, len(src.Extensions))
	for key := range src.Extensions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := src.Extensions[key]
		switch key {
		case extType:
			l.typeHint(path, value)
		case extOrder:
			l.orderHint(path, src, value)
		case extMultiTypes:
			l.multiTypesHint(path, src, value)
		case extEnumNames:
			names, ok := value.([]any)
			if !ok {
				l.report(path, "%s must be a list, found %T", extEnumNames, value)
				continue
			}
			if len(names) != len(src.Enum) {
				l.report(path, "%s has %d entries for %d enum values", extEnumNames, len(names), len(src.Enum))
			}
		case extEndpoint:
			if endpoint(value) == nil {
				l.report(path, "%s must be a URL or an object with a url", extEndpoint)
			}
		default:
			if strings.HasPrefix(key, extensionNamespace+"-") {
				l.report(path, "unsupported extension %q", key)
			}
		}
	}
}

func (l *linter) typeHint(path []string, value any) {
	tag, ok := value.(string)
	if !ok || strings.TrimSpace(tag) == "" {
		l.report(path, "%s must be a non-empty string, found %T", extType, value)
		return
	}
	if _, ok := l.factory.Kind(strings.TrimSpace(tag)); ok {
		return
	}
	for _, mapped := range l.typeMap {
		if mapped == tag {
			return
		}
	}
	l.report(path, "%s %q is not a known field type (known: %s)", extType, tag, strings.Join(l.factory.Tags(), ", "))
}

func (l *linter) orderHint(path []string, src *openapi3.Schema, value any) {
	if _, ok := value.([]any); !ok {
		l.report(path, "%s must be a list of property names, found %T", extOrder, value)
		return
	}
	seen := make(map[string]struct{})
	for _, key := range stringList(value) {
		if _, dup := seen[key]; dup {
			l.report(path, "%s lists %q twice", extOrder, key)
			continue
		}
		seen[key] = struct{}{}
		if _, ok := src.Properties[key]; !ok {
			l.report(path, "%s names unknown property %q", extOrder, key)
		}
	}
}

func (l *linter) multiTypesHint(path []string, src *openapi3.Schema, value any) {
	if firstType(src) != "array" {
		l.report(path, "%s is only valid on arrays", extMultiTypes)
	}
	raw, ok := value.([]any)
	if !ok {
		l.report(path, "%s must be a list, found %T", extMultiTypes, value)
		return
	}
	if parsed := multiTypes(value); len(parsed) != len(raw) {
		l.report(path, "%s has %d entries without a type", extMultiTypes, len(raw)-len(parsed))
	}
}

func appendPath(path []string, segments ...string) []string {
	out := make([]string, 0, len(path)+len(segments))
	out = append(out, path...)
	return append(out, segments...)
}
