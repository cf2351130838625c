package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formdef/pkg/schema"
)

// Transformer mutates a decoded schema before it is converted. Implementations
// can retitle properties, change required flags or seed model values.
type Transformer interface {
	Transform(ctx context.Context, s *schema.Schema) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, s *schema.Schema) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, s *schema.Schema) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, s)
}

// PresetTransformer applies declarative property patches loaded from a JSON or
// YAML document:
//
//	fields:
//	  name:
//	    title: Full name
//	    required: true
//	  addresses.items.street:
//	    modelValue: Main St
//
// A ".items." segment descends into the array item schema, following a
// "$$ref" into the root definitions when the items are not inline.
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Fields map[string]propertyPatch `yaml:"fields"`
}

type propertyPatch struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Type        string `yaml:"type"`
	Required    *bool  `yaml:"required"`
	ModelValue  any    `yaml:"modelValue"`
}

// NewPresetTransformer constructs a transformer from raw JSON or YAML bytes.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from the provided
// filesystem path.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the patches onto s.
func (t *PresetTransformer) Transform(ctx context.Context, s *schema.Schema) error {
	if s == nil {
		return errors.New("preset transformer: schema is nil")
	}
	for path, patch := range t.document.Fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		owner, key, err := locate(s, s, strings.Split(path, "."))
		if err != nil {
			return fmt.Errorf("preset transformer: field %q: %w", path, err)
		}
		prop, _ := owner.Properties.Get(key)
		owner.Properties.Set(key, applyPatch(prop, patch))
		if patch.Required != nil {
			if owner.Required == nil {
				owner.Required = schema.Required{}
			}
			if *patch.Required {
				owner.Required[key] = true
			} else {
				delete(owner.Required, key)
			}
		}
	}
	return nil
}

// locate walks segments and returns the schema owning the final key.
func locate(root, current *schema.Schema, segments []string) (*schema.Schema, string, error) {
	head := segments[0]
	if current.Properties == nil {
		return nil, "", errors.New("not found")
	}
	prop, ok := current.Properties.Get(head)
	if !ok {
		return nil, "", errors.New("not found")
	}
	if len(segments) == 1 {
		return current, head, nil
	}
	if segments[1] != "items" || len(segments) < 3 || prop.Items == nil {
		return nil, "", errors.New("only array items can be descended into")
	}
	items := prop.Items
	if !items.HasProperties() && items.Ref != "" {
		name := schema.DefinitionName(items.Ref)
		if root.Definitions == nil {
			return nil, "", fmt.Errorf("definition %q not found", name)
		}
		def, ok := root.Definitions.Get(name)
		if !ok {
			return nil, "", fmt.Errorf("definition %q not found", name)
		}
		if def.Required == nil {
			def.Required = schema.Required{}
			root.Definitions.Set(name, def)
		}
		return locate(root, &def, segments[2:])
	}
	return locate(root, items, segments[2:])
}

func applyPatch(prop schema.Property, patch propertyPatch) schema.Property {
	if patch.Title != "" {
		prop.Title = patch.Title
	}
	if patch.Description != "" {
		prop.Description = patch.Description
	}
	if patch.Type != "" {
		prop.Type = patch.Type
	}
	if patch.ModelValue != nil {
		prop.ModelValue = patch.ModelValue
	}
	return prop
}
