package fields

import "github.com/goliatone/go-formdef/pkg/schema"

// ModelsHolder owns the field list built from one schema.
type ModelsHolder struct {
	fields []*FieldDef
}

// NewModelsHolder converts s once. A nil converter uses the default one.
func NewModelsHolder(s schema.Schema, converter SchemaConverter) (*ModelsHolder, error) {
	if converter == nil {
		converter = defaultConverter
	}
	fields, err := converter.SchemaToFields(s)
	if err != nil {
		return nil, err
	}
	return &ModelsHolder{fields: fields}, nil
}

// Fields returns the built fields in declaration order.
func (h *ModelsHolder) Fields() []*FieldDef {
	return h.fields
}

// FieldByID returns the first field whose ID equals id.
func (h *ModelsHolder) FieldByID(id string) (*FieldDef, bool) {
	for _, field := range h.fields {
		if field.ID == id {
			return field, true
		}
	}
	return nil, false
}

// Values snapshots the current model values keyed by field key.
func (h *ModelsHolder) Values() map[string]any {
	out := make(map[string]any, len(h.fields))
	for _, field := range h.fields {
		out[field.Key] = field.ModelValue()
	}
	return out
}
