package fields

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/goliatone/go-formdef/pkg/schema"
)

func buildNumeric(f *FieldDef, frag schema.Property) {
	spec := &NumericSpec{Step: 1}
	if f.Type == "number" {
		spec.Step = 0.1
	}
	if frag.Minimum != nil {
		limit := *frag.Minimum
		spec.Min = &limit
		f.Rules = append(f.Rules, minRule(limit))
	}
	if frag.Maximum != nil {
		limit := *frag.Maximum
		spec.Max = &limit
		f.Rules = append(f.Rules, maxRule(limit))
	}
	f.Numeric = spec
}

func buildText(f *FieldDef, frag schema.Property) {
	spec := &TextSpec{}
	if frag.MaxLength != nil {
		limit := *frag.MaxLength
		spec.MaxLength = &limit
		f.Rules = append(f.Rules, maxLengthRule(limit))
	}
	f.Text = spec
}

// buildSingleSelect keeps the text hints and rules; maxLength measures the
// selected item's display text.
func buildSingleSelect(f *FieldDef, frag schema.Property) {
	buildText(f, frag)
	f.Select = &SelectSpec{
		Items:      cloneSlice(frag.Choices),
		ValueKey:   "value",
		DisplayKey: "display",
	}
}

func buildCheckboxGroup(f *FieldDef, frag schema.Property) {
	f.Choices = cloneSlice(frag.Choices)
	f.Type = "checkbox"
}

// buildArray handles both item shapes: a sub-schema (referenced or inline),
// optionally multi-typed, or an inline option list.
func buildArray(f *FieldDef, frag schema.Property, nested SchemaConverter) error {
	if frag.Items == nil {
		return ErrMissingItems
	}
	items := *frag.Items
	spec := &ArraySpec{}
	f.Array = spec

	if items.Ref == "" && !items.HasProperties() {
		spec.OptionsType = items.Type
		spec.OptionsList = cloneOptions(items.OptionsList)
		return nil
	}

	multiTyped := frag.MultiTyped || items.MultiTyped
	multiTypes := frag.MultiTypes
	if len(multiTypes) == 0 {
		multiTypes = items.MultiTypes
	}

	if !multiTyped {
		sub, err := nested.ItemFields(items)
		if err != nil {
			return err
		}
		spec.SubFields = sub
		spec.SubSchema = true
		return nil
	}

	spec.MultiTyped = true
	spec.MultiTypes = make([]MultiTypeDescriptor, len(multiTypes))
	for idx, multiType := range multiTypes {
		spec.MultiTypes[idx] = multiType.Clone()
	}
	spec.TypedSubFields = make(map[string][]*FieldDef, len(multiTypes))
	for _, multiType := range multiTypes {
		sub, err := nested.ItemFields(items)
		if err != nil {
			return err
		}
		spec.TypedSubFields[multiType.Type] = sub
	}
	spec.SubSchema = true
	return nil
}

func cloneSlice(in []any) []any {
	if in == nil {
		return nil
	}
	out, _ := schema.CloneValue(in).([]any)
	return out
}

// cloneValue deep-copies a model value so fields built from the same
// fragment never share containers.
func cloneValue(value any) any {
	switch typed := value.(type) {
	case SelectValue:
		return SelectValue{Value: schema.CloneValue(typed.Value), Display: schema.CloneValue(typed.Display)}
	case *SelectValue:
		if typed == nil {
			return typed
		}
		return &SelectValue{Value: schema.CloneValue(typed.Value), Display: schema.CloneValue(typed.Display)}
	default:
		return schema.CloneValue(value)
	}
}

func cloneOptions(in *orderedmap.OrderedMap[string, any]) *orderedmap.OrderedMap[string, any] {
	if in == nil {
		return nil
	}
	out := orderedmap.New[string, any]()
	for pair := in.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, schema.CloneValue(pair.Value))
	}
	return out
}
