package fields

import (
	"encoding/json"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/goliatone/go-formdef/pkg/schema"
)

// OptionsSource and MultiTypeDescriptor re-export the schema value objects so
// callers working with fields need not import the schema package.
type (
	OptionsSource       = schema.OptionsSource
	MultiTypeDescriptor = schema.MultiType
)

// NumericSpec carries slider hints for integer, number and foreign-key fields.
type NumericSpec struct {
	Step float64
	Min  *float64
	Max  *float64
}

// TextSpec carries text input hints.
type TextSpec struct {
	MaxLength *int
}

// SelectSpec carries the candidate items of a single-select field and the
// item keys holding the stored value and the display text.
type SelectSpec struct {
	Items      []any
	ValueKey   string
	DisplayKey string
}

// ArraySpec carries nested field definitions for array fields. Items that
// reference a sub-schema populate SubFields, or TypedSubFields when the array
// is multi-typed. Inline option items populate OptionsType and OptionsList.
type ArraySpec struct {
	SubSchema      bool
	SubFields      []*FieldDef
	MultiTyped     bool
	MultiTypes     []MultiTypeDescriptor
	TypedSubFields map[string][]*FieldDef
	OptionsType    string
	OptionsList    *orderedmap.OrderedMap[string, any]
}

// Observer is notified after a field's model value changes.
type Observer func(old, new any)

type subscription struct {
	id int
	fn Observer
}

// FieldDef is the view model for one form field. Kind selects which of the
// variant payloads (Numeric, Text, Select, Choices, Array) is populated;
// single-select fields carry Text alongside Select.
// The model value is the only state expected to change after Build; it is
// read and written through ModelValue and SetModelValue so subscribers can
// track edits.
type FieldDef struct {
	ID            string
	Key           string
	Title         string
	Type          string
	Kind          Kind
	Required      bool
	Rules         []Rule
	NumRendered   int
	Widget        string
	OptionsObject *OptionsSource

	Numeric *NumericSpec
	Text    *TextSpec
	Select  *SelectSpec
	Choices []any
	Array   *ArraySpec

	mu        sync.Mutex
	value     any
	observers []subscription
	nextSub   int
}

func newField(kind Kind) *FieldDef {
	return &FieldDef{
		Kind:        kind,
		NumRendered: 1,
		Widget:      kind.DefaultWidget(),
		value:       kind.DefaultValue(),
	}
}

// ModelValue returns the current value.
func (f *FieldDef) ModelValue() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// SetModelValue stores value and notifies subscribers in subscription order.
// Observers run outside the field lock and may read the field.
func (f *FieldDef) SetModelValue(value any) {
	f.mu.Lock()
	old := f.value
	f.value = value
	observers := make([]Observer, 0, len(f.observers))
	for _, sub := range f.observers {
		observers = append(observers, sub.fn)
	}
	f.mu.Unlock()

	for _, fn := range observers {
		fn(old, value)
	}
}

// Subscribe registers fn for value changes and returns a cancel function.
func (f *FieldDef) Subscribe(fn Observer) func() {
	if fn == nil {
		return func() {}
	}
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.observers = append(f.observers, subscription{id: id, fn: fn})
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			for idx, sub := range f.observers {
				if sub.id == id {
					f.observers = append(f.observers[:idx], f.observers[idx+1:]...)
					return
				}
			}
		})
	}
}

// Validate evaluates every rule against value and returns the failure
// messages in rule order. A nil result means the value is acceptable.
func (f *FieldDef) Validate(value any) []string {
	var messages []string
	for _, rule := range f.Rules {
		if msg, ok := rule.Check(value); !ok {
			messages = append(messages, msg)
		}
	}
	return messages
}

// label is the name used in rule messages.
func (f *FieldDef) label() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Key
}

// Build populates the field from a property fragment: title, type, rules and
// initial value, then the variant specifics. nested is used by array fields
// to convert item schemas.
func (f *FieldDef) Build(frag schema.Property, nested SchemaConverter) error {
	f.NumRendered = 1
	f.Title = frag.Title
	f.Type = frag.Type
	f.Rules = nil

	initial := cloneValue(frag.ModelValue)
	if initial == nil {
		initial = f.Kind.DefaultValue()
	}
	f.mu.Lock()
	f.value = initial
	f.mu.Unlock()

	if f.Required {
		f.Rules = append(f.Rules, requiredRule(f.label()))
	}

	switch f.Kind {
	case KindInteger, KindForeignKey:
		buildNumeric(f, frag)
	case KindText, KindAsyncTextSearch:
		buildText(f, frag)
	case KindCheckbox:
	case KindCheckboxGroup:
		buildCheckboxGroup(f, frag)
	case KindSingleSelect:
		buildSingleSelect(f, frag)
	case KindArray:
		return buildArray(f, frag, nested)
	default:
		return &UnknownFieldTypeError{Tag: frag.Type, Key: f.Key}
	}
	return nil
}

type fieldJSON struct {
	ID            string                              `json:"id"`
	Key           string                              `json:"key"`
	Title         string                              `json:"title,omitempty"`
	Type          string                              `json:"type"`
	Kind          Kind                                `json:"kind"`
	Required      bool                                `json:"required"`
	Widget        string                              `json:"widgetKind,omitempty"`
	NumRendered   int                                 `json:"numRendered"`
	ModelValue    any                                 `json:"modelValue"`
	Rules         []Rule                              `json:"rules"`
	OptionsObject *OptionsSource                      `json:"optionsObject,omitempty"`
	Step          *float64                            `json:"step,omitempty"`
	Min           *float64                            `json:"min,omitempty"`
	Max           *float64                            `json:"max,omitempty"`
	MaxLength     *int                                `json:"maxLength,omitempty"`
	Items         []any                               `json:"items,omitempty"`
	ValueKey      string                              `json:"valueKey,omitempty"`
	DisplayKey    string                              `json:"displayKey,omitempty"`
	Choices       []any                               `json:"choices,omitempty"`
	SubSchema     bool                                `json:"subSchema,omitempty"`
	SubFields     any                                 `json:"subFields,omitempty"`
	MultiTyped    bool                                `json:"multiTyped,omitempty"`
	MultiTypes    []MultiTypeDescriptor               `json:"multiTypes,omitempty"`
	OptionsType   string                              `json:"optionsType,omitempty"`
	OptionsList   *orderedmap.OrderedMap[string, any] `json:"optionsList,omitempty"`
}

// MarshalJSON flattens the variant payload into a single object, the shape
// form renderers read.
func (f *FieldDef) MarshalJSON() ([]byte, error) {
	out := fieldJSON{
		ID:            f.ID,
		Key:           f.Key,
		Title:         f.Title,
		Type:          f.Type,
		Kind:          f.Kind,
		Required:      f.Required,
		Widget:        f.Widget,
		NumRendered:   f.NumRendered,
		ModelValue:    f.ModelValue(),
		Rules:         f.Rules,
		OptionsObject: f.OptionsObject,
		Choices:       f.Choices,
	}
	if out.Rules == nil {
		out.Rules = []Rule{}
	}
	if f.Numeric != nil {
		step := f.Numeric.Step
		out.Step = &step
		out.Min = f.Numeric.Min
		out.Max = f.Numeric.Max
	}
	if f.Text != nil {
		out.MaxLength = f.Text.MaxLength
	}
	if f.Select != nil {
		out.Items = f.Select.Items
		out.ValueKey = f.Select.ValueKey
		out.DisplayKey = f.Select.DisplayKey
	}
	if f.Array != nil {
		out.SubSchema = f.Array.SubSchema
		out.MultiTyped = f.Array.MultiTyped
		out.MultiTypes = f.Array.MultiTypes
		out.OptionsType = f.Array.OptionsType
		out.OptionsList = f.Array.OptionsList
		switch {
		case f.Array.MultiTyped:
			out.SubFields = f.Array.TypedSubFields
		case f.Array.SubSchema:
			out.SubFields = f.Array.SubFields
		}
	}
	return json.Marshal(out)
}
