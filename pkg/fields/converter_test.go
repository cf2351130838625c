package fields_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-formdef/pkg/fields"
	"github.com/goliatone/go-formdef/pkg/schema"
)

func fieldKeys(list []*fields.FieldDef) []string {
	keys := make([]string, 0, len(list))
	for _, field := range list {
		keys = append(keys, field.Key)
	}
	return keys
}

func addressSchema() schema.Schema {
	return *schema.New().
		Add("street", schema.Property{Type: "string", MaxLength: ptr(64)}).
		Add("zip", schema.Property{Type: "integer"}).
		Require("street")
}

func TestSchemaToFields_PreservesDeclarationOrder(t *testing.T) {
	sc := schema.New().
		Add("zeta", schema.Property{Type: "string"}).
		Add("alpha", schema.Property{Type: "integer"}).
		Add("mid", schema.Property{Type: "boolean"}).
		Add("beta", schema.Property{Type: "fkey"})

	built, err := fields.SchemaToFields(*sc)
	if err != nil {
		t.Fatalf("schema to fields: %v", err)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "mid", "beta"}, fieldKeys(built)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	for _, field := range built {
		if field.ID != field.Key {
			t.Fatalf("expected id and key to match, got %q/%q", field.ID, field.Key)
		}
	}
}

func TestSchemaToFields_RequiredAndOptions(t *testing.T) {
	options := schema.NewOptionsSource(schema.OptionsAsync)
	options.SetOptions([]any{"a", "b"})

	sc := schema.New().
		Add("owner", schema.Property{Type: "async-text-search", OptionsObject: options}).
		Add("note", schema.Property{Type: "string"})
	sc.Required = schema.Required{"owner": true, "note": false}

	built, err := fields.SchemaToFields(*sc)
	if err != nil {
		t.Fatalf("schema to fields: %v", err)
	}
	owner, note := built[0], built[1]
	if !owner.Required || note.Required {
		t.Fatalf("required flags mismatch: owner=%v note=%v", owner.Required, note.Required)
	}
	if _, ok := findRule(note, fields.RuleRequired); ok {
		t.Fatalf("optional field must not carry a required rule")
	}
	if owner.OptionsObject == nil || !owner.OptionsObject.IsAsync() {
		t.Fatalf("expected async options object, got %+v", owner.OptionsObject)
	}
	if owner.OptionsObject == options {
		t.Fatalf("options object must be copied, not shared")
	}
	if note.OptionsObject != nil {
		t.Fatalf("expected no options object on note")
	}
}

func TestSchemaToFields_ModelValueOverridesDefault(t *testing.T) {
	sc := schema.New().
		Add("count", schema.Property{Type: "integer", ModelValue: 7.0}).
		Add("name", schema.Property{Type: "string", ModelValue: "Ada"}).
		Add("ref", schema.Property{Type: "fkey"})

	built, err := fields.SchemaToFields(*sc)
	if err != nil {
		t.Fatalf("schema to fields: %v", err)
	}
	if got := built[0].ModelValue(); got != 7.0 {
		t.Fatalf("expected 7, got %v", got)
	}
	if got := built[1].ModelValue(); got != "Ada" {
		t.Fatalf("expected Ada, got %v", got)
	}
	if got := built[2].ModelValue(); got != nil {
		t.Fatalf("expected foreign key to start unset, got %v", got)
	}
}

func TestSchemaToFields_ChoiceVariants(t *testing.T) {
	choices := []any{
		map[string]any{"value": "s", "display": "<b>Small</b>"},
		map[string]any{"value": "l", "display": "Large"},
	}
	sc := schema.New().
		Add("size", schema.Property{Type: "singleChoiceSelect", Choices: choices}).
		Add("tags", schema.Property{Type: "choices", Choices: []any{"red", "<none>", "a<b>c</b>"}})

	built, err := fields.SchemaToFields(*sc)
	if err != nil {
		t.Fatalf("schema to fields: %v", err)
	}

	size := built[0]
	if size.Select == nil || size.Select.ValueKey != "value" || size.Select.DisplayKey != "display" {
		t.Fatalf("unexpected select spec: %+v", size.Select)
	}
	wantItems := []any{
		map[string]any{"value": "s", "display": "Small"},
		map[string]any{"value": "l", "display": "Large"},
	}
	if diff := cmp.Diff(wantItems, size.Select.Items); diff != "" {
		t.Fatalf("select items mismatch (-want +got):\n%s", diff)
	}
	if choices[0].(map[string]any)["display"] != "<b>Small</b>" {
		t.Fatalf("sanitising must not mutate the schema")
	}

	tags := built[1]
	if tags.Type != "checkbox" {
		t.Fatalf("expected checkbox group type to be rewritten, got %q", tags.Type)
	}
	if diff := cmp.Diff([]any{"red", "<none>", "a<b>c</b>"}, tags.Choices); diff != "" {
		t.Fatalf("string choices are stored values and must stay raw (-want +got):\n%s", diff)
	}
	if tags.ModelValue() != nil {
		t.Fatalf("expected checkbox group to start nil")
	}
}

func TestSchemaToFields_ArrayOfReference(t *testing.T) {
	sc := schema.New().
		Add("addresses", schema.Property{Type: "array", Items: &schema.Schema{Ref: "#/definitions/Address"}}).
		Define("Address", addressSchema())

	built, err := fields.SchemaToFields(*sc)
	if err != nil {
		t.Fatalf("schema to fields: %v", err)
	}
	arr := built[0].Array
	if arr == nil || !arr.SubSchema || arr.MultiTyped {
		t.Fatalf("unexpected array spec: %+v", arr)
	}
	if diff := cmp.Diff([]string{"street", "zip"}, fieldKeys(arr.SubFields)); diff != "" {
		t.Fatalf("sub field mismatch (-want +got):\n%s", diff)
	}
	if !arr.SubFields[0].Required {
		t.Fatalf("expected nested required flag to carry over")
	}
	if diff := cmp.Diff([]any{}, built[0].ModelValue()); diff != "" {
		t.Fatalf("expected empty array default (-want +got):\n%s", diff)
	}
}

func TestSchemaToFields_MultiTypedArray(t *testing.T) {
	items := addressSchema()
	items.Ref = "Address"
	sc := schema.New().Add("locations", schema.Property{
		Type:       "array",
		MultiTyped: true,
		MultiTypes: []schema.MultiType{
			schema.NewMultiType("home", "Home", nil),
			schema.NewMultiType("work", "Work", map[string]any{"zip": 1000}),
		},
		Items: &items,
	})

	built, err := fields.SchemaToFields(*sc)
	if err != nil {
		t.Fatalf("schema to fields: %v", err)
	}
	arr := built[0].Array
	if !arr.MultiTyped || !arr.SubSchema {
		t.Fatalf("expected multi-typed sub schema, got %+v", arr)
	}
	if len(arr.TypedSubFields) != 2 {
		t.Fatalf("expected 2 typed sub field sets, got %d", len(arr.TypedSubFields))
	}
	home, work := arr.TypedSubFields["home"], arr.TypedSubFields["work"]
	if diff := cmp.Diff(fieldKeys(home), fieldKeys(work)); diff != "" {
		t.Fatalf("typed sets should share the item schema (-home +work):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"street", "zip"}, fieldKeys(home)); diff != "" {
		t.Fatalf("typed sub field mismatch (-want +got):\n%s", diff)
	}
	if home[0] == work[0] {
		t.Fatalf("each type must own its nested fields")
	}
	if arr.SubFields != nil {
		t.Fatalf("multi-typed arrays keep nested fields keyed by type only")
	}
}

func TestSchemaToFields_MultiTypedOnItems(t *testing.T) {
	items := addressSchema()
	items.Ref = "Address"
	items.MultiTyped = true
	items.MultiTypes = []schema.MultiType{{Type: "a"}, {Type: "b"}}

	built, err := fields.SchemaToFields(*schema.New().Add("list", schema.Property{Type: "array", Items: &items}))
	if err != nil {
		t.Fatalf("schema to fields: %v", err)
	}
	if got := len(built[0].Array.TypedSubFields); got != 2 {
		t.Fatalf("expected flags on the items fragment to be honoured, got %d sets", got)
	}
}

func TestSchemaToFields_InlineOptionItems(t *testing.T) {
	raw := []byte(`{
		"properties": {
			"colours": {
				"type": "array",
				"items": {"type": "enum", "optionsList": {"R": "Red", "G": "Green", "B": "Blue"}}
			}
		}
	}`)
	sc, err := schema.Decode(raw, schema.FormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	built, err := fields.SchemaToFields(sc)
	if err != nil {
		t.Fatalf("schema to fields: %v", err)
	}
	arr := built[0].Array
	if arr.SubSchema || arr.OptionsType != "enum" {
		t.Fatalf("unexpected array spec: %+v", arr)
	}
	var keys []string
	for pair := arr.OptionsList.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	if diff := cmp.Diff([]string{"R", "G", "B"}, keys); diff != "" {
		t.Fatalf("option order mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaToFields_UnknownTypeAborts(t *testing.T) {
	sc := schema.New().
		Add("name", schema.Property{Type: "string"}).
		Add("when", schema.Property{Type: "datetime"})

	built, err := fields.SchemaToFields(*sc)
	if built != nil {
		t.Fatalf("expected no partial result, got %d fields", len(built))
	}
	var unknown *fields.UnknownFieldTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownFieldTypeError, got %v", err)
	}
	if unknown.Tag != "datetime" || unknown.Key != "when" {
		t.Fatalf("unexpected error details: %+v", unknown)
	}
}

func TestSchemaToFields_UnknownNestedTypeAborts(t *testing.T) {
	items := schema.New().Add("bad", schema.Property{Type: "object"})
	items.Ref = "Inline"
	sc := schema.New().Add("list", schema.Property{Type: "array", Items: items})

	_, err := fields.SchemaToFields(*sc)
	if !errors.Is(err, fields.ErrUnknownFieldType) {
		t.Fatalf("expected nested unknown type to propagate, got %v", err)
	}
}

func TestSchemaToFields_ReferenceErrors(t *testing.T) {
	missing := schema.New().Add("list", schema.Property{Type: "array", Items: &schema.Schema{Ref: "Nope"}})
	if _, err := fields.SchemaToFields(*missing); !errors.Is(err, fields.ErrUnresolvedReference) {
		t.Fatalf("expected ErrUnresolvedReference, got %v", err)
	}

	noItems := schema.New().Add("list", schema.Property{Type: "array"})
	if _, err := fields.SchemaToFields(*noItems); !errors.Is(err, fields.ErrMissingItems) {
		t.Fatalf("expected ErrMissingItems, got %v", err)
	}

	node := *schema.New().
		Add("label", schema.Property{Type: "string"}).
		Add("children", schema.Property{Type: "array", Items: &schema.Schema{Ref: "Node"}})
	cyclic := schema.New().
		Add("root", schema.Property{Type: "array", Items: &schema.Schema{Ref: "Node"}}).
		Define("Node", node)
	if _, err := fields.SchemaToFields(*cyclic); !errors.Is(err, fields.ErrCyclicReference) {
		t.Fatalf("expected ErrCyclicReference, got %v", err)
	}
}

func TestSchemaToFields_RepeatedReferenceIsNotACycle(t *testing.T) {
	sc := schema.New().
		Add("billing", schema.Property{Type: "array", Items: &schema.Schema{Ref: "Address"}}).
		Add("shipping", schema.Property{Type: "array", Items: &schema.Schema{Ref: "Address"}}).
		Define("Address", addressSchema())

	built, err := fields.SchemaToFields(*sc)
	if err != nil {
		t.Fatalf("sibling references must resolve independently: %v", err)
	}
	if built[0].Array.SubFields[0] == built[1].Array.SubFields[0] {
		t.Fatalf("sibling arrays must not share nested fields")
	}
}

func TestSchemaToFields_MaxDepth(t *testing.T) {
	leaf := *schema.New().Add("v", schema.Property{Type: "string"})
	mid := *schema.New().Add("leaves", schema.Property{Type: "array", Items: &schema.Schema{Ref: "Leaf"}})
	sc := schema.New().
		Add("mids", schema.Property{Type: "array", Items: &schema.Schema{Ref: "Mid"}}).
		Define("Mid", mid).
		Define("Leaf", leaf)

	if _, err := fields.NewConverter(fields.WithMaxDepth(1)).SchemaToFields(*sc); !errors.Is(err, fields.ErrMaxDepth) {
		t.Fatalf("expected ErrMaxDepth, got %v", err)
	}
	if _, err := fields.NewConverter(fields.WithMaxDepth(2)).SchemaToFields(*sc); err != nil {
		t.Fatalf("expected depth 2 to suffice: %v", err)
	}
}

func TestSchemaToFields_IndependentConversions(t *testing.T) {
	sc := schema.New().
		Add("name", schema.Property{Type: "string", MaxLength: ptr(10)}).
		Add("addresses", schema.Property{Type: "array", Items: &schema.Schema{Ref: "Address"}}).
		Define("Address", addressSchema()).
		Require("name")

	first, err := fields.SchemaToFields(*sc)
	if err != nil {
		t.Fatalf("first conversion: %v", err)
	}
	second, err := fields.SchemaToFields(*sc)
	if err != nil {
		t.Fatalf("second conversion: %v", err)
	}

	firstJSON, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal first: %v", err)
	}
	secondJSON, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal second: %v", err)
	}
	if diff := cmp.Diff(string(firstJSON), string(secondJSON)); diff != "" {
		t.Fatalf("conversions differ (-first +second):\n%s", diff)
	}

	first[0].SetModelValue("changed")
	first[1].Array.SubFields[0].SetModelValue("Main St")
	if second[0].ModelValue() != "" {
		t.Fatalf("second conversion observed a change made to the first")
	}
	if second[1].Array.SubFields[0].ModelValue() != "" {
		t.Fatalf("nested fields must not be shared between conversions")
	}
}

func TestSchemaToFields_ConversionsCopyValues(t *testing.T) {
	items := *schema.New().Add("street", schema.Property{Type: "string"})
	items.MultiTyped = true
	items.MultiTypes = []schema.MultiType{schema.NewMultiType("home", "Home", map[string]any{"zip": 1000})}
	sc := schema.New().
		Add("tags", schema.Property{Type: "array", ModelValue: []any{"a"}, Items: &schema.Schema{Type: "string"}}).
		Add("size", schema.Property{Type: "singleChoiceSelect", Choices: []any{map[string]any{"value": "s", "display": "Small"}}}).
		Add("colours", schema.Property{Type: "choices", Choices: []any{map[string]any{"value": "r", "display": "Red"}}}).
		Add("addresses", schema.Property{Type: "array", Items: &items}).
		Add("meta", schema.Property{Type: "string", ModelValue: map[string]any{"nested": []any{1}}})

	first, err := fields.SchemaToFields(*sc)
	if err != nil {
		t.Fatalf("first conversion: %v", err)
	}
	second, err := fields.SchemaToFields(*sc)
	if err != nil {
		t.Fatalf("second conversion: %v", err)
	}

	first[0].ModelValue().([]any)[0] = "mutated"
	first[1].Select.Items[0].(map[string]any)["value"] = 99
	first[2].Choices[0].(map[string]any)["display"] = "Blue"
	first[3].Array.MultiTypes[0].Prefills["zip"] = 2000
	first[4].ModelValue().(map[string]any)["nested"].([]any)[0] = 2

	if diff := cmp.Diff([]any{"a"}, second[0].ModelValue()); diff != "" {
		t.Fatalf("array model value shared (-want +got):\n%s", diff)
	}
	if got := second[1].Select.Items[0].(map[string]any)["value"]; got != "s" {
		t.Fatalf("select items shared, got value %v", got)
	}
	if got := second[2].Choices[0].(map[string]any)["display"]; got != "Red" {
		t.Fatalf("choices shared, got display %v", got)
	}
	if got := second[3].Array.MultiTypes[0].Prefills["zip"]; got != 1000 {
		t.Fatalf("prefills shared, got %v", got)
	}
	if got := items.MultiTypes[0].Prefills["zip"]; got != 1000 {
		t.Fatalf("schema prefills mutated, got %v", got)
	}
	want := map[string]any{"nested": []any{1}}
	if diff := cmp.Diff(want, second[4].ModelValue()); diff != "" {
		t.Fatalf("nested model value shared (-want +got):\n%s", diff)
	}
}

func TestConverter_Options(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	conv := fields.NewConverter(
		fields.WithLogger(zap.New(core)),
		fields.WithWidgets(map[fields.Kind]string{fields.KindInteger: "v-slider", fields.Kind("bogus"): "x"}),
		fields.WithLabeler(nil),
		fields.WithSanitize(false),
	)
	sc := schema.New().
		Add("itemCount", schema.Property{Type: "integer"}).
		Add("raw", schema.Property{Type: "string", Title: "<b>Raw</b>"})

	built, err := conv.SchemaToFields(*sc)
	if err != nil {
		t.Fatalf("schema to fields: %v", err)
	}
	if built[0].Widget != "v-slider" {
		t.Fatalf("expected widget override, got %q", built[0].Widget)
	}
	if built[0].Title != "" {
		t.Fatalf("expected no derived title when labeler disabled, got %q", built[0].Title)
	}
	if built[1].Title != "<b>Raw</b>" {
		t.Fatalf("expected title untouched with sanitising disabled, got %q", built[1].Title)
	}
	if got := logs.FilterMessage("field built").Len(); got != 2 {
		t.Fatalf("expected 2 debug entries, got %d", got)
	}

	defaults, err := fields.SchemaToFields(*sc)
	if err != nil {
		t.Fatalf("default conversion: %v", err)
	}
	if defaults[0].Title != "Item Count" || defaults[1].Title != "Raw" {
		t.Fatalf("unexpected default titles: %q %q", defaults[0].Title, defaults[1].Title)
	}
}

func TestConverter_CustomFactory(t *testing.T) {
	factory := fields.NewFactory()
	if err := factory.Register("email", fields.KindText); err != nil {
		t.Fatalf("register: %v", err)
	}
	sc := schema.New().Add("contact", schema.Property{Type: "email", MaxLength: ptr(5)})

	built, err := fields.NewConverter(fields.WithFactory(factory)).SchemaToFields(*sc)
	if err != nil {
		t.Fatalf("schema to fields: %v", err)
	}
	if built[0].Type != "email" || built[0].Kind != fields.KindText {
		t.Fatalf("unexpected field: type=%q kind=%q", built[0].Type, built[0].Kind)
	}
	if _, ok := findRule(built[0], fields.RuleMaxLength); !ok {
		t.Fatalf("aliased tag should behave like text")
	}
}
