package fields_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdef/pkg/fields"
)

func TestFactory_DefaultModelValues(t *testing.T) {
	cases := []struct {
		tag    string
		kind   fields.Kind
		want   any
		widget string
	}{
		{tag: "integer", kind: fields.KindInteger, want: 0, widget: fields.WidgetSlider},
		{tag: "number", kind: fields.KindInteger, want: 0, widget: fields.WidgetSlider},
		{tag: "fkey", kind: fields.KindForeignKey, want: nil, widget: fields.WidgetSlider},
		{tag: "string", kind: fields.KindText, want: "", widget: fields.WidgetTextField},
		{tag: "async-text-search", kind: fields.KindAsyncTextSearch, want: "", widget: fields.WidgetAsyncSearch},
		{tag: "boolean", kind: fields.KindCheckbox, want: false, widget: fields.WidgetCheckbox},
		{tag: "singleChoiceSelect", kind: fields.KindSingleSelect, want: fields.SelectValue{}, widget: fields.WidgetSelect},
		{tag: "choices", kind: fields.KindCheckboxGroup, want: nil, widget: fields.WidgetCheckboxGroup},
		{tag: "array", kind: fields.KindArray, want: []any{}, widget: fields.WidgetArray},
	}

	for _, tc := range cases {
		t.Run(tc.tag, func(t *testing.T) {
			field, err := fields.New(tc.tag)
			if err != nil {
				t.Fatalf("new %q: %v", tc.tag, err)
			}
			if field.Kind != tc.kind {
				t.Fatalf("kind mismatch: want %q got %q", tc.kind, field.Kind)
			}
			if field.Widget != tc.widget {
				t.Fatalf("widget mismatch: want %q got %q", tc.widget, field.Widget)
			}
			if field.NumRendered != 1 {
				t.Fatalf("expected numRendered 1, got %d", field.NumRendered)
			}
			if diff := cmp.Diff(tc.want, field.ModelValue()); diff != "" {
				t.Fatalf("default model value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFactory_UnknownTag(t *testing.T) {
	field, err := fields.New("date")
	if field != nil {
		t.Fatalf("expected no field for unknown tag, got %#v", field)
	}
	if !errors.Is(err, fields.ErrUnknownFieldType) {
		t.Fatalf("expected ErrUnknownFieldType, got %v", err)
	}
	var unknown *fields.UnknownFieldTypeError
	if !errors.As(err, &unknown) || unknown.Tag != "date" {
		t.Fatalf("expected UnknownFieldTypeError for %q, got %#v", "date", err)
	}
}

func TestFactory_Register(t *testing.T) {
	factory := fields.NewFactory()

	if err := factory.Register("email", fields.KindText); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := factory.Register("email", fields.KindText); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := factory.Register("slider", fields.Kind("knob")); err == nil {
		t.Fatalf("expected unknown kind to fail")
	}
	if err := factory.Register("  ", fields.KindText); err == nil {
		t.Fatalf("expected empty tag to fail")
	}

	field, err := factory.New("email")
	if err != nil {
		t.Fatalf("new email: %v", err)
	}
	if field.Kind != fields.KindText {
		t.Fatalf("expected text kind, got %q", field.Kind)
	}

	if _, err := fields.New("email"); err == nil {
		t.Fatalf("registration must not leak into the default factory")
	}

	tags := factory.Tags()
	if len(tags) != 10 || tags[0] != "array" {
		t.Fatalf("unexpected tags: %v", tags)
	}
}
