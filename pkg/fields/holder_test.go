package fields_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdef/pkg/fields"
	"github.com/goliatone/go-formdef/pkg/schema"
)

func TestModelsHolder(t *testing.T) {
	sc := schema.New().
		Add("name", schema.Property{Type: "string"}).
		Add("active", schema.Property{Type: "boolean", ModelValue: true}).
		Add("name2", schema.Property{Type: "fkey"})

	holder, err := fields.NewModelsHolder(*sc, nil)
	if err != nil {
		t.Fatalf("new holder: %v", err)
	}
	if got := len(holder.Fields()); got != 3 {
		t.Fatalf("expected 3 fields, got %d", got)
	}

	field, ok := holder.FieldByID("active")
	if !ok || field.Key != "active" {
		t.Fatalf("lookup failed: %v %v", field, ok)
	}
	if _, ok := holder.FieldByID("missing"); ok {
		t.Fatalf("expected lookup miss")
	}

	field.SetModelValue(false)
	want := map[string]any{"name": "", "active": false, "name2": nil}
	if diff := cmp.Diff(want, holder.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestModelsHolder_PropagatesErrors(t *testing.T) {
	sc := schema.New().Add("when", schema.Property{Type: "date"})
	holder, err := fields.NewModelsHolder(*sc, fields.NewConverter())
	if holder != nil || !errors.Is(err, fields.ErrUnknownFieldType) {
		t.Fatalf("expected unknown type error, got holder=%v err=%v", holder, err)
	}
}
