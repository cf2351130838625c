package openapi_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdef/pkg/fields"
	"github.com/goliatone/go-formdef/pkg/openapi"
)

func TestSpec_LintCleanDocument(t *testing.T) {
	spec := loadSpec(t)
	if violations := spec.Lint(nil); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestSpec_LintReportsViolations(t *testing.T) {
	spec := loadSpecFile(t, "lint.yaml")

	var got []string
	for _, violation := range spec.Lint(nil) {
		got = append(got, violation.Location+" -> "+violation.Message)
	}

	want := []string{
		`components.schemas.Order -> unsupported extension "x-formdef-colour"`,
		`components.schemas.Order -> x-formdef-order lists "total" twice`,
		`components.schemas.Order -> x-formdef-order names unknown property "missing"`,
		`components.schemas.Order.properties.buyer -> x-endpoint must be a URL or an object with a url`,
		`components.schemas.Order.properties.lines -> x-formdef-multi-types has 1 entries without a type`,
		`components.schemas.Order.properties.lines.items.properties.sku -> x-formdef-type must be a non-empty string, found float64`,
		`components.schemas.Order.properties.note -> x-formdef-multi-types is only valid on arrays`,
		`components.schemas.Order.properties.state -> x-enumNames has 1 entries for 2 enum values`,
	}
	if len(got) != len(want)+1 {
		t.Fatalf("expected %d violations, got %d:\n%s", len(want)+1, len(got), strings.Join(got, "\n"))
	}
	money := got[len(got)-1]
	if !strings.HasPrefix(money, `components.schemas.Order.properties.total -> x-formdef-type "money" is not a known field type`) {
		t.Fatalf("unexpected final violation: %s", money)
	}
	if diff := cmp.Diff(want, got[:len(got)-1]); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestSpec_LintUsesFactoryAndTypeMap(t *testing.T) {
	factory := fields.NewFactory()
	if err := factory.Register("money", fields.KindInteger); err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, violation := range loadSpecFile(t, "lint.yaml").Lint(factory) {
		if strings.Contains(violation.Message, `"money"`) {
			t.Fatalf("expected registered tag to pass, got %s", violation)
		}
	}

	mapped := loadSpecFile(t, "lint.yaml", openapi.WithTypeMap(map[string]string{"number": "money"}))
	for _, violation := range mapped.Lint(nil) {
		if strings.Contains(violation.Message, `"money"`) {
			t.Fatalf("expected type-mapped tag to pass, got %s", violation)
		}
	}
}
