package fields

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Canonical rule identifiers.
const (
	RuleRequired  = "required"
	RuleMin       = "min"
	RuleMax       = "max"
	RuleMaxLength = "maxLength"
)

// Rule is a single validation constraint. Kind and Params describe the rule
// for serialisation; Check evaluates it. Rules are pure and never panic.
type Rule struct {
	Kind   string            `json:"kind"`
	Params map[string]string `json:"params,omitempty"`

	check func(value any) string
}

// Check returns ("", true) when value satisfies the rule, otherwise the
// human-readable failure message and false.
func (r Rule) Check(value any) (string, bool) {
	if r.check == nil {
		return "", true
	}
	msg := r.check(value)
	return msg, msg == ""
}

// NewRule builds a custom rule. fn returns an empty string on success.
func NewRule(kind string, params map[string]string, fn func(value any) string) Rule {
	return Rule{Kind: kind, Params: params, check: fn}
}

func requiredRule(label string) Rule {
	msg := fmt.Sprintf("%s is required", label)
	return NewRule(RuleRequired, nil, func(value any) string {
		if isBlank(value) {
			return msg
		}
		return ""
	})
}

func minRule(limit float64) Rule {
	msg := "Value must be greater than or equal to " + formatFloat(limit)
	return NewRule(RuleMin, map[string]string{"value": formatFloat(limit)}, func(value any) string {
		if value == nil {
			return ""
		}
		n, ok := toFloat(value)
		if !ok {
			return "Value must be a number"
		}
		if n < limit {
			return msg
		}
		return ""
	})
}

func maxRule(limit float64) Rule {
	msg := "Value must be less than or equal to " + formatFloat(limit)
	return NewRule(RuleMax, map[string]string{"value": formatFloat(limit)}, func(value any) string {
		if value == nil {
			return ""
		}
		n, ok := toFloat(value)
		if !ok {
			return "Value must be a number"
		}
		if n > limit {
			return msg
		}
		return ""
	})
}

func maxLengthRule(limit int) Rule {
	msg := fmt.Sprintf("Length must be less than or equal to %d", limit)
	return NewRule(RuleMaxLength, map[string]string{"value": strconv.Itoa(limit)}, func(value any) string {
		if value == nil {
			return ""
		}
		if lengthOf(value) > limit {
			return msg
		}
		return ""
	})
}

// isBlank follows the truthiness the form layer expects from a required
// check: nil, false, zero numbers, empty strings, empty collections and
// unselected pairs are all missing.
func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case SelectValue:
		return isBlank(v.Value)
	case *SelectValue:
		return v == nil || isBlank(v.Value)
	case json.Number:
		n, err := v.Float64()
		return err == nil && n == 0
	}
	if n, ok := numeric(value); ok {
		return n == 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Map:
		if rv.Len() == 0 {
			return true
		}
		if pair, ok := value.(map[string]any); ok {
			if inner, has := pair["value"]; has {
				return isBlank(inner)
			}
		}
	case reflect.Pointer:
		return rv.IsNil()
	}
	return false
}

func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// toFloat accepts Go numbers, json.Number and numeric strings as typed into
// an input box.
func toFloat(value any) (float64, bool) {
	if n, ok := numeric(value); ok {
		return n, true
	}
	switch v := value.(type) {
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	}
	return 0, false
}

func lengthOf(value any) int {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v)
	case SelectValue:
		return displayLength(v.Display)
	case *SelectValue:
		if v == nil {
			return 0
		}
		return displayLength(v.Display)
	case map[string]any:
		if display, ok := v["display"]; ok {
			return displayLength(display)
		}
	case []any:
		return len(v)
	case fmt.Stringer:
		return utf8.RuneCountInString(v.String())
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len()
	}
	return utf8.RuneCountInString(fmt.Sprint(value))
}

// displayLength measures the text shown for a selected item. An unselected
// item has no length.
func displayLength(display any) int {
	if display == nil {
		return 0
	}
	if text, ok := display.(string); ok {
		return utf8.RuneCountInString(text)
	}
	return utf8.RuneCountInString(fmt.Sprint(display))
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
