package openapi

import (
	"fmt"

	"github.com/goliatone/go-formdef/pkg/schema"
)

const (
	// extType forces the field type tag of a property.
	extType = "x-formdef-type"
	// extOrder lists property keys in display order.
	extOrder = "x-formdef-order"
	// extMultiTypes declares the sub-types of a polymorphic array.
	extMultiTypes = "x-formdef-multi-types"
	// extEnumNames carries display labels aligned with enum.
	extEnumNames = "x-enumNames"

	extRelationships = "x-relationships"
	extEndpoint      = "x-endpoint"
)

func stringList(value any) []string {
	raw, ok := value.([]any)
	if !ok {
		if typed, ok := value.([]string); ok {
			return append([]string(nil), typed...)
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

// multiTypes reads [{type, title, prefills}] entries. Bare strings are taken
// as the type with no title.
func multiTypes(value any) []schema.MultiType {
	raw, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]schema.MultiType, 0, len(raw))
	for _, item := range raw {
		switch typed := item.(type) {
		case string:
			if typed != "" {
				out = append(out, schema.NewMultiType(typed, "", nil))
			}
		case map[string]any:
			name, _ := typed["type"].(string)
			if name == "" {
				continue
			}
			title, _ := typed["title"].(string)
			var prefills map[string]any
			if raw, ok := typed["prefills"].(map[string]any); ok {
				prefills = make(map[string]any, len(raw))
				for key, value := range raw {
					prefills[key] = value
				}
			}
			out = append(out, schema.NewMultiType(name, title, prefills))
		}
	}
	return out
}

// endpoint reads x-endpoint as either a bare URL or an object carrying url,
// method, resultsPath, searchParam, params and a {value, label} mapping.
func endpoint(value any) *schema.Endpoint {
	switch typed := value.(type) {
	case string:
		if typed == "" {
			return nil
		}
		return &schema.Endpoint{URL: typed}
	case map[string]any:
		url, _ := typed["url"].(string)
		if url == "" {
			return nil
		}
		out := &schema.Endpoint{URL: url}
		out.Method, _ = typed["method"].(string)
		out.ResultsPath, _ = typed["resultsPath"].(string)
		out.SearchParam, _ = typed["searchParam"].(string)
		if params, ok := typed["params"].(map[string]any); ok {
			out.Params = make(map[string]string, len(params))
			for key, param := range params {
				out.Params[key] = fmt.Sprint(param)
			}
		}
		if mapping, ok := typed["mapping"].(map[string]any); ok {
			out.ValueKey, _ = mapping["value"].(string)
			out.LabelKey, _ = mapping["label"].(string)
		}
		return out
	}
	return nil
}
