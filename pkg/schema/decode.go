package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parse decodes a document using the format implied by its location or
// content.
func Parse(doc Document) (Schema, error) {
	return Decode(doc.raw, doc.Format())
}

// Decode parses raw bytes as a model schema. FormatAuto tries JSON first and
// falls back to YAML, mirroring how UI schema files are read.
func Decode(raw []byte, format Format) (Schema, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Schema{}, fmt.Errorf("schema: document is empty")
	}

	var out Schema
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(raw, &out); err != nil {
			return Schema{}, fmt.Errorf("schema: decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &out); err != nil {
			return Schema{}, fmt.Errorf("schema: decode yaml: %w", err)
		}
	case FormatAuto, "":
		if jsonErr := json.Unmarshal(raw, &out); jsonErr == nil {
			break
		}
		out = Schema{}
		if err := yaml.Unmarshal(raw, &out); err != nil {
			return Schema{}, fmt.Errorf("schema: invalid JSON or YAML: %w", err)
		}
	default:
		return Schema{}, fmt.Errorf("schema: format %q cannot be decoded directly", format)
	}

	if !out.HasProperties() {
		return Schema{}, fmt.Errorf("schema: document declares no properties")
	}
	return out, nil
}
