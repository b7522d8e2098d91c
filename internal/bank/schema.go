package bank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

const questionSchemaURL = "schema://question.json"

// questionSchema is the structural contract for one bank record. Membership of
// correct_option in options is checked after decoding.
var questionSchema = map[string]any{
	"type":     "object",
	"required": []any{"text", "options", "correct_option"},
	"properties": map[string]any{
		"text": map[string]any{"type": "string", "minLength": 1},
		"options": map[string]any{
			"type":        "array",
			"minItems":    4,
			"maxItems":    5,
			"uniqueItems": true,
			"items":       map[string]any{"type": "string", "minLength": 1},
		},
		"correct_option": map[string]any{"type": "string", "minLength": 1},
		"discipline":     map[string]any{"type": "string"},
		"period":         map[string]any{"type": []any{"integer", "null"}},
		"difficulty":     map[string]any{"type": "string"},
		"explanation":    map[string]any{"type": "string"},
		"source":         map[string]any{"type": "string"},
	},
}

func compileQuestionSchema() (*jsonschema.Schema, error) {
	// round-trip through JSON so numbers are json.Number, as the compiler expects
	raw, err := json.Marshal(questionSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(questionSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(questionSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return compiled, nil
}

// decodeDocument parses a JSON or YAML (by extension) file into a generic value
// with JSON number semantics.
func decodeDocument(path string, data []byte) (any, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		converted, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
		data = converted
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return doc, nil
}

// extractRecords accepts either a bare list of records or an object {"questions": [...]}.
func extractRecords(doc any) ([]any, error) {
	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if list, ok := v["questions"].([]any); ok {
			return list, nil
		}
	}
	return nil, fmt.Errorf("unrecognized format: expected a list of questions or an object with a \"questions\" list")
}
