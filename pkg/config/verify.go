package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema.
// It checks enum constraints and numeric bounds of every property the schema describes.
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	var schema map[string]any
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	// convert config to JSON for validation
	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var configMap map[string]any
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	defs, _ := schema["$defs"].(map[string]any)
	root := resolveRef(schema, defs)
	var errs []string
	verifyObject("", root, configMap, defs, &errs)
	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("schema violations: %s", strings.Join(errs, "; "))
	}
	return nil
}

// verifyObject walks schema properties along with config values
func verifyObject(path string, schema, value map[string]any, defs map[string]any, errs *[]string) {
	props, _ := schema["properties"].(map[string]any)
	for name, p := range props {
		propSchema, ok := p.(map[string]any)
		if !ok {
			continue
		}
		propSchema = resolveRef(propSchema, defs)
		v, exists := value[name]
		if !exists || v == nil {
			continue
		}
		fullName := name
		if path != "" {
			fullName = path + "." + name
		}

		if enum, ok := propSchema["enum"].([]any); ok && !inEnum(v, enum) {
			*errs = append(*errs, fmt.Sprintf("%s: %v is not one of %v", fullName, v, enum))
		}
		if num, ok := v.(float64); ok {
			if minV, ok := propSchema["minimum"].(float64); ok && num < minV {
				*errs = append(*errs, fmt.Sprintf("%s: %v is less than %v", fullName, num, minV))
			}
			if maxV, ok := propSchema["maximum"].(float64); ok && num > maxV {
				*errs = append(*errs, fmt.Sprintf("%s: %v is greater than %v", fullName, num, maxV))
			}
		}
		if nested, ok := v.(map[string]any); ok {
			verifyObject(fullName, propSchema, nested, defs, errs)
		}
	}
}

func resolveRef(schema, defs map[string]any) map[string]any {
	ref, ok := schema["$ref"].(string)
	if !ok {
		return schema
	}
	name := strings.TrimPrefix(ref, "#/$defs/")
	if def, ok := defs[name].(map[string]any); ok {
		return def
	}
	return schema
}

func inEnum(v any, enum []any) bool {
	for _, e := range enum {
		if e == v {
			return true
		}
	}
	return false
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() (*jsonschema.Schema, error) {
	return jsonschema.Reflect(&Config{}), nil
}
