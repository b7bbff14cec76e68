package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	schemaOnce sync.Once
	schemaJSON []byte
	schemaErr  error

	compiledOnce sync.Once
	compiled     *validator.Schema
	compiledErr  error
)

// JSONSchema returns the JSON Schema for the Config struct.
func JSONSchema() ([]byte, error) {
	schemaOnce.Do(func() {
		r := &jsonschema.Reflector{
			FieldNameTag:               "yaml",
			RequiredFromJSONSchemaTags: true,
		}
		schemaJSON, schemaErr = json.MarshalIndent(r.Reflect(&Config{}), "", "  ")
	})
	return schemaJSON, schemaErr
}

func compiledSchema() (*validator.Schema, error) {
	compiledOnce.Do(func() {
		data, err := JSONSchema()
		if err != nil {
			compiledErr = err
			return
		}
		compiled, compiledErr = validator.CompileString("simpleplugin.config.json", string(data))
	})
	return compiled, compiledErr
}

// ValidateRaw checks a raw configuration map against the schema. It reports
// unknown keys and wrongly typed values with their paths.
func ValidateRaw(raw map[string]any) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	// Round-trip through JSON so YAML integers and nested maps have the
	// shapes the validator expects.
	payload, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("serialize config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("serialize config: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}
	return nil
}
