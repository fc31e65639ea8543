package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// The tender field schema is static, so it compiles once per process.
var (
	schemaOnce   sync.Once
	tenderSchema *jsonschema.Schema
	schemaErr    error
)

func compiledTenderSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(BuildTenderJSONSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal tender schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("tender.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add tender schema: %w", err)
			return
		}
		tenderSchema, schemaErr = compiler.Compile("tender.json")
	})
	return tenderSchema, schemaErr
}

// ValidateTenderJSON checks a refinement response against the tender
// field schema. Unknown properties and wrong types are rejected; callers
// may then sanitize and revalidate.
func ValidateTenderJSON(data []byte) error {
	schema, err := compiledTenderSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("refinement response is not json: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("refinement response does not match tender schema: %w", err)
	}
	return nil
}
