// Package jsonschema validates JSON documents against JSON Schema drafts
// supported by github.com/santhosh-tekuri/jsonschema.
package jsonschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationErrors is the flattened list of problems found by a validation.
type ValidationErrors []error

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Validate checks a JSON document against a schema. It returns false with
// the individual violations when the document does not conform, and an error
// only when the schema or the document cannot be parsed at all.
func Validate(document, schemaStr string) (bool, ValidationErrors, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaStr)); err != nil {
		return false, nil, fmt.Errorf("invalid schema: %w", err)
	}

	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return false, nil, fmt.Errorf("invalid schema: %w", err)
	}

	var data interface{}
	if err := json.Unmarshal([]byte(document), &data); err != nil {
		return false, nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if err := schema.Validate(data); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return false, flatten(validationErr), nil
		}
		return false, ValidationErrors{err}, nil
	}

	return true, nil, nil
}

// flatten extracts leaf violations, which carry the useful messages; branch
// nodes just repeat "doesn't validate with ...".
func flatten(err *jsonschema.ValidationError) ValidationErrors {
	if len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		return ValidationErrors{fmt.Errorf("%s: %s", location, err.Message)}
	}

	var errors ValidationErrors
	for _, cause := range err.Causes {
		errors = append(errors, flatten(cause)...)
	}
	return errors
}
