// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"telehealth-agent/pkg/registry"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Messages renders each error as "field: message".
func (r *ValidationResult) Messages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return msgs
}

// Validator checks documents against the input schemas of registered
// activities. Schemas are compiled once.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

func NewValidator(reg *registry.ActivityRegistry) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(reg.Activities))}
	for _, a := range reg.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("compile input schema for %s: %w", a.TaskType, err)
		}
		v.schemas[a.TaskType] = schema
	}
	return v, nil
}

// Validate checks a Go value (map or struct).
func (v *Validator) Validate(taskType string, document interface{}) (*ValidationResult, error) {
	return v.validate(taskType, gojsonschema.NewGoLoader(document))
}

// ValidateJSON checks a raw JSON document such as job variables or a request body.
func (v *Validator) ValidateJSON(taskType string, raw []byte) (*ValidationResult, error) {
	return v.validate(taskType, gojsonschema.NewBytesLoader(raw))
}

func (v *Validator) validate(taskType string, doc gojsonschema.JSONLoader) (*ValidationResult, error) {
	schema, ok := v.schemas[taskType]
	if !ok {
		return nil, fmt.Errorf("no input schema registered for %s", taskType)
	}

	result, err := schema.Validate(doc)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toResult(result), nil
}

// ValidateInput checks input against an ad-hoc schema.
func ValidateInput(input interface{}, schema map[string]interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(input))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return toResult(result), nil
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool {
		return out.Errors[i].Field < out.Errors[j].Field
	})
	return out
}
