// Package validation checks dashboard form input against JSON Schema
// documents and reports one message per offending field.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Error is a form-level validation failure. Fields maps the JSON field name
// to the message shown next to it.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation: " + strings.Join(parts, "; ")
}

// Form pairs a compiled schema with the message reported for each field.
type Form struct {
	schema   *gojsonschema.Schema
	messages map[string]string
}

// NewForm compiles a JSON Schema document.
func NewForm(schemaJSON string, messages map[string]string) (*Form, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("validation: compile schema: %w", err)
	}
	return &Form{schema: schema, messages: messages}, nil
}

func mustForm(schemaJSON string, messages map[string]string) *Form {
	f, err := NewForm(schemaJSON, messages)
	if err != nil {
		panic(err)
	}
	return f
}

// Validate checks doc, which may be a Go value with json tags or a decoded
// map. It returns nil or an *Error.
func (f *Form) Validate(doc any) error {
	result, err := f.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validation: load document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	fields := make(map[string]string, len(result.Errors()))
	for _, re := range result.Errors() {
		field := fieldOf(re)
		if _, seen := fields[field]; seen {
			continue
		}
		if msg, ok := f.messages[field]; ok {
			fields[field] = msg
		} else {
			fields[field] = re.Description()
		}
	}
	return &Error{Fields: fields}
}

func fieldOf(re gojsonschema.ResultError) string {
	if re.Type() == "required" {
		if prop, ok := re.Details()["property"].(string); ok {
			return prop
		}
	}
	return re.Field()
}
