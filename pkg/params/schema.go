package params

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/vincent/pkg/errors"
)

// Definition is the JSON form of a declared ability parameter.
type Definition struct {
	Name        string `json:"name" validate:"required"`
	Type        Type   `json:"type"`
	Description string `json:"description"`
}

// Schema binds a definition to its validation rule.
type Schema struct {
	Name        string `json:"name"`
	Type        Type   `json:"type"`
	Description string `json:"description"`
}

// Validate applies the rule of the schema's type.
func (s Schema) Validate(raw string) Result { return Validate(s.Type, raw) }

// Coerce applies the coercion of the schema's type.
func (s Schema) Coerce(raw string) Value { return Coerce(s.Type, raw) }

// JSONSchema describes the parameter as a JSON Schema property.
func (s Schema) JSONSchema() map[string]interface{} {
	prop := map[string]interface{}{
		"type":        JSONType(s.Type),
		"description": s.Description,
	}
	item := map[string]interface{}{"type": ItemJSONType(s.Type)}
	if p := Pattern(s.Type); p != "" {
		item["pattern"] = p
	}
	if s.Type.IsArray() {
		prop["items"] = item
	} else if p, found := item["pattern"]; found {
		prop["pattern"] = p
	}
	return prop
}

// SchemaMap maps parameter names to their schema.
type SchemaMap map[string]Schema

// BuildParamDefinitions builds the schema map for a list of definitions. Names must be
// non-empty and unique and every type must be known.
func BuildParamDefinitions(defs []Definition) (SchemaMap, error) {
	out := make(SchemaMap, len(defs))
	for i, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return nil, errors.ErrInvalidRequest(fmt.Sprintf("parameter %d has no name", i+1)).
				WithMetadata("index", i)
		}
		if !def.Type.Valid() {
			return nil, errors.ErrInvalidRequest(fmt.Sprintf("parameter %q has unknown type %d", name, uint8(def.Type))).
				WithMetadata("parameter", name)
		}
		if _, dup := out[name]; dup {
			return nil, errors.ErrInvalidRequest(fmt.Sprintf("parameter %q is declared more than once", name)).
				WithMetadata("parameter", name)
		}
		out[name] = Schema{Name: name, Type: def.Type, Description: def.Description}
	}
	return out, nil
}

// Names returns the parameter names in sorted order.
func (m SchemaMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JSONSchema describes the whole map as a JSON Schema object.
func (m SchemaMap) JSONSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(m))
	for name, s := range m {
		props[name] = s.JSONSchema()
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
}

// ValidationError is a per-field failure. It is returned, never thrown.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects per-field failures in field order.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// Err returns the first failure as a PARAMETER_VALIDATION error, or nil.
func (e ValidationErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return errors.ErrParameterValidation(e[0].Field, e[0].Message).WithMetadata("errors", []ValidationError(e))
}

// Check validates and coerces every supplied value. Absent names are left out of the
// result (absent is not the same as the "" sentinel); unknown names are reported.
func (m SchemaMap) Check(values map[string]interface{}) (map[string]Value, ValidationErrors) {
	out := make(map[string]Value, len(values))
	var errs ValidationErrors
	for _, name := range m.Names() {
		v, present := values[name]
		if !present {
			continue
		}
		raw, err := Normalize(v)
		if err != nil {
			errs = append(errs, ValidationError{Field: name, Message: err.Error()})
			continue
		}
		s := m[name]
		if res := s.Validate(raw); !res.Valid {
			errs = append(errs, ValidationError{Field: name, Message: res.Message})
			continue
		}
		out[name] = s.Coerce(raw)
	}

	var unknown []string
	for name := range values {
		if _, declared := m[name]; !declared {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, ValidationError{Field: name, Message: "Unknown parameter"})
	}
	return out, errs
}
