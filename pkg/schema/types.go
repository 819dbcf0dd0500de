package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Type validates one field value.
type Type interface {
	// Name returns the type as written in graph files, e.g. "int" or "[string]".
	Name() string
	Validate(value any) error
}

type scalar struct {
	name  string
	check func(any) bool
}

func (s scalar) Name() string { return s.name }

func (s scalar) Validate(value any) error {
	if !s.check(value) {
		return fmt.Errorf("expected %s, got %T", s.name, value)
	}
	return nil
}

// String accepts strings.
func String() Type {
	return scalar{name: "string", check: func(v any) bool { _, ok := v.(string); return ok }}
}

// Bool accepts booleans.
func Bool() Type {
	return scalar{name: "bool", check: func(v any) bool { _, ok := v.(bool); return ok }}
}

// Int accepts integers and whole float64 values, which is what JSON-backed
// stores hand back.
func Int() Type {
	return scalar{name: "int", check: func(v any) bool {
		switch n := v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64:
			return n == float64(int64(n))
		}
		return false
	}}
}

// Float accepts any number.
func Float() Type {
	return scalar{name: "float", check: func(v any) bool {
		switch v.(type) {
		case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	}}
}

// Any accepts every value.
func Any() Type {
	return scalar{name: "any", check: func(any) bool { return true }}
}

type slice struct {
	elem Type
}

// Slice accepts slices whose elements all satisfy elem.
func Slice(elem Type) Type {
	return slice{elem: elem}
}

func (s slice) Name() string { return "[" + s.elem.Name() + "]" }

func (s slice) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected %s, got %T", s.Name(), value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := s.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// ParseType converts a type string into a Type.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if len(s) > 2 && s[0] == '[' && s[len(s)-1] == ']' {
		elem, err := ParseType(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}
	switch s {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "any":
		return Any(), nil
	}
	return nil, fmt.Errorf("unsupported type %q", s)
}

// Schema maps model field names to their types.
type Schema map[string]Type

// ParseTypeMap builds a Schema from field type strings.
func ParseTypeMap(types map[string]string) (Schema, error) {
	out := make(Schema, len(types))
	for field, name := range types {
		t, err := ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		out[field] = t
	}
	return out, nil
}

// TypeMap is the inverse of ParseTypeMap.
func (s Schema) TypeMap() map[string]string {
	out := make(map[string]string, len(s))
	for field, t := range s {
		out[field] = t.Name()
	}
	return out
}

// Check validates the fields of data that the schema declares. Missing
// fields and undeclared fields are accepted.
func (s Schema) Check(data map[string]any) error {
	var errs []error
	for _, field := range s.fields() {
		v, ok := data[field]
		if !ok || v == nil {
			continue
		}
		if err := s[field].Validate(v); err != nil {
			errs = append(errs, &FieldError{Field: field, Reason: err.Error(), Value: v})
		}
	}
	return aggregate(errs)
}

// Require is Check plus a "required" error for every missing field.
func (s Schema) Require(data map[string]any) error {
	var errs []error
	for _, field := range s.fields() {
		if _, ok := data[field]; !ok {
			errs = append(errs, &FieldError{Field: field, Reason: "required"})
		}
	}
	if err := s.Check(data); err != nil {
		errs = append(errs, Errors(err)...)
	}
	return aggregate(errs)
}

func (s Schema) fields() []string {
	out := make([]string, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
