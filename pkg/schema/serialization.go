package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseType converts a type expression to a Schema.
// Supported forms: "string", "int", "float", "bool", "[T]" for slices,
// "?T" for optional values, and bounds on strings and ints such as
// "string(min=3,max=20)" or "int(min=0)".
func ParseType(typeStr string) (Schema, error) {
	typeStr = strings.TrimSpace(typeStr)

	if strings.HasPrefix(typeStr, "?") {
		inner, err := ParseType(typeStr[1:])
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	}

	// Handle slice types: [string], [int], etc.
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemType, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elemType), nil
	}

	name, args, err := splitArgs(typeStr)
	if err != nil {
		return nil, err
	}

	switch name {
	case "string":
		t := String()
		for k, v := range args {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("string %s: %w", k, err)
			}
			switch k {
			case "min":
				t = t.Min(n)
			case "max":
				t = t.Max(n)
			default:
				return nil, fmt.Errorf("unsupported string bound: %s", k)
			}
		}
		return t, nil
	case "int":
		t := Int()
		for k, v := range args {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("int %s: %w", k, err)
			}
			switch k {
			case "min":
				t = t.Min(n)
			case "max":
				t = t.Max(n)
			default:
				return nil, fmt.Errorf("unsupported int bound: %s", k)
			}
		}
		return t, nil
	case "float", "bool":
		if len(args) > 0 {
			return nil, fmt.Errorf("type %s takes no bounds", name)
		}
		if name == "float" {
			return Float(), nil
		}
		return Bool(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

func splitArgs(typeStr string) (string, map[string]string, error) {
	open := strings.IndexByte(typeStr, '(')
	if open < 0 {
		return typeStr, nil, nil
	}
	if !strings.HasSuffix(typeStr, ")") {
		return "", nil, fmt.Errorf("unterminated bounds in %q", typeStr)
	}
	args := make(map[string]string)
	for _, part := range strings.Split(typeStr[open+1:len(typeStr)-1], ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return "", nil, fmt.Errorf("malformed bound %q in %q", part, typeStr)
		}
		args[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return typeStr[:open], args, nil
}

// ParseTypeMap converts a map of field names to type strings into an Object.
// Example: {"api_key": "string", "retries": "int"}
func ParseTypeMap(typeMap map[string]string) (*ObjectType, error) {
	fields := make(Fields, len(typeMap))
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		fields[key] = t
	}
	return Object(fields), nil
}

// FromMap builds an Object from a decoded document in which every
// value is either a type expression or a nested mapping.
func FromMap(raw map[string]any) (*ObjectType, error) {
	fields := make(Fields, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			t, err := ParseType(v)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			fields[key] = t
		case map[string]any:
			nested, err := FromMap(v)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			fields[key] = nested
		default:
			return nil, fmt.Errorf("field %s: expected type string or mapping, got %T", key, value)
		}
	}
	return Object(fields), nil
}

// definition is the inverse of FromMap.
func (t *ObjectType) definition() (map[string]any, error) {
	raw := make(map[string]any, len(t.fields))
	for key, typ := range t.fields {
		switch v := typ.(type) {
		case nil:
			return nil, fmt.Errorf("field %s: type is nil", key)
		case *ObjectType:
			nested, err := v.definition()
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", key, err)
			}
			raw[key] = nested
		default:
			raw[key] = v.Name()
		}
	}
	return raw, nil
}

// MarshalJSON serializes the object as a map of field names to type expressions.
func (t *ObjectType) MarshalJSON() ([]byte, error) {
	raw, err := t.definition()
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// UnmarshalJSON deserializes the object from a map of field names to type expressions.
func (t *ObjectType) UnmarshalJSON(data []byte) error {
	if t == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromMap(raw)
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (t *ObjectType) MarshalYAML() (any, error) {
	return t.definition()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *ObjectType) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromMap(raw)
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}

// FromYAML parses a YAML schema definition document.
func FromYAML(data []byte) (*ObjectType, error) {
	var t ObjectType
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return &t, nil
}
