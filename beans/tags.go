package beans

import (
	"fmt"
	"reflect"
	"strings"
)

// TagKey is the struct tag key read by the catalog.
//
//	Name  string `bean:"field=fullName"`
//	Cache []byte `bean:"transient"`
//	inner int    `bean:"omit"`
const TagKey = "bean"

// fieldTag holds the settings of one struct field tag.
type fieldTag struct {
	Name      string
	Omit      bool
	Transient bool
}

func parseFieldTag(f reflect.StructField) (fieldTag, error) {
	tag, ok := f.Tag.Lookup(TagKey)
	if !ok {
		return fieldTag{}, nil
	}
	if tag == "-" {
		return fieldTag{Omit: true}, nil
	}
	parsed, err := ParseStructTag(tag)
	if err != nil {
		return fieldTag{}, fmt.Errorf("field %s: %w", f.Name, err)
	}
	res := fieldTag{}
	for k, v := range parsed {
		switch k {
		case "field":
			if v == "" {
				return fieldTag{}, fmt.Errorf("field %s: empty field name", f.Name)
			}
			res.Name = v
		case "omit", "-":
			res.Omit = true
		case "transient":
			res.Transient = true
		default:
			return fieldTag{}, fmt.Errorf("field %s: unknown tag key %q", f.Name, k)
		}
	}
	return res, nil
}

// ParseStructTag parses a struct tag string and returns a map of key-value pairs.
// Handles comma or space separated values: `bean:"key1=value1,key2=value2 flag"`
// Supports quoted values with spaces: `bean:"key='value with spaces'"`
func ParseStructTag(tag string) (map[string]string, error) {
	result := make(map[string]string)
	if tag == "" {
		return result, nil
	}

	var parts []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	flush := func() {
		part := strings.TrimSpace(current.String())
		if part != "" {
			parts = append(parts, part)
		}
		current.Reset()
	}
	for i := 0; i < len(tag); i++ {
		char := tag[i]
		switch {
		case char == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote
			current.WriteByte(char)
		case char == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote
			current.WriteByte(char)
		case (char == ',' || char == ' ') && !inSingleQuote && !inDoubleQuote:
			flush()
		default:
			current.WriteByte(char)
		}
	}
	if inSingleQuote || inDoubleQuote {
		return nil, fmt.Errorf("invalid tag: unterminated quote in %q", tag)
	}
	flush()

	for _, part := range parts {
		if idx := strings.Index(part, "="); idx >= 0 {
			key := strings.TrimSpace(part[:idx])
			value := strings.TrimSpace(part[idx+1:])
			if key == "" {
				return nil, fmt.Errorf("invalid tag: empty key in %q", part)
			}
			result[key] = unquoteValue(value)
		} else {
			result[part] = ""
		}
	}
	return result, nil
}

// unquoteValue removes surrounding single or double quotes from a value.
func unquoteValue(value string) string {
	if len(value) >= 2 {
		if (value[0] == '\'' && value[len(value)-1] == '\'') ||
			(value[0] == '"' && value[len(value)-1] == '"') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
