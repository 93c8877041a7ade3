// Package format renders message templates with positional replacement
// values. Placeholders have the form "[0]" or "[0:formatter]"; the anonymize
// formatter extracts the value into a side list instead of rendering it, so
// sensitive values never reach the message text.
package format

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Formatter renders a single replacement value.
type Formatter func(value any) (string, error)

// anonymizeName is handled outside the formatter table because it produces
// a side effect (extraction) rather than rendered text.
const anonymizeName = "anonymize"

// formatters is the table of named formatter functions.
var formatters = map[string]Formatter{
	"default": Default,
	"json":    asJSON,
}

// Format renders template using the positional values. It returns the
// rendered text and the values extracted by anonymize placeholders, in
// extraction order. "[[" and "]]" escape literal brackets.
func Format(template string, values []any) (string, []any, error) {
	var b strings.Builder
	var anonymized []any

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch {
		case c == '[' && i+1 < len(template) && template[i+1] == '[':
			b.WriteByte('[')
			i++
		case c == ']' && i+1 < len(template) && template[i+1] == ']':
			b.WriteByte(']')
			i++
		case c == '[':
			end := strings.IndexByte(template[i:], ']')
			if end < 0 {
				return "", nil, fmt.Errorf("unterminated placeholder at offset %d", i)
			}
			token := template[i+1 : i+end]
			i += end

			index, name, err := parseToken(token)
			if err != nil {
				return "", nil, err
			}
			if index < 0 || index >= len(values) {
				return "", nil, fmt.Errorf("placeholder [%s]: index out of range (have %d values)", token, len(values))
			}

			if name == anonymizeName {
				anonymized = append(anonymized, values[index])
				fmt.Fprintf(&b, "[%d:%s]", len(anonymized)-1, anonymizeName)
				continue
			}

			fn, ok := formatters[name]
			if !ok {
				return "", nil, fmt.Errorf("placeholder [%s]: unknown formatter %q", token, name)
			}
			text, err := fn(values[index])
			if err != nil {
				return "", nil, fmt.Errorf("placeholder [%s]: %w", token, err)
			}
			b.WriteString(text)
		default:
			b.WriteByte(c)
		}
	}

	return b.String(), anonymized, nil
}

// parseToken splits "0" or "0:name" into index and formatter name.
func parseToken(token string) (int, string, error) {
	name := "default"
	indexPart := token
	if colon := strings.IndexByte(token, ':'); colon >= 0 {
		indexPart = token[:colon]
		name = token[colon+1:]
	}
	index, err := strconv.Atoi(indexPart)
	if err != nil {
		return 0, "", fmt.Errorf("placeholder [%s]: bad index: %w", token, err)
	}
	return index, name, nil
}

// errorShape is the wire rendering of error values. Go errors carry no
// stack; Stack is populated only when the value exposes one.
type errorShape struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// Default renders a value: errors as {message, stack} JSON, composite
// values as JSON, everything else via base string conversion.
func Default(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "null", nil
	case string:
		return v, nil
	case error:
		shape := errorShape{Message: v.Error()}
		if st, ok := value.(interface{ StackTrace() string }); ok {
			shape.Stack = st.StackTrace()
		}
		b, err := json.Marshal(shape)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		return asJSON(value)
	default:
		return fmt.Sprint(value), nil
	}
}

func asJSON(value any) (string, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
