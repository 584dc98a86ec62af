package check

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"
)

// BodyKind tells how a response body was interpreted.
type BodyKind int

const (
	// BodyRaw is a payload that did not decode as JSON.
	BodyRaw BodyKind = iota
	// BodyStructured is a payload that decoded as JSON.
	BodyStructured
)

func (k BodyKind) String() string {
	switch k {
	case BodyStructured:
		return "structured"
	default:
		return "raw"
	}
}

// Body is a response payload, decided once as either structured JSON or
// raw text. Code downstream of DecodeBody switches on Kind and never tries
// to re-parse Text.
type Body struct {
	Kind BodyKind

	// Data holds the decoded JSON value when Kind is BodyStructured.
	Data any

	// Text holds the payload as received.
	Text string
}

// DecodeBody interprets raw as JSON if it decodes cleanly, and as raw text
// otherwise. An empty payload is raw text.
func DecodeBody(raw []byte) Body {
	text := string(raw)
	if len(bytes.TrimSpace(raw)) == 0 {
		return Body{Kind: BodyRaw, Text: text}
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return Body{Kind: BodyRaw, Text: text}
	}
	return Body{Kind: BodyStructured, Data: data, Text: text}
}

// RawText wraps a string that is known not to be structured.
func RawText(s string) Body {
	return Body{Kind: BodyRaw, Text: s}
}

// Structured reports whether the body decoded as JSON.
func (b Body) Structured() bool {
	return b.Kind == BodyStructured
}

// Field returns a top-level member of a structured JSON object.
func (b Body) Field(key string) (any, bool) {
	if b.Kind != BodyStructured {
		return nil, false
	}
	obj, ok := b.Data.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj[key]
	return v, ok
}

// String renders the body for reports: compact JSON for structured
// bodies, the text as received otherwise.
func (b Body) String() string {
	if b.Kind == BodyStructured {
		out, err := json.Marshal(b.Data)
		if err == nil {
			return string(out)
		}
	}
	return b.Text
}

// Snippet returns at most n runes of String().
func (b Body) Snippet(n int) string {
	return truncate(b.String(), n)
}

// MarshalJSON emits structured bodies as their JSON value and raw bodies
// as a JSON string.
func (b Body) MarshalJSON() ([]byte, error) {
	if b.Kind == BodyStructured {
		return json.Marshal(b.Data)
	}
	return json.Marshal(b.Text)
}

// UnmarshalJSON reverses MarshalJSON: a JSON string is raw text and any
// other value is structured.
func (b *Body) UnmarshalJSON(raw []byte) error {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		*b = RawText(text)
		return nil
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return err
	}
	*b = Body{Kind: BodyStructured, Data: data, Text: string(raw)}
	return nil
}

// MarshalYAML mirrors MarshalJSON for YAML reports.
func (b Body) MarshalYAML() (any, error) {
	if b.Kind == BodyStructured {
		return b.Data, nil
	}
	return b.Text, nil
}

func truncate(s string, n int) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Truthy reports whether a decoded JSON value is non-empty: not null,
// false, zero, an empty string, an empty array or an empty object.
func Truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
