package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// PayloadKind tags the decoded shape of a provider response.
type PayloadKind int

const (
	PayloadOther PayloadKind = iota
	PayloadList
	PayloadObject
	PayloadString
)

// RawPayload is a provider response decoded just far enough to know its
// top-level shape. Exactly one of List, Object, String is meaningful, chosen
// by Kind; Other holds any remaining JSON value (number, bool, null).
type RawPayload struct {
	Kind   PayloadKind
	List   []any
	Object map[string]any
	String string
	Other  any
}

// ListPayload wraps a JSON array.
func ListPayload(v []any) RawPayload { return RawPayload{Kind: PayloadList, List: v} }

// ObjectPayload wraps a JSON object.
func ObjectPayload(v map[string]any) RawPayload { return RawPayload{Kind: PayloadObject, Object: v} }

// StringPayload wraps plain response text.
func StringPayload(s string) RawPayload { return RawPayload{Kind: PayloadString, String: s} }

// PayloadOf classifies an already-decoded JSON value.
func PayloadOf(v any) RawPayload {
	switch t := v.(type) {
	case []any:
		return ListPayload(t)
	case map[string]any:
		return ObjectPayload(t)
	case string:
		return StringPayload(t)
	}
	return RawPayload{Kind: PayloadOther, Other: v}
}

// DecodePayload decodes a JSON document into a RawPayload. Numbers are kept
// as json.Number so that large integers survive untouched.
func DecodePayload(data []byte) (RawPayload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return RawPayload{}, fmt.Errorf("failed to decode response body: %w", err)
	}
	return PayloadOf(v), nil
}

// Value returns the payload as a plain decoded JSON value.
func (p RawPayload) Value() any {
	switch p.Kind {
	case PayloadList:
		return p.List
	case PayloadObject:
		return p.Object
	case PayloadString:
		return p.String
	}
	return p.Other
}

// TypeTag describes the payload's shape for diagnostics, e.g. "object{foo}"
// or "list[2]".
func (p RawPayload) TypeTag() string {
	return typeTag(p.Value())
}

func typeTag(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case []any:
		return fmt.Sprintf("list[%d]", len(t))
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "object{" + strings.Join(keys, ",") + "}"
	case string:
		return "string"
	case bool:
		return "bool"
	case json.Number, float64, float32, int, int64:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
