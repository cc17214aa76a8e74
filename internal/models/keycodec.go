package models

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"coronabot/internal/errs"
)

// JSON objects only support string keys, so typed keys get a prefix on the
// way out and are parsed back on the way in:
//
//	5        -> "(int)5"
//	2.5      -> "(float)2.5"
//	"(int)5" -> "\(int)5"   (literal strings that look encoded are escaped)
const (
	intPrefix    = "(int)"
	floatPrefix  = "(float)"
	escapePrefix = `\`
)

func looksEncoded(s string) bool {
	return strings.HasPrefix(s, intPrefix) ||
		strings.HasPrefix(s, floatPrefix) ||
		strings.HasPrefix(s, escapePrefix)
}

func EncodeKey(key any) (string, error) {
	switch k := normalizeKey(key).(type) {
	case string:
		if looksEncoded(k) {
			return escapePrefix + k, nil
		}
		return k, nil
	case int:
		return intPrefix + strconv.Itoa(k), nil
	case float64:
		return floatPrefix + strconv.FormatFloat(k, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("document key must be string, int or float, got %T", key)
	}
}

func DecodeKey(s string) any {
	switch {
	case strings.HasPrefix(s, intPrefix):
		if n, err := strconv.Atoi(s[len(intPrefix):]); err == nil {
			return n
		}
		return s
	case strings.HasPrefix(s, floatPrefix):
		if f, err := strconv.ParseFloat(s[len(floatPrefix):], 64); err == nil {
			return f
		}
		return s
	case strings.HasPrefix(s, escapePrefix):
		return s[len(escapePrefix):]
	default:
		return s
	}
}

// Encode converts a Document tree into a JSON-marshalable map, encoding
// typed keys and rejecting self-referential content. Sharing the same
// subtree in two places is fine; only a value that (transitively) contains
// itself fails, since that could never finish encoding.
func Encode(doc *Document) (map[string]any, error) {
	out, err := encodeValue(doc, make(map[uintptr]struct{}))
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func encodeValue(val any, seen map[uintptr]struct{}) (any, error) {
	switch v := val.(type) {
	case *Document:
		id := reflect.ValueOf(v).Pointer()
		if _, ok := seen[id]; ok {
			return nil, errs.New(errs.CircularReference, "circular reference detected")
		}
		seen[id] = struct{}{}
		out := make(map[string]any, v.Len())
		for _, key := range v.keys {
			encKey, err := EncodeKey(key)
			if err != nil {
				return nil, err
			}
			encVal, err := encodeValue(v.vals[key], seen)
			if err != nil {
				return nil, err
			}
			out[encKey] = encVal
		}
		delete(seen, id)
		return out, nil
	case []any:
		if len(v) == 0 {
			return v, nil
		}
		id := reflect.ValueOf(v).Pointer()
		if _, ok := seen[id]; ok {
			return nil, errs.New(errs.CircularReference, "circular reference detected")
		}
		seen[id] = struct{}{}
		out := make([]any, len(v))
		for i, item := range v {
			encItem, err := encodeValue(item, seen)
			if err != nil {
				return nil, err
			}
			out[i] = encItem
		}
		delete(seen, id)
		return out, nil
	default:
		return val, nil
	}
}

// Decode is the inverse of Encode: unmarshaled JSON maps become Documents
// with typed keys restored. Decode(Encode(doc)) preserves content for any
// nesting depth.
func Decode(raw map[string]any) *Document {
	doc := NewDocument()
	for key, val := range raw {
		doc.Set(DecodeKey(key), decodeValue(val))
	}
	return doc
}

func decodeValue(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return Decode(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = decodeValue(item)
		}
		return out
	default:
		return val
	}
}
