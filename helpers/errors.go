package helpers

import (
	"errors"
	"fmt"

	"github.com/jamesread/strategyshim/authpublic"
)

// Field names recognised when building an ErrorEntry from loose data.
const (
	FieldMessageKey = "message_key"
	FieldMessage    = "message"
)

// ErrUnrecognizedErrorShape is wrapped by every ShapeError.
var ErrUnrecognizedErrorShape = errors.New("unrecognized error shape")

// ShapeError reports an input the normalizer could not turn into an ErrorEntry.
type ShapeError struct {
	Index int
	Value any
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%v: item %d has type %T", ErrUnrecognizedErrorShape, e.Index, e.Value)
}

func (e *ShapeError) Unwrap() error {
	return ErrUnrecognizedErrorShape
}

// ErrorInput is one reported error in any of the accepted shapes: Typed,
// Fields or PairList.
type ErrorInput interface {
	errorInput()
}

// Typed is an error that is already an ErrorEntry.
type Typed authpublic.ErrorEntry

// Fields is an error given as a field mapping. Unknown keys are ignored and
// missing keys become empty strings.
type Fields map[string]string

// Pair is one element of a PairList.
type Pair struct {
	Key   string
	Value string
}

// PairList is an error given as an ordered key/value list. When a key
// repeats, the last value wins.
type PairList []Pair

func (Typed) errorInput()    {}
func (Fields) errorInput()   {}
func (PairList) errorInput() {}

// Error builds one ErrorEntry.
func Error(key, message string) authpublic.ErrorEntry {
	return authpublic.ErrorEntry{MessageKey: key, Message: message}
}

// Normalize converts inputs into ErrorEntries, keeping their order. Nil and
// empty input give an empty, non-nil slice.
func Normalize(inputs []ErrorInput) ([]authpublic.ErrorEntry, error) {
	ret := make([]authpublic.ErrorEntry, 0, len(inputs))

	for i, in := range inputs {
		switch v := in.(type) {
		case Typed:
			ret = append(ret, authpublic.ErrorEntry(v))
		case Fields:
			ret = append(ret, fromFields(v))
		case PairList:
			ret = append(ret, fromPairs(v))
		default:
			return nil, &ShapeError{Index: i, Value: in}
		}
	}

	return ret, nil
}

// NormalizeAny is Normalize for loosely typed values such as decoded JSON or
// YAML. It accepts a single error in any recognised shape, or a slice of them.
func NormalizeAny(v any) ([]authpublic.ErrorEntry, error) {
	switch t := v.(type) {
	case nil:
		return []authpublic.ErrorEntry{}, nil
	case []ErrorInput:
		return Normalize(t)
	case []authpublic.ErrorEntry:
		return append([]authpublic.ErrorEntry{}, t...), nil
	case []any:
		return normalizeItems(t)
	case []map[string]any:
		return normalizeItems(toAnySlice(t))
	case []map[string]string:
		return normalizeItems(toAnySlice(t))
	}

	entry, ok := normalizeItem(v)
	if !ok {
		return nil, &ShapeError{Index: 0, Value: v}
	}

	return []authpublic.ErrorEntry{entry}, nil
}

func normalizeItems(items []any) ([]authpublic.ErrorEntry, error) {
	ret := make([]authpublic.ErrorEntry, 0, len(items))

	for i, item := range items {
		entry, ok := normalizeItem(item)
		if !ok {
			return nil, &ShapeError{Index: i, Value: item}
		}
		ret = append(ret, entry)
	}

	return ret, nil
}

func normalizeItem(item any) (authpublic.ErrorEntry, bool) {
	switch v := item.(type) {
	case authpublic.ErrorEntry:
		return v, true
	case *authpublic.ErrorEntry:
		if v == nil {
			return authpublic.ErrorEntry{}, false
		}
		return *v, true
	case Typed:
		return authpublic.ErrorEntry(v), true
	case Fields:
		return fromFields(v), true
	case map[string]string:
		return fromFields(v), true
	case map[string]any:
		return fromAnyFields(v)
	case PairList:
		return fromPairs(v), true
	case []Pair:
		return fromPairs(v), true
	case [][2]string:
		pairs := make([]Pair, 0, len(v))
		for _, p := range v {
			pairs = append(pairs, Pair{Key: p[0], Value: p[1]})
		}
		return fromPairs(pairs), true
	}

	return authpublic.ErrorEntry{}, false
}

func fromFields(fields map[string]string) authpublic.ErrorEntry {
	return authpublic.ErrorEntry{
		MessageKey: fields[FieldMessageKey],
		Message:    fields[FieldMessage],
	}
}

func fromAnyFields(fields map[string]any) (authpublic.ErrorEntry, bool) {
	converted := make(map[string]string, 2)

	for _, key := range []string{FieldMessageKey, FieldMessage} {
		raw, ok := fields[key]
		if !ok || raw == nil {
			continue
		}

		s, ok := raw.(string)
		if !ok {
			return authpublic.ErrorEntry{}, false
		}
		converted[key] = s
	}

	return fromFields(converted), true
}

func fromPairs(pairs []Pair) authpublic.ErrorEntry {
	fields := make(map[string]string, len(pairs))
	for _, p := range pairs {
		fields[p.Key] = p.Value
	}
	return fromFields(fields)
}

func toAnySlice[T any](in []T) []any {
	ret := make([]any, len(in))
	for i, v := range in {
		ret[i] = v
	}
	return ret
}
