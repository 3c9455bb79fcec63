package types

import (
	"bytes"
	"encoding/json"
)

// Optional is a PATCH field that separates "absent" from an explicit null.
// Set is true whenever the key appeared in the payload; Value is nil when it
// was null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a set Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// Get returns a copy of the held pointer so callers never alias the input.
func (o Optional[T]) Get() *T {
	if o.Value == nil {
		return nil
	}
	v := *o.Value
	return &v
}
