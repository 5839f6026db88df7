package domain

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Nullable distinguishes an absent JSON field from an explicit null, which
// partial updates need for clearable columns.
type Nullable[T any] struct {
	Set   bool // field was present in the payload
	Null  bool // field was present and null
	Value T
}

// NullableOf returns a present, non-null value.
func NullableOf[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: v}
}

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Null = true
		var zero T
		n.Value = zero
		return nil
	}
	n.Null = false
	return json.Unmarshal(b, &n.Value)
}

// Ptr returns nil for null or absent, otherwise a pointer to a copy of Value.
func (n Nullable[T]) Ptr() *T {
	if !n.Set || n.Null {
		return nil
	}
	v := n.Value
	return &v
}

// Present reports whether the field carries a non-null value.
func (n Nullable[T]) Present() bool { return n.Set && !n.Null }
