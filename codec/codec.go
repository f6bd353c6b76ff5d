// Package codec turns typed entity and collection state into the opaque
// bytes cache regions store. See l2cache.Typed.
package codec

import (
	"encoding/json"
	"fmt"
)

// Codec encodes and decodes cached state of type V.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// JSONCodec stores state as JSON. Readable in a shared store, not compact.
type JSONCodec[V any] struct{}

func (JSONCodec[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSONCodec[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}

// Bytes passes already serialized state through unchanged.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String stores string state as its UTF-8 bytes.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }

// TooLargeError is returned by MaxSize for oversized payloads.
type TooLargeError struct {
	Size, Max int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("codec: payload too large: %d > %d", e.Size, e.Max)
}

// MaxSize bounds what Inner will decode. A region backed by a shared store
// can hold bytes written by anyone; Max <= 0 disables the check.
type MaxSize[V any] struct {
	Inner Codec[V]
	Max   int
}

func (c MaxSize[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c MaxSize[V]) Decode(b []byte) (V, error) {
	if c.Max > 0 && len(b) > c.Max {
		var zero V
		return zero, &TooLargeError{Size: len(b), Max: c.Max}
	}
	return c.Inner.Decode(b)
}

var (
	_ Codec[int]    = JSONCodec[int]{}
	_ Codec[[]byte] = Bytes{}
	_ Codec[string] = String{}
	_ Codec[int]    = MaxSize[int]{}
)
