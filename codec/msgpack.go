package codec

import "github.com/vmihailenco/msgpack/v5"

// Msgpack stores state in MessagePack, the format the cache uses for its own
// entries. Field names follow `msgpack` struct tags.
type Msgpack[V any] struct{}

func (Msgpack[V]) Encode(v V) ([]byte, error) { return msgpack.Marshal(v) }

func (Msgpack[V]) Decode(b []byte) (V, error) {
	var v V
	err := msgpack.Unmarshal(b, &v)
	return v, err
}
