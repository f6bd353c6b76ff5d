package codec

import "google.golang.org/protobuf/proto"

// Protobuf stores generated protobuf messages.
type Protobuf[M proto.Message] struct {
	alloc func() M
}

// NewProtobuf takes a constructor for empty messages, e.g.
// func() *pb.User { return new(pb.User) }.
func NewProtobuf[M proto.Message](alloc func() M) Protobuf[M] {
	return Protobuf[M]{alloc: alloc}
}

func (c Protobuf[M]) Encode(m M) ([]byte, error) { return proto.Marshal(m) }

func (c Protobuf[M]) Decode(b []byte) (M, error) {
	m := c.alloc()
	if err := proto.Unmarshal(b, m); err != nil {
		var zero M
		return zero, err
	}
	return m, nil
}
