package codec

import (
	"errors"
	"testing"
	"time"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

type state struct {
	ID      int64     `json:"id" msgpack:"id" cbor:"id"`
	Name    string    `json:"name" msgpack:"name" cbor:"name"`
	Updated time.Time `json:"updated" msgpack:"updated" cbor:"updated"`
}

func TestCodecsPreserveState(t *testing.T) {
	want := state{ID: 7, Name: "ada", Updated: time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)}
	det, err := NewCBOR[state](true)
	if err != nil {
		t.Fatal(err)
	}
	for name, c := range map[string]Codec[state]{
		"json":    JSONCodec[state]{},
		"msgpack": Msgpack[state]{},
		"cbor":    det,
	} {
		b, err := c.Encode(want)
		if err != nil {
			t.Fatalf("%s: encode: %v", name, err)
		}
		got, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if got.ID != want.ID || got.Name != want.Name || !got.Updated.Equal(want.Updated) {
			t.Fatalf("%s: got %+v", name, got)
		}
	}
}

func TestCBORDeterministic(t *testing.T) {
	c, err := NewCBOR[map[string]int](true)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := c.Encode(map[string]int{"b": 2, "a": 1, "c": 3})
	for i := 0; i < 10; i++ {
		b, _ := c.Encode(map[string]int{"c": 3, "a": 1, "b": 2})
		if string(a) != string(b) {
			t.Fatal("deterministic encoding differs between runs")
		}
	}
}

func TestProtobuf(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) })
	b, err := c.Encode(wrapperspb.String("ada"))
	if err != nil {
		t.Fatal(err)
	}
	m, err := c.Decode(b)
	if err != nil || m.GetValue() != "ada" {
		t.Fatalf("Decode = %v, %v", m, err)
	}
	if _, err := c.Decode([]byte{0xff}); err == nil {
		t.Fatal("expected error on garbage")
	}
}

func TestMaxSize(t *testing.T) {
	c := MaxSize[string]{Inner: String{}, Max: 4}
	if v, err := c.Decode([]byte("abcd")); err != nil || v != "abcd" {
		t.Fatalf("Decode at limit = %q, %v", v, err)
	}
	_, err := c.Decode([]byte("abcde"))
	var tl *TooLargeError
	if !errors.As(err, &tl) || tl.Size != 5 {
		t.Fatalf("err = %v", err)
	}
	if _, err := (MaxSize[string]{Inner: String{}}).Decode(make([]byte, 1<<20)); err != nil {
		t.Fatalf("Max 0 must disable the limit: %v", err)
	}
}
