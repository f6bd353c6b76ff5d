package wire

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	cases := []struct {
		epoch   uint64
		payload []byte
	}{
		{0, nil},
		{42, []byte("hello")},
		{math.MaxUint64, []byte{0, 1, 2, 3, 4}},
	}
	for _, tc := range cases {
		enc := Encode(tc.epoch, tc.payload)
		epoch, p, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if epoch != tc.epoch {
			t.Fatalf("epoch mismatch: got %d want %d", epoch, tc.epoch)
		}
		if !bytes.Equal(p, tc.payload) {
			t.Fatalf("payload mismatch: got %x want %x", p, tc.payload)
		}
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	enc := append(Encode(7, []byte("x")), 0xDE, 0xAD)
	if _, _, err := Decode(enc); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt on trailing bytes, got %v", err)
	}
}

func TestDecodeCorruptHeaders(t *testing.T) {
	enc := Encode(1, []byte("abc"))

	mutate := func(f func(b []byte)) []byte {
		b := append([]byte(nil), enc...)
		f(b)
		return b
	}
	bad := map[string][]byte{
		"magic":   mutate(func(b []byte) { b[0] = 'X' }),
		"version": mutate(func(b []byte) { b[4] = version + 1 }),
		"kind":    mutate(func(b []byte) { b[5] = kindFrame + 1 }),
		"length":  mutate(func(b []byte) { binary.BigEndian.PutUint32(b[14:18], 99) }),
		"short":   enc[:headerLen-1],
		"empty":   nil,
	}
	for name, b := range bad {
		if _, _, err := Decode(b); err != ErrCorrupt {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
	}
}

func TestEpochHelper(t *testing.T) {
	e, err := Epoch(Encode(9, []byte("v")))
	if err != nil || e != 9 {
		t.Fatalf("Epoch = %d, %v", e, err)
	}
}
