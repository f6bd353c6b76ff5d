package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version   byte = 1
	kindFrame byte = 1
	headerLen      = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("l2cache: corrupt frame")
	magic4     = [...]byte{'L', '2', 'C', 'E'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames payload with the region epoch it was written under:
//
//	magic(4) | ver(1) | kind(1) | epoch(u64 be) | plen(u32 be) | payload(plen)
func Encode(epoch uint64, payload []byte) []byte {
	out := make([]byte, headerLen+len(payload))
	copy(out, magic4[:])
	out[4] = version
	out[5] = kindFrame
	binary.BigEndian.PutUint64(out[6:14], epoch)
	binary.BigEndian.PutUint32(out[14:18], uint32(len(payload)))
	copy(out[headerLen:], payload)
	return out
}

// Decode returns the epoch and payload of a frame. The payload aliases b.
// Trailing bytes are corruption.
func Decode(b []byte) (epoch uint64, payload []byte, err error) {
	if len(b) < headerLen || !hasMagic(b) || b[4] != version || b[5] != kindFrame {
		return 0, nil, ErrCorrupt
	}
	epoch = binary.BigEndian.Uint64(b[6:14])
	plen := int(binary.BigEndian.Uint32(b[14:18]))
	if plen != len(b)-headerLen {
		return 0, nil, ErrCorrupt
	}
	return epoch, b[headerLen:], nil
}

// Epoch reads only the epoch of a frame.
func Epoch(b []byte) (uint64, error) {
	e, _, err := Decode(b)
	return e, err
}
