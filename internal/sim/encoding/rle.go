package encoding

import (
	"encoding/binary"
	"fmt"
)

// EncodeRLE encodes a byte sequence as varint pairs (value, run_len).
func EncodeRLE(ids []byte) []byte {
	out := make([]byte, 0, 64)
	var tmp [binary.MaxVarintLen64]byte

	i := 0
	for i < len(ids) {
		b := ids[i]
		run := 1
		for j := i + 1; j < len(ids) && ids[j] == b && run < 1<<31; j++ {
			run++
		}

		n := binary.PutUvarint(tmp[:], uint64(b))
		out = append(out, tmp[:n]...)
		n = binary.PutUvarint(tmp[:], uint64(run))
		out = append(out, tmp[:n]...)

		i += run
	}
	return out
}

// DecodeRLE expands pairs produced by EncodeRLE. max bounds the output length.
func DecodeRLE(raw []byte, max int) ([]byte, error) {
	var out []byte
	for i := 0; i < len(raw); {
		b, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if b > 0xFF {
			return nil, fmt.Errorf("value too large: %d", b)
		}
		if run > uint64(max-len(out)) {
			return nil, fmt.Errorf("run of %d exceeds limit %d", run, max)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, byte(b))
		}
	}
	return out, nil
}
