package protocol

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_PrimitivesRoundTrip(t *testing.T) {
	w := NewWriter(0x42).
		Int8(-5).
		Int16(math.MinInt16).
		Int32(-123456789).
		Int64(math.MaxInt64).
		Float32(3.5).
		Float64(-0.125).
		Bool(true).
		Uint8(0xfe)

	b := w.Bytes()
	require.Equal(t, byte(0x42), b[0])
	require.Equal(t, 1+1+2+4+8+4+8+1+1, len(b))

	r := NewReader(b[1:], DefaultLimits())
	assert.Equal(t, int8(-5), r.Int8())
	assert.Equal(t, int16(math.MinInt16), r.Int16())
	assert.Equal(t, int32(-123456789), r.Int32())
	assert.Equal(t, int64(math.MaxInt64), r.Int64())
	assert.Equal(t, float32(3.5), r.Float32())
	assert.Equal(t, -0.125, r.Float64())
	assert.True(t, r.Bool())
	assert.Equal(t, uint8(0xfe), r.Uint8())
	require.NoError(t, r.Err())
	assert.Equal(t, 0, r.Remaining())
}

func TestCodec_BigEndianLayout(t *testing.T) {
	b := NewWriter(0).Int32(0x01020304).Int16(0x0506).Bytes()
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6}, b)
}

func TestCodec_FloatBitsPreserved(t *testing.T) {
	nan := math.Float64frombits(0x7ff8000000000001)
	b := NewWriter(0).Float64(nan).Float32(float32(math.Inf(-1))).Bytes()
	r := NewReader(b[1:], DefaultLimits())
	assert.Equal(t, uint64(0x7ff8000000000001), math.Float64bits(r.Float64()))
	assert.True(t, math.IsInf(float64(r.Float32()), -1))
}

func TestCodec_TextRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		units int
	}{
		{"empty", "", 0},
		{"ascii", "Notch", 5},
		{"bmp", "häuschen §", 10},
		{"surrogate pair", "a\U0001F600b", 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewWriter(0).String(tc.in).Bytes()
			require.Equal(t, 1+2+2*tc.units, len(b))
			assert.Equal(t, tc.units, TextUnits(tc.in))

			r := NewReader(b[1:], DefaultLimits())
			assert.Equal(t, tc.in, r.String())
			require.NoError(t, r.Err())
			assert.Equal(t, 2+2*tc.units, r.Offset())
		})
	}
}

func TestCodec_LoneSurrogateDecodesToReplacement(t *testing.T) {
	// count=2, units: 0xD800 (unpaired high surrogate), 'x'
	r := NewReader([]byte{0x00, 0x02, 0xd8, 0x00, 0x00, 'x'}, DefaultLimits())
	assert.Equal(t, "\uFFFDx", r.String())
	require.NoError(t, r.Err())
}

func TestCodec_ShortReadDoesNotAdvance(t *testing.T) {
	full := NewWriter(0).Int16(7).String("abc").Bytes()[1:]
	for n := 0; n < len(full); n++ {
		r := NewReader(full[:n], DefaultLimits())
		_ = r.Int16()
		_ = r.String()
		require.ErrorIs(t, r.Err(), ErrShortBuffer, "prefix %d", n)
		assert.LessOrEqual(t, r.Offset(), 2, "prefix %d", n)
		if n < 2 {
			assert.Equal(t, 0, r.Offset())
		}
	}

	r := NewReader(full, DefaultLimits())
	assert.Equal(t, int16(7), r.Int16())
	assert.Equal(t, "abc", r.String())
	require.NoError(t, r.Err())
}

func TestCodec_StickyErrorReturnsZero(t *testing.T) {
	r := NewReader([]byte{0x01}, DefaultLimits())
	assert.Equal(t, int32(0), r.Int32())
	assert.Equal(t, int8(0), r.Int8())
	assert.Equal(t, "", r.String())
	assert.Equal(t, 0, r.Offset())
	assert.ErrorIs(t, r.Err(), ErrShortBuffer)
}

func TestCodec_TextOverLimitIsMalformed(t *testing.T) {
	b := NewWriter(0).String("abcdef").Bytes()[1:]
	r := NewReader(b, Limits{MaxTextUnits: 5})
	_ = r.String()

	err := r.Err()
	require.ErrorIs(t, err, ErrTextTooLong)
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ErrProtoMalformed, pe.Code)
}

func TestCodec_TextOverLimitDetectedBeforeBody(t *testing.T) {
	// Only the count is buffered; the declared length alone is enough to reject.
	r := NewReader([]byte{0xff, 0xff}, DefaultLimits())
	_ = r.String()
	require.ErrorIs(t, r.Err(), ErrTextTooLong)
}

func TestCodec_BlobLenBounds(t *testing.T) {
	r := NewReader(nil, Limits{MaxBlobBytes: 16})
	assert.True(t, r.BlobLen(16))
	assert.False(t, r.BlobLen(17))
	require.Error(t, r.Err())

	r = NewReader(nil, Limits{MaxBlobBytes: 16})
	assert.False(t, r.BlobLen(-2))
	assert.False(t, errors.Is(r.Err(), ErrShortBuffer))
}

func TestCodec_BytesCopies(t *testing.T) {
	src := []byte{1, 2, 3}
	r := NewReader(src, DefaultLimits())
	got := r.Bytes(3)
	src[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, got)
}
