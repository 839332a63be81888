package protocol

import (
	"golang.org/x/text/encoding/unicode"
)

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// decodeUTF16 converts big-endian UTF-16 code units to UTF-8. Unpaired
// surrogates become U+FFFD.
func decodeUTF16(units []byte) (string, error) {
	if len(units) == 0 {
		return "", nil
	}
	out, err := utf16BE.NewDecoder().Bytes(units)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// encodeUTF16 converts a UTF-8 string to big-endian UTF-16 code units.
func encodeUTF16(s string) []byte {
	if s == "" {
		return nil
	}
	out, err := utf16BE.NewEncoder().String(s)
	if err != nil {
		// Invalid UTF-8 input; the encoder replaces bad sequences, so this
		// only happens on internal transformer failures.
		return nil
	}
	return []byte(out)
}

// TextUnits returns the number of UTF-16 code units s encodes to.
func TextUnits(s string) int {
	return len(encodeUTF16(s)) / 2
}
