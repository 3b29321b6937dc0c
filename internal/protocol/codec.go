// Package protocol implements the wire format: fixed-width and
// length-prefixed ASCII field codecs, the outer message frame, and the
// incremental byte-level parser.
package protocol

import (
	"strconv"

	"github.com/pkg/errors"
)

// Sentinel decode errors. Callers disconnect on any of these — the
// wire format has no resync point past a bad field.
var (
	ErrShortBuffer   = errors.New("protocol: buffer shorter than declared field")
	ErrNonDigit      = errors.New("protocol: non-digit in numeric field")
	ErrBadVarInt     = errors.New("protocol: var_int digit string is not a valid signed integer")
	ErrLengthOverrun = errors.New("protocol: declared length overruns buffer")
)

// EncodeSmInt formats v as a 2-digit zero-padded decimal field.
// Total function: out-of-range v (not 0..99) is the caller's error —
// this encoder does no bounds checking and will happily emit more
// than 2 digits.
func EncodeSmInt(v int) string {
	return padInt(v, 2)
}

// EncodeBgInt formats v as a 4-digit zero-padded decimal field.
func EncodeBgInt(v int) string {
	return padInt(v, 4)
}

// EncodeVarInt formats v as sm_int(len) followed by the signed
// decimal digits of v (a leading '-' counts toward len).
func EncodeVarInt(v int64) string {
	digits := strconv.FormatInt(v, 10)
	return EncodeSmInt(len(digits)) + digits
}

// EncodeNetStr formats s as bg_int(len(s)) followed by the raw bytes
// of s.
func EncodeNetStr(s string) string {
	return EncodeBgInt(len(s)) + s
}

func padInt(v, width int) string {
	s := strconv.Itoa(v)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	for len(s) < width {
		s = "0" + s
	}
	if neg {
		s = "-" + s
	}
	return s
}

func allDigits(b []byte) bool {
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func digitsToInt(b []byte) int {
	n := 0
	for _, c := range b {
		n = n*10 + int(c-'0')
	}
	return n
}

// DecodeSmInt reads a 2-digit decimal field from b, returning the
// value and the number of bytes consumed.
func DecodeSmInt(b []byte) (int, int, error) {
	return decodeFixedInt(b, 2)
}

// DecodeBgInt reads a 4-digit decimal field from b, returning the
// value and the number of bytes consumed.
func DecodeBgInt(b []byte) (int, int, error) {
	return decodeFixedInt(b, 4)
}

func decodeFixedInt(b []byte, width int) (int, int, error) {
	if len(b) < width {
		return 0, 0, ErrShortBuffer
	}
	field := b[:width]
	if !allDigits(field) {
		return 0, 0, ErrNonDigit
	}
	return digitsToInt(field), width, nil
}

// DecodeVarInt reads sm_int(N) followed by N digits (leading '-'
// allowed, counted in N) and parses them as a signed 64-bit integer.
func DecodeVarInt(b []byte) (int64, int, error) {
	n, consumed, err := DecodeSmInt(b)
	if err != nil {
		return 0, 0, err
	}
	if len(b)-consumed < n {
		return 0, 0, ErrLengthOverrun
	}
	digits := b[consumed : consumed+n]
	v, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		return 0, 0, errors.Wrap(ErrBadVarInt, err.Error())
	}
	return v, consumed + n, nil
}

// DecodeNetStr reads bg_int(len) followed by len raw bytes of UTF-8
// text.
func DecodeNetStr(b []byte) (string, int, error) {
	n, consumed, err := DecodeBgInt(b)
	if err != nil {
		return "", 0, err
	}
	if len(b)-consumed < n {
		return "", 0, ErrLengthOverrun
	}
	return string(b[consumed : consumed+n]), consumed + n, nil
}
