package protocol

import "testing"

func TestSmIntRoundTrip(t *testing.T) {
	for _, v := range []int{0, 1, 42, 99} {
		enc := EncodeSmInt(v)
		if len(enc) != 2 {
			t.Fatalf("EncodeSmInt(%d) = %q, want len 2", v, enc)
		}
		got, n, err := DecodeSmInt([]byte(enc))
		if err != nil {
			t.Fatalf("DecodeSmInt(%q) error: %v", enc, err)
		}
		if got != v || n != 2 {
			t.Fatalf("DecodeSmInt(%q) = (%d, %d), want (%d, 2)", enc, got, n, v)
		}
	}
}

func TestBgIntRoundTrip(t *testing.T) {
	for _, v := range []int{0, 7, 1234, 9999} {
		enc := EncodeBgInt(v)
		got, n, err := DecodeBgInt([]byte(enc))
		if err != nil {
			t.Fatalf("DecodeBgInt(%q) error: %v", enc, err)
		}
		if got != v || n != 4 {
			t.Fatalf("DecodeBgInt(%q) = (%d, %d), want (%d, 4)", enc, got, n, v)
		}
	}
}

func TestVarIntRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 2500, -999999, 1<<62 - 1} {
		enc := EncodeVarInt(v)
		got, n, err := DecodeVarInt([]byte(enc))
		if err != nil {
			t.Fatalf("DecodeVarInt(%q) error: %v", enc, err)
		}
		if got != v || n != len(enc) {
			t.Fatalf("DecodeVarInt(%q) = (%d, %d), want (%d, %d)", enc, got, n, v, len(enc))
		}
	}
}

func TestNetStrRoundTrip(t *testing.T) {
	for _, s := range []string{"", "Alice", "a nickname with spaces", "unicode-éè"} {
		enc := EncodeNetStr(s)
		got, n, err := DecodeNetStr([]byte(enc))
		if err != nil {
			t.Fatalf("DecodeNetStr(%q) error: %v", enc, err)
		}
		if got != s || n != len(enc) {
			t.Fatalf("DecodeNetStr(%q) = (%q, %d), want (%q, %d)", enc, got, n, s, len(enc))
		}
	}
}

func TestDecodeShortBufferErrors(t *testing.T) {
	if _, _, err := DecodeSmInt([]byte("1")); err != ErrShortBuffer {
		t.Fatalf("DecodeSmInt short buffer: got %v, want ErrShortBuffer", err)
	}
	if _, _, err := DecodeBgInt([]byte("12")); err != ErrShortBuffer {
		t.Fatalf("DecodeBgInt short buffer: got %v, want ErrShortBuffer", err)
	}
}

func TestDecodeNonDigitErrors(t *testing.T) {
	if _, _, err := DecodeSmInt([]byte("1x")); err != ErrNonDigit {
		t.Fatalf("DecodeSmInt non-digit: got %v, want ErrNonDigit", err)
	}
	if _, _, err := DecodeBgInt([]byte("12x4")); err != ErrNonDigit {
		t.Fatalf("DecodeBgInt non-digit: got %v, want ErrNonDigit", err)
	}
}

func TestDecodeNetStrOverrun(t *testing.T) {
	// declares length 10 but only 2 bytes of body follow
	if _, _, err := DecodeNetStr([]byte("0010Al")); err != ErrLengthOverrun {
		t.Fatalf("DecodeNetStr overrun: got %v, want ErrLengthOverrun", err)
	}
}

func TestDecodeVarIntBadDigits(t *testing.T) {
	// declares 3 digits, but they aren't a valid signed integer
	if _, _, err := DecodeVarInt([]byte("03abc")); err == nil {
		t.Fatal("DecodeVarInt with non-numeric body: want error, got nil")
	}
}

func TestVarIntNegativeCountsSignInLength(t *testing.T) {
	enc := EncodeVarInt(-5)
	if enc != "02-5" {
		t.Fatalf("EncodeVarInt(-5) = %q, want %q", enc, "02-5")
	}
}
