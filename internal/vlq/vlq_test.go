package vlq

import (
	"bytes"
	"errors"
	"io"
	"slices"
	"strconv"
	"testing"

	"golang.org/x/exp/constraints"
)

type readTestCase[T constraints.Unsigned] struct {
	data       []byte // input
	extraBytes int    // number of bytes left after the VLQ
	want       T
	wantErr    error
}

func testRead[T constraints.Unsigned](t *testing.T, tc readTestCase[T]) {
	t.Helper()
	r := bytes.NewReader(tc.data)
	got, err := ReadMinimal[T](r)
	if !errors.Is(err, tc.wantErr) {
		t.Fatalf("ReadMinimal(%# x) error = %v, wantErr %v", tc.data, err, tc.wantErr)
	}
	if err != nil {
		return
	}
	if got != tc.want {
		t.Errorf("ReadMinimal(%# x) = %v, want %v", tc.data, got, tc.want)
	}
	if r.Len() != tc.extraBytes {
		t.Errorf("ReadMinimal(%# x) extra bytes = %d, want %d", tc.data, r.Len(), tc.extraBytes)
	}
}

func TestReadMinimal(t *testing.T) {
	tests := map[string]readTestCase[uint]{
		"SingleByte":     {[]byte{0x05}, 0, 5, nil},
		"MultiByte":      {[]byte{0x85, 0x01, 0x00}, 1, 641, nil},
		"SecondByteZero": {[]byte{0x81, 0x00}, 0, 128, nil},
		"EOF":            {nil, 0, 0, io.EOF},
		"UnexpectedEOF":  {[]byte{0x81, 0x80}, 0, 0, io.ErrUnexpectedEOF},
		"NonMinimal":     {[]byte{0x80, 0x85, 0x01}, 0, 0, ErrNotMinimal},
		"Overflow":       {[]byte{0x81, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x00}, 0, 0, ErrOverflow}, // assumes 64 bit uint
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			testRead(t, tc)
		})
	}
}

func TestReadMinimal8(t *testing.T) {
	tests := map[string]readTestCase[uint8]{
		"SingleByte": {[]byte{0x05}, 0, 5, nil},
		"Max":        {[]byte{0x81, 0x7f}, 0, 255, nil},
		"Overflow":   {[]byte{0x85, 0x01, 0x00}, 0, 0, ErrOverflow},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			testRead(t, tc)
		})
	}
}

func TestAppend(t *testing.T) {
	tests := []struct {
		value uint
		want  []byte
	}{
		{0, []byte{0x00}},
		{25, []byte{25}},
		{127, []byte{0x7f}},
		{128, []byte{0x81, 0x00}},
		{641, []byte{0x85, 0x01}},
		{113549, []byte{0x86, 0xF7, 0x0D}},
	}
	for _, tc := range tests {
		t.Run(strconv.FormatUint(uint64(tc.value), 10), func(t *testing.T) {
			if l := Length(tc.value); l != len(tc.want) {
				t.Errorf("Length(%d) = %d, want %d", tc.value, l, len(tc.want))
			}
			got := Append([]byte{0xAA}, tc.value)
			if got[0] != 0xAA || !slices.Equal(got[1:], tc.want) {
				t.Errorf("Append(%d) = %# x, want %# x", tc.value, got[1:], tc.want)
			}
			back, err := ReadMinimal[uint](bytes.NewReader(got[1:]))
			if err != nil || back != tc.value {
				t.Errorf("ReadMinimal(Append(%d)) = %d, %v", tc.value, back, err)
			}
		})
	}
}

func TestAppend8(t *testing.T) {
	if got := Append(nil, uint8(200)); !slices.Equal(got, []byte{0x81, 0x48}) {
		t.Errorf("Append(200) = %# x, want 81 48", got)
	}
}

func BenchmarkLength(b *testing.B) {
	for b.Loop() {
		Length(uint8(200))
	}
}
