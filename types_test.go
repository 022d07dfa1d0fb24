// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asn1map

import (
	"testing"
	"time"
)

func TestBitString(t *testing.T) {
	s := BitString{}.SetBit(0).SetBit(5).SetBit(9)
	if s.BitLength != 10 || len(s.Bytes) != 2 {
		t.Fatalf("SetBit() = %v (%d bits), want 10 bits", s, s.BitLength)
	}
	if got, want := s.String(), "10000100 01"; got != want {
		t.Errorf("BitString.String() = %q, want %q", got, want)
	}
	padded := BitString{[]byte{0x84, 0x40, 0x00}, 24}
	if got := padded.TrimRight(); !got.Equal(s) {
		t.Errorf("TrimRight() = %v, want %v", got, s)
	}
	if got := (BitString{[]byte{0x00}, 8}).TrimRight(); got.BitLength != 0 || len(got.Bytes) != 0 {
		t.Errorf("TrimRight() of zero bits = %v, want empty", got)
	}
	if (BitString{[]byte{0xFF}, 9}).IsValid() {
		t.Errorf("IsValid() = true for too short byte slice")
	}
}

func TestParseObjectIdentifier(t *testing.T) {
	tests := map[string]struct {
		s       string
		want    ObjectIdentifier
		wantErr bool
	}{
		"RSA":           {"1.2.840.113549.1.1.1", ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}, false},
		"JointISO":      {"2.999.3", ObjectIdentifier{2, 999, 3}, false},
		"SingleArc":     {"1", nil, true},
		"InvalidFirst":  {"3.1", nil, true},
		"InvalidSecond": {"1.40", nil, true},
		"Garbage":       {"1.2.x", nil, true},
		"Empty":         {"", nil, true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseObjectIdentifier(tt.s)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseObjectIdentifier(%q) error = %v, wantErr %v", tt.s, err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseObjectIdentifier(%q) = %v, want %v", tt.s, got, tt.want)
			}
			if err == nil && got.String() != tt.s {
				t.Errorf("ObjectIdentifier.String() = %q, want %q", got.String(), tt.s)
			}
		})
	}
}

func TestValidString(t *testing.T) {
	tests := map[string]struct {
		number uint
		s      string
		want   bool
	}{
		"Numeric":          {TagNumericString, "0123 456", true},
		"NumericLetter":    {TagNumericString, "12a", false},
		"Printable":        {TagPrintableString, "Hello (World)", true},
		"PrintableStar":    {TagPrintableString, "*.example.com", false},
		"IA5":              {TagIA5String, "user@example.com", true},
		"IA5Umlaut":        {TagIA5String, "Müller", false},
		"Visible":          {TagVisibleString, "tab\there", false},
		"BMP":              {TagBMPString, "Grüße", true},
		"BMPSupplementary": {TagBMPString, "\U0001F600", false},
		"Teletex":          {TagTeletexString, "Grüße", true},
		"TeletexEuro":      {TagTeletexString, "€", false},
		"UTF8":             {TagUTF8String, "\U0001F600", true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ValidString(tt.number, tt.s); got != tt.want {
				t.Errorf("ValidString(%d, %q) = %v, want %v", tt.number, tt.s, got, tt.want)
			}
		})
	}
}

func TestUTCTime_String(t *testing.T) {
	tests := map[string]struct {
		t    time.Time
		want string
	}{
		"EarlyUTC":       {time.Date(1962, 7, 23, 16, 12, 3, 0, time.UTC), "620723161203Z"},
		"LateUTC":        {time.Date(2048, 7, 23, 8, 12, 0, 0, time.UTC), "480723081200Z"},
		"PositiveOffset": {time.Date(2048, 7, 23, 23, 12, 0, 0, time.FixedZone("", 3*60*60)), "480723231200+0300"},
		"NegativeOffset": {time.Date(2048, 7, 23, 2, 12, 0, 0, time.FixedZone("", -(5*60+30)*60)), "480723021200-0530"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := UTCTime(tt.t).String(); got != tt.want {
				t.Errorf("UTCTime.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGeneralizedTime_String(t *testing.T) {
	tests := map[string]struct {
		t    time.Time
		want string
	}{
		"Example":       {time.Date(1985, 11, 06, 21, 06, 27, 300000000, time.Local), "19851106210627.3"},
		"ExampleUTC":    {time.Date(1985, 11, 06, 21, 06, 27, 300000000, time.UTC), "19851106210627.3Z"},
		"Fractional":    {time.Date(1985, 11, 06, 21, 06, 27, 30000000, time.UTC), "19851106210627.03Z"},
		"ExampleOffset": {time.Date(1985, 11, 06, 21, 06, 27, 300000000, time.FixedZone("", -5*3600)), "19851106210627.3-0500"},
		"WholeSeconds":  {time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), "20240229000000Z"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := GeneralizedTime(tt.t).String(); got != tt.want {
				t.Errorf("GeneralizedTime.String() = %v, want %v", got, tt.want)
			}
		})
	}
}
