package models

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/png"
	"testing"
)

func TestParseSubject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Subject
		wantErr  bool
	}{
		{name: "exact label", input: "Cabbage", expected: Cabbage},
		{name: "lower case", input: "lettuce", expected: Lettuce},
		{name: "embedded in sentence", input: "This looks like a head of lettuce.", expected: Lettuce},
		{name: "unknown", input: "carrot", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSubject(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestDataURIRoundTrip(t *testing.T) {
	p := Payload{Data: []byte{0xff, 0xd8, 0xff}, MIME: "image/png"}

	parsed, err := ParseDataURI(p.DataURI())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if parsed.MIME != "image/png" {
		t.Errorf("Expected image/png, got %s", parsed.MIME)
	}
	if string(parsed.Data) != string(p.Data) {
		t.Errorf("Payload bytes changed")
	}
}

func TestParseDataURI_BareBase64(t *testing.T) {
	parsed, err := ParseDataURI("/9j/")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if parsed.MIME != "image/jpeg" {
		t.Errorf("Expected image/jpeg default, got %s", parsed.MIME)
	}
}

func TestParseDataURI_Invalid(t *testing.T) {
	for _, input := range []string{"", "data:image/png,abc", "data:image/png;base64", "!!!"} {
		if _, err := ParseDataURI(input); !errors.Is(err, ErrInvalidDataURI) {
			t.Errorf("Expected ErrInvalidDataURI for %q, got %v", input, err)
		}
	}
}

func TestClassificationLabel(t *testing.T) {
	if got := (Classification{IsOrganic: true}).Label(); got != "ORGANIC" {
		t.Errorf("Expected ORGANIC, got %s", got)
	}
	if got := (Classification{}).Label(); got != "INORGANIC" {
		t.Errorf("Expected INORGANIC, got %s", got)
	}
}

// pngHeader returns a PNG signature and IHDR chunk declaring the given
// dimensions, enough for DecodeConfig but not for Decode.
func pngHeader(width, height uint32) []byte {
	chunk := make([]byte, 17)
	copy(chunk, "IHDR")
	binary.BigEndian.PutUint32(chunk[4:], width)
	binary.BigEndian.PutUint32(chunk[8:], height)
	chunk[12] = 8
	chunk[13] = 2

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(13))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecodeImageConfig(t *testing.T) {
	var small bytes.Buffer
	if err := png.Encode(&small, image.NewRGBA(image.Rect(0, 0, 16, 9))); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tests := []struct {
		name    string
		data    []byte
		tooBig  bool
		wantErr bool
	}{
		{name: "small image", data: small.Bytes()},
		{name: "at the pixel cap", data: pngHeader(8000, 5000)},
		{name: "oversize dimensions", data: pngHeader(30000, 30000), tooBig: true, wantErr: true},
		{name: "one very wide row", data: pngHeader(MaxImagePixels+1, 1), tooBig: true, wantErr: true},
		{name: "not an image", data: []byte("hello"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, format, err := DecodeImageConfig(tt.data)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				if format != "png" || cfg.Width == 0 {
					t.Errorf("Expected png config, got %s %dx%d", format, cfg.Width, cfg.Height)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error")
			}
			if got := errors.Is(err, ErrImageTooLarge); got != tt.tooBig {
				t.Errorf("Expected ErrImageTooLarge=%v, got %v", tt.tooBig, err)
			}
		})
	}
}
