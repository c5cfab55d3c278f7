package utils

import (
	"strings"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "empty string",
			input: "",
		},
		{
			name:  "plain text",
			input: "Hello, World!",
		},
		{
			name:  "lrc lyrics block",
			input: "[ti:Shape of You]\n[ar:Ed Sheeran]\n\n[00:08.58]The club isn't the best place to find a lover",
		},
		{
			name:  "unicode",
			input: "歌詞 テスト — Ⅲ ñ é",
		},
		{
			name:  "large repeated content",
			input: strings.Repeat("la la la la la\n", 5000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := CompressString(tt.input)
			if err != nil {
				t.Fatalf("CompressString failed: %v", err)
			}

			decompressed, err := DecompressString(compressed)
			if err != nil {
				t.Fatalf("DecompressString failed: %v", err)
			}

			if decompressed != tt.input {
				t.Errorf("round trip mismatch: got %d bytes, want %d bytes", len(decompressed), len(tt.input))
			}
		})
	}
}

func TestCompressionShrinksRepetitiveInput(t *testing.T) {
	input := strings.Repeat("[00:08.58]The club isn't the best place to find a lover\n", 200)

	compressed, err := CompressString(input)
	if err != nil {
		t.Fatalf("CompressString failed: %v", err)
	}

	if len(compressed) >= len(input) {
		t.Errorf("expected compressed size < %d, got %d", len(input), len(compressed))
	}
}

func TestDecompressInvalidInput(t *testing.T) {
	if _, err := DecompressString("not base64 at all!!!"); err == nil {
		t.Error("expected error for invalid base64 input")
	}

	// Valid base64 but not gzip data
	if _, err := DecompressString("aGVsbG8gd29ybGQ="); err == nil {
		t.Error("expected error for non-gzip input")
	}
}
