package metadata

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var generatedAt = time.Date(2023, time.October, 11, 8, 30, 0, 0, time.UTC)

func TestSignAndVerify(t *testing.T) {
	content := "# Updates\n\n| date | kb |\n| ---- | -- |\n"

	signed := Sign(content, 1, generatedAt)
	if !strings.Contains(signed, TagStart) || !strings.HasSuffix(signed, TagEnd) {
		t.Fatalf("Signed content is missing the metadata block:\n%s", signed)
	}

	meta, err := Verify(signed)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if meta.Records != 1 {
		t.Errorf("Expected 1 record, got %d", meta.Records)
	}

	if !meta.GeneratedAt.Equal(generatedAt) {
		t.Errorf("Expected generated at %v, got %v", generatedAt, meta.GeneratedAt)
	}

	if meta.Hash != CalculateHash(content) {
		t.Errorf("Hash %s does not match content hash", meta.Hash)
	}
}

func TestSign_ReplacesExistingBlock(t *testing.T) {
	first := Sign("body", 1, generatedAt)
	second := Sign(first, 2, generatedAt.Add(time.Hour))

	if n := strings.Count(second, TagStart); n != 1 {
		t.Fatalf("Expected one metadata block, got %d", n)
	}

	meta, err := Verify(second)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if meta.Records != 2 {
		t.Errorf("Expected 2 records, got %d", meta.Records)
	}
}

func TestVerify_Errors(t *testing.T) {
	signed := Sign("| KB5031354 |", 1, generatedAt)

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"no block", "plain report", ErrNoMetadataBlock},
		{"no hash", "report\n\n" + TagStart + "\nRECORDS: 1\n" + TagEnd, ErrNoHashFound},
		{"edited", strings.Replace(signed, "KB5031354", "KB5031355", 1), ErrHashMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Verify(tt.content); !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtract_TrailingNewlines(t *testing.T) {
	meta, clean := Extract("body\n\n\n")
	if meta != nil {
		t.Errorf("Expected no metadata, got %+v", meta)
	}

	if clean != "body" {
		t.Errorf("Expected trailing newlines trimmed, got %q", clean)
	}
}
