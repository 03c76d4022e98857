package utils

import "testing"

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{name: "short", in: "hello", width: 10, want: "hello"},
		{name: "exact", in: "hello", width: 5, want: "hello"},
		{name: "cut", in: "hello world", width: 8, want: "hello..."},
		{name: "no bound", in: "hello world", width: 0, want: "hello world"},
		{name: "wide runes", in: "安全更新程序", width: 7, want: "安全..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.in, tt.width); got != tt.want {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := NormalizeWhitespace("  a \n\t b  c "); got != "a b c" {
		t.Errorf("NormalizeWhitespace = %q, want %q", got, "a b c")
	}
}

func TestIsValidURL(t *testing.T) {
	valid := []string{"https://api.msrc.microsoft.com", "http://localhost:8080/x"}
	for _, u := range valid {
		if !IsValidURL(u) {
			t.Errorf("IsValidURL(%q) = false, want true", u)
		}
	}

	invalid := []string{"", "api.msrc.microsoft.com", "ftp://host", "https://"}
	for _, u := range invalid {
		if IsValidURL(u) {
			t.Errorf("IsValidURL(%q) = true, want false", u)
		}
	}
}
