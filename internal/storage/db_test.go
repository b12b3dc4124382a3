package db

import "testing"

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "ascii", in: "plain text", want: "plain text"},
		{name: "multibyte intact", in: "café ☕", want: "café ☕"},
		{name: "broken rune dropped", in: "caf\xc3", want: "caf"},
		{name: "invalid byte mid string", in: "a\xffb", want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeUTF8(tt.in); got != tt.want {
				t.Errorf("SanitizeUTF8(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
