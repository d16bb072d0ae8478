package channel

import "testing"

func TestAssertedDisplayName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"quoted display name", `"Jane Doe" <sip:2003@pbx.example.com>`, "Jane Doe"},
		{"unquoted display name", `Jane Doe <sip:2003@pbx.example.com>`, "Jane Doe"},
		{"bare uri", `<sip:2003@pbx.example.com>`, "2003"},
		{"bare sips uri", `<sips:2003@pbx.example.com>`, "2003"},
		{"no brackets", `Jane Doe`, "Jane Doe"},
		{"quoted without uri", `"Jane Doe"`, "Jane Doe"},
		{"uri without user", `<sip:pbx.example.com>`, "pbx.example.com"},
		{"empty", ``, ""},
		{"whitespace", `   `, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := assertedDisplayName(tt.raw); got != tt.want {
				t.Errorf("assertedDisplayName(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
