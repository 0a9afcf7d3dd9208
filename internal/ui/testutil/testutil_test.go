package testutil

import "testing"

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no escapes", "hello world", "hello world"},
		{"color codes", "\x1b[31mred\x1b[0m text", "red text"},
		{"truecolor", "\x1b[38;2;1;2;3m\x1b[48;2;4;5;6m▀\x1b[0m", "▀"},
		{"kitty graphics", "\x1b_Ga=p,i=1,q=2\x1b\\card", "card"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripANSI(tt.input); got != tt.want {
				t.Errorf("StripANSI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindLine(t *testing.T) {
	output := "first\n\x1b[1mLISTENING NOW\x1b[0m · alice\nlast"

	if got := FindLine(output, "LISTENING"); got != "LISTENING NOW · alice" {
		t.Errorf("FindLine() = %q", got)
	}
	if got := FindLine(output, "missing"); got != "" {
		t.Errorf("FindLine(missing) = %q, want empty", got)
	}
}

func TestMaxWidth(t *testing.T) {
	output := "ab\n\x1b[31mabcd\x1b[0m\n日本"
	if got := MaxWidth(output); got != 4 {
		t.Errorf("MaxWidth() = %d, want 4", got)
	}
}
