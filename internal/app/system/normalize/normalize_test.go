package normalize

import "testing"

func TestUsername(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"alice", "alice"},
		{"  alice  ", "alice"},
		{"Alice_99", "Alice_99"}, // Username preserves case
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Username(tt.input)
			if got != tt.want {
				t.Errorf("Username(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"JAZZ1234", "JAZZ1234"},
		{"jazz1234", "JAZZ1234"},
		{"  Jazz1234  ", "JAZZ1234"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Code(tt.input)
			if got != tt.want {
				t.Errorf("Code(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMood(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Chill", "Chill"},
		{"  Chill ", "Chill"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Mood(tt.input)
			if got != tt.want {
				t.Errorf("Mood(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
