package htmlsanitize_test

import (
	"testing"

	"github.com/melodykit/melodyshare/internal/app/system/htmlsanitize"
)

func TestPlainText_Empty(t *testing.T) {
	result := htmlsanitize.PlainText("")
	if result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}

func TestPlainText_PlainUnchanged(t *testing.T) {
	result := htmlsanitize.PlainText("Jazz Fans")
	if result != "Jazz Fans" {
		t.Errorf("expected plain text unchanged, got %q", result)
	}
}

func TestPlainText_RemovesTags(t *testing.T) {
	result := htmlsanitize.PlainText("<b>Jazz</b> Fans")
	if result != "Jazz Fans" {
		t.Errorf("expected tags removed, got %q", result)
	}
}

func TestPlainText_RemovesScript(t *testing.T) {
	result := htmlsanitize.PlainText("Fans<script>alert('xss')</script>")
	if result != "Fans" {
		t.Errorf("expected script removed, got %q", result)
	}
}

func TestPlainText_KeepsAmpersand(t *testing.T) {
	// Track metadata is stored and displayed as plain text; entity escaping
	// would corrupt the snapshot and every link derived from it.
	result := htmlsanitize.PlainText("Rock & Roll All Nite")
	if result != "Rock & Roll All Nite" {
		t.Errorf("expected ampersand preserved, got %q", result)
	}
}

func TestPlainText_KeepsQuotesAndAngles(t *testing.T) {
	cases := []string{
		`"Heroes" (David Bowie)`,
		"Simon & Garfunkel",
		"1 < 2",
	}
	for _, in := range cases {
		if got := htmlsanitize.PlainText(in); got != in {
			t.Errorf("PlainText(%q) = %q, want input unchanged", in, got)
		}
	}
}

func TestPlainText_Trims(t *testing.T) {
	result := htmlsanitize.PlainText("  <p>Indie</p>  ")
	if result != "Indie" {
		t.Errorf("expected trimmed text, got %q", result)
	}
}
