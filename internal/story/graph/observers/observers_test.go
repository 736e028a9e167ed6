package observers

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPreviewTruncatesByRunes(t *testing.T) {
	long := strings.Repeat("ध", contentPreview+50)

	got := preview(long)
	if !utf8.ValidString(got) {
		t.Error("preview split a multi-byte rune")
	}
	if want := strings.Repeat("ध", contentPreview) + "…"; got != want {
		t.Errorf("preview truncated to %d runes, want %d", utf8.RuneCountInString(got)-1, contentPreview)
	}
}

func TestPreviewShortInputUnchanged(t *testing.T) {
	if got := preview("  calm mind 💙  "); got != "calm mind 💙" {
		t.Errorf("preview = %q", got)
	}
}
