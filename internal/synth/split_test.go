package synth_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/insee-t/tt/internal/synth"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{name: "empty", text: "  ", limit: 10, want: nil},
		{name: "fits", text: " สวัสดีครับ ", limit: 100, want: []string{"สวัสดีครับ"}},
		{name: "breaks at space", text: "aaa bbb ccc", limit: 8, want: []string{"aaa bbb", "ccc"}},
		{name: "prefers late sentence end", text: "one two. three four", limit: 12, want: []string{"one two.", "three four"}},
		{name: "early sentence end loses to later space", text: "a. bbb ccc ddd", limit: 12, want: []string{"a. bbb ccc", "ddd"}},
		{name: "hard cut without breaks", text: "abcdefghij", limit: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "counts runes not bytes", text: "กขคงจฉ", limit: 3, want: []string{"กขค", "งจฉ"}},
		{name: "non-positive limit", text: "abc", limit: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := synth.Split(tt.text, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("Split() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Split()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplit_PiecesWithinLimit(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("วันนี้อากาศดีมาก เราไปเที่ยวทะเลกัน ", 40)
	pieces := synth.Split(text, synth.GooglePieceLimit)
	if len(pieces) < 2 {
		t.Fatalf("Split() returned %d pieces, want several", len(pieces))
	}

	var total int
	for i, p := range pieces {
		if n := utf8.RuneCountInString(p); n > synth.GooglePieceLimit {
			t.Errorf("piece %d has %d runes, limit %d", i, n, synth.GooglePieceLimit)
		}
		total += utf8.RuneCountInString(strings.ReplaceAll(p, " ", ""))
	}
	if want := utf8.RuneCountInString(strings.ReplaceAll(text, " ", "")); total != want {
		t.Errorf("pieces hold %d non-space runes, want %d", total, want)
	}
}
