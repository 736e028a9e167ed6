package practice

import "testing"

func TestSuggestBaseSet(t *testing.T) {
	items := Suggest([]string{"sadness"})
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2 base practices", len(items))
	}
	for _, it := range items {
		if it.Title == "" || it.Why == "" || len(it.Steps) == 0 {
			t.Errorf("incomplete practice item: %+v", it)
		}
	}
}

func TestSuggestAddsKarmaStepWhenAnxious(t *testing.T) {
	tests := []struct {
		tags []string
		want int
	}{
		{[]string{"anxiety"}, 3},
		{[]string{"Overthinking"}, 3},
		{[]string{" stress "}, 3},
		{[]string{"fear"}, 2},
		{nil, 2},
	}
	for _, tt := range tests {
		if got := Suggest(tt.tags); len(got) != tt.want {
			t.Errorf("Suggest(%v) returned %d items, want %d", tt.tags, len(got), tt.want)
		}
	}
}

func TestSuggestDoesNotAliasBaseSlice(t *testing.T) {
	a := Suggest([]string{"anxiety"})
	a[0].Title = "mutated"
	b := Suggest(nil)
	if b[0].Title == "mutated" {
		t.Error("Suggest must return an independent slice")
	}
}
