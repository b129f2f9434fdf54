package download

import (
	"reflect"
	"testing"
)

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Show: The Return?", want: "Show_ The Return_"},
		{in: "Bob's Burgers (2011)", want: "Bob's Burgers (2011)"},
		{in: "a/b\\c*d", want: "a_b_c_d"},
		{in: "Café.Ep-1", want: "Café.Ep-1"},
		{in: "Ep ½ ²", want: "Ep ½ ²"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := SafeFilename(tt.in); got != tt.want {
			t.Fatalf("SafeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEpisodeFilename(t *testing.T) {
	if got := EpisodeFilename("Fake Show", 1, 2, "Pilot: Part 1", ".mp4"); got != "Fake Show - S01E02 - Pilot_ Part 1.mp4" {
		t.Fatalf("unexpected filename %q", got)
	}
	if got := EpisodeFilename("Fake Show", 10, 120, "", "mkv"); got != "Fake Show - S10E120.mkv" {
		t.Fatalf("unexpected filename without title %q", got)
	}
}

func TestParseSeasonRanges(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  []int
	}{
		{name: "mixed", input: "1,2,4-6", max: 10, want: []int{1, 2, 4, 5, 6}},
		{name: "reversed range", input: "5-3", max: 10, want: []int{3, 4, 5}},
		{name: "clamped", input: "0,3-12", max: 4, want: []int{3, 4}},
		{name: "duplicates", input: "2, 2,1-2", max: 4, want: []int{1, 2}},
		{name: "junk", input: "a,1-b,-,3", max: 4, want: []int{3}},
		{name: "empty", input: "", max: 4, want: []int{}},
		{name: "spaced range ignored", input: "4 - 6, 2", max: 10, want: []int{2}},
		{name: "overflow clamped", input: "2-99999999999999999999", max: 4, want: []int{2, 3, 4}},
		{name: "overflow single ignored", input: "99999999999999999999", max: 4, want: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSeasonRanges(tt.input, tt.max)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseSeasonRanges(%q, %d) = %v, want %v", tt.input, tt.max, got, tt.want)
			}
		})
	}
}
