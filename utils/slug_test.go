package utils

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"The Matrix", "the-matrix"},
		{"  Spider-Man: No Way Home  ", "spider-man-no-way-home"},
		{"Blade Runner 2049", "blade-runner-2049"},
		{"!!!", ""},
		{"a--b", "a-b"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Fatalf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
