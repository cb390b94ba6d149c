package service

import "testing"

func TestSanitizeOrderBy(t *testing.T) {
	if got := sanitizeOrderBy("title"); got != "title" {
		t.Fatalf("got %q", got)
	}
	if got := sanitizeOrderBy("  Release_Date "); got != "release_date" {
		t.Fatalf("got %q", got)
	}
	if got := sanitizeOrderBy("title; DROP TABLE movie"); got != "" {
		t.Fatalf("injection attempt should map to empty, got %q", got)
	}
	if got := sanitizeOrderBy(""); got != "" {
		t.Fatalf("got %q", got)
	}
}
