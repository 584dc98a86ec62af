package http

import "testing"

func TestStatusSet(t *testing.T) {
	s := Accept(429, 200, 401)
	if !s.Contains(401) || s.Contains(500) {
		t.Errorf("unexpected membership in %v", s)
	}
	if got := s.String(); got != "[200, 401, 429]" {
		t.Errorf("expected sorted codes, got %s", got)
	}
}

func TestFormatCodes_KeepsOrder(t *testing.T) {
	if got := FormatCodes([]int{200, 200, 429, 429, 429}); got != "[200, 200, 429, 429, 429]" {
		t.Errorf("unexpected %s", got)
	}
	if got := FormatCodes(nil); got != "[]" {
		t.Errorf("unexpected %s", got)
	}
}

func TestNotes_Describe(t *testing.T) {
	notes := AuthNotes.With(Notes{200: "Success - API proxy working"})

	tests := map[int]string{
		200: "Status: 200 (Success - API proxy working)",
		401: "Status: 401 (Authentication required - expected)",
		403: "Status: 403 (Forbidden - expected without proper auth)",
		429: "Status: 429 (Rate limited - expected)",
		418: "Status: 418",
	}
	for code, want := range tests {
		if got := notes.Describe(code); got != want {
			t.Errorf("Describe(%d) = %q, want %q", code, got, want)
		}
	}

	if _, ok := AuthNotes[200]; ok {
		t.Error("With must not modify the receiver")
	}
}
