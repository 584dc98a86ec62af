package http

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// StatusSet is the set of status codes a probe accepts as evidence that
// an endpoint exists and is reachable.
type StatusSet map[int]struct{}

// Accept builds a StatusSet from the given codes.
func Accept(codes ...int) StatusSet {
	s := make(StatusSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Contains reports whether code is accepted.
func (s StatusSet) Contains(code int) bool {
	_, ok := s[code]
	return ok
}

// String lists the accepted codes in ascending order, e.g. "[200 401]".
func (s StatusSet) String() string {
	codes := make([]int, 0, len(s))
	for c := range s {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return FormatCodes(codes)
}

// FormatCodes renders codes in order as "[200, 200, 429]".
func FormatCodes(codes []int) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Notes maps status codes to the remark appended after "Status: <code>".
type Notes map[int]string

// AuthNotes are the remarks every function probe shares.
var AuthNotes = Notes{
	401: "Authentication required - expected",
	403: "Forbidden - expected without proper auth",
	429: "Rate limited - expected",
}

// With returns a copy of n with extra remarks added or replaced.
func (n Notes) With(extra Notes) Notes {
	out := make(Notes, len(n)+len(extra))
	for code, note := range n {
		out[code] = note
	}
	for code, note := range extra {
		out[code] = note
	}
	return out
}

// Describe renders "Status: 401 (Authentication required - expected)".
// Codes without a remark render as "Status: 418".
func (n Notes) Describe(code int) string {
	if note, ok := n[code]; ok {
		return fmt.Sprintf("Status: %d (%s)", code, note)
	}
	return fmt.Sprintf("Status: %d", code)
}
