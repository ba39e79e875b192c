// Package token scans rendered HTML for bracketed placeholder tokens.
//
// A Scanner wraps a regular expression and yields its non-overlapping matches
// left to right. Unlike a hand-written FindStringSubmatchIndex loop, the
// scanner always makes progress: when a match is empty the cursor advances by
// one rune, so patterns that can match the empty string still terminate after
// at most len(src)+1 steps.
//
// Each search restarts on the unscanned suffix, so anchors such as ^ and \b
// are evaluated relative to the cursor. Token grammars are delimiter based
// and do not use them.
package token

import (
	"iter"
	"regexp"
	"unicode/utf8"
)

// Match is a single token occurrence.
type Match struct {
	// Text is the full matched text.
	Text string
	// Groups holds the capture groups; unmatched optional groups are "".
	Groups []string
	// Start and End are byte offsets into the scanned string.
	Start, End int
}

// Group returns capture group i (1-based, like regexp), or "" when out of range.
func (m Match) Group(i int) string {
	if i < 1 || i > len(m.Groups) {
		return ""
	}
	return m.Groups[i-1]
}

// Scanner finds token matches for one grammar.
type Scanner struct {
	re *regexp.Regexp
}

// NewScanner returns a scanner for re.
func NewScanner(re *regexp.Regexp) *Scanner {
	return &Scanner{re: re}
}

// MustCompile compiles pattern and returns a scanner for it.
func MustCompile(pattern string) *Scanner {
	return NewScanner(regexp.MustCompile(pattern))
}

// All returns a lazy sequence over the matches in src. Ranging over the
// sequence again restarts the scan from the beginning.
func (s *Scanner) All(src string) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		pos := 0
		for pos <= len(src) {
			loc := s.re.FindStringSubmatchIndex(src[pos:])
			if loc == nil {
				return
			}
			m := s.match(src, pos, loc)
			if !yield(m) {
				return
			}
			if m.End > m.Start {
				pos = m.End
				continue
			}
			// Zero-width match: step over one rune.
			if m.End >= len(src) {
				return
			}
			_, size := utf8.DecodeRuneInString(src[m.End:])
			pos = m.End + size
		}
	}
}

// Collect returns all matches in src.
func (s *Scanner) Collect(src string) []Match {
	var out []Match
	for m := range s.All(src) {
		out = append(out, m)
	}
	return out
}

// Contains reports whether src holds at least one match.
func (s *Scanner) Contains(src string) bool {
	for range s.All(src) {
		return true
	}
	return false
}

func (s *Scanner) match(src string, offset int, loc []int) Match {
	m := Match{
		Start: offset + loc[0],
		End:   offset + loc[1],
	}
	m.Text = src[m.Start:m.End]
	if n := len(loc)/2 - 1; n > 0 {
		m.Groups = make([]string, n)
		for i := 0; i < n; i++ {
			a, b := loc[2*(i+1)], loc[2*(i+1)+1]
			if a >= 0 {
				m.Groups[i] = src[offset+a : offset+b]
			}
		}
	}
	return m
}

// Replace rebuilds src, substituting each match with the string returned by fn.
// The matches it replaced are returned in order.
func (s *Scanner) Replace(src string, fn func(Match) string) (string, []Match) {
	var (
		out     []byte
		matches []Match
		last    int
	)
	for m := range s.All(src) {
		if out == nil {
			out = make([]byte, 0, len(src))
		}
		out = append(out, src[last:m.Start]...)
		out = append(out, fn(m)...)
		last = m.End
		matches = append(matches, m)
	}
	if matches == nil {
		return src, nil
	}
	out = append(out, src[last:]...)
	return string(out), matches
}
