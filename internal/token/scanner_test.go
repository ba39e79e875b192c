package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanner_CollectsGroupsInOrder(t *testing.T) {
	s := MustCompile(`\(\(\(([^|()]+)\|([^|()]+?)(?:\|([^|()]*))?\)\)\)`)
	src := "a (((One|/1))) b (((Two|/2|t))) c"

	got := s.Collect(src)
	require.Len(t, got, 2)

	require.Equal(t, "(((One|/1)))", got[0].Text)
	require.Equal(t, []string{"One", "/1", ""}, got[0].Groups)
	require.Equal(t, src[got[0].Start:got[0].End], got[0].Text)

	require.Equal(t, "(((Two|/2|t)))", got[1].Text)
	require.Equal(t, "t", got[1].Group(3))
	require.Equal(t, "", got[1].Group(4))
	require.Equal(t, "", got[1].Group(0))
}

func TestScanner_ZeroWidthMatchesTerminate(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		src     string
		want    int
	}{
		{"empty pattern on empty input", ``, "", 1},
		{"empty pattern ascii", ``, "abc", 4},
		{"empty pattern multibyte", ``, "héé", 4},
		{"optional group", `x*`, "axxb", 4},
		{"optional single", `a?`, "bab", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := MustCompile(tt.pattern)
			steps := 0
			for range s.All(tt.src) {
				steps++
				require.LessOrEqual(t, steps, len(tt.src)+1, "scan did not make progress")
			}
			require.Equal(t, tt.want, steps)
		})
	}
}

func TestScanner_ZeroWidthOnLongInputIsBounded(t *testing.T) {
	src := strings.Repeat("ab", 5000)
	s := MustCompile(`c*`)
	n := 0
	for range s.All(src) {
		n++
	}
	require.Equal(t, len(src)+1, n)
}

func TestScanner_IsRestartable(t *testing.T) {
	s := MustCompile(`\d+`)
	seq := s.All("1 22 333")

	var first, second []string
	for m := range seq {
		first = append(first, m.Text)
	}
	for m := range seq {
		second = append(second, m.Text)
	}
	require.Equal(t, []string{"1", "22", "333"}, first)
	require.Equal(t, first, second)
}

func TestScanner_EarlyBreak(t *testing.T) {
	s := MustCompile(`\d`)
	n := 0
	for range s.All("123456") {
		n++
		if n == 2 {
			break
		}
	}
	require.Equal(t, 2, n)
	require.True(t, s.Contains("x1"))
	require.False(t, s.Contains("xy"))
}

func TestScanner_Replace(t *testing.T) {
	s := MustCompile(`\[(\w+)\]`)

	out, matches := s.Replace("a [b] c [d]", func(m Match) string {
		return strings.ToUpper(m.Group(1))
	})
	require.Equal(t, "a B c D", out)
	require.Len(t, matches, 2)

	out, matches = s.Replace("nothing here", func(Match) string { return "x" })
	require.Equal(t, "nothing here", out)
	require.Nil(t, matches)
}

func TestScanner_ReplaceZeroWidth(t *testing.T) {
	s := MustCompile(``)
	out, matches := s.Replace("ab", func(Match) string { return "-" })
	require.Equal(t, "-a-b-", out)
	require.Len(t, matches, 3)
}
