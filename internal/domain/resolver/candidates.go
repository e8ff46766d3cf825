package resolver

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const minCandidateLength = 3

var (
	trademarkGlyphs = strings.NewReplacer("™", "", "®", "", "©", "")
	parenSegment    = regexp.MustCompile(`\s*\([^)]*\)`)
	bracketSegment  = regexp.MustCompile(`\s*\[[^\]]*\]`)
	digitRun        = regexp.MustCompile(`[0-9]+`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	trailingRoman   = regexp.MustCompile(`\s(II|III|IV|V|VI|VII|VIII|IX|X)$`)
)

var romanDigits = map[string]string{
	"II": "2", "III": "3", "IV": "4", "V": "5",
	"VI": "6", "VII": "7", "VIII": "8", "IX": "9", "X": "10",
}

// Candidates returns the search names for a display name, most specific
// first: the cleaned name, the name without subtitle, without parenthesized
// or bracketed segments, without digits, squashed lowercase, and with a
// trailing roman numeral as a digit. Names shorter than three characters and
// repeats are dropped.
func Candidates(displayName string) []string {
	base := collapse(norm.NFC.String(trademarkGlyphs.Replace(displayName)))

	variants := []string{base}
	if idx := strings.Index(base, ":"); idx >= 0 {
		variants = append(variants, collapse(base[:idx]))
	}
	variants = append(variants,
		collapse(bracketSegment.ReplaceAllString(parenSegment.ReplaceAllString(base, ""), "")),
		collapse(digitRun.ReplaceAllString(base, "")),
		strings.ToLower(whitespaceRun.ReplaceAllString(base, "")),
	)
	if m := trailingRoman.FindStringSubmatch(base); m != nil {
		variants = append(variants, base[:len(base)-len(m[1])]+romanDigits[m[1]])
	}

	out := make([]string, 0, len(variants))
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if utf8.RuneCountInString(v) < minCandidateLength {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
