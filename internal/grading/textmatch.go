package grading

import (
	"strings"
	"unicode"
)

// normalize lowercases s, drops punctuation and collapses whitespace runs to
// a single space. OCR output is noisy; keyword matching runs on this form.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		if unicode.IsPunct(r) {
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// levenshtein is the rune edit distance between a and b.
func levenshtein(a, b string) int {
	src, dst := []rune(a), []rune(b)
	if len(src) == 0 {
		return len(dst)
	}
	if len(dst) == 0 {
		return len(src)
	}
	row := make([]int, len(dst)+1)
	for j := range row {
		row[j] = j
	}
	for i, sr := range src {
		diag := row[0]
		row[0] = i + 1
		for j, dr := range dst {
			up := row[j+1]
			cost := 1
			if sr == dr {
				cost = 0
			}
			row[j+1] = min(up+1, row[j]+1, diag+cost)
			diag = up
		}
	}
	return row[len(dst)]
}
