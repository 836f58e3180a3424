package util

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var tokenizer = regexp.MustCompile(`(\d+|\D+)`)

type naturalToken struct {
	str   string
	num   int
	isNum bool
}

func tokenize(s string) []naturalToken {
	parts := tokenizer.FindAllString(s, -1)
	tokens := make([]naturalToken, len(parts))
	for i, p := range parts {
		if num, err := strconv.Atoi(p); err == nil {
			tokens[i] = naturalToken{num: num, isNum: true}
		} else {
			tokens[i] = naturalToken{str: strings.ToLower(p)}
		}
	}
	return tokens
}

// NaturalSortLess orders "plugin-2" before "plugin-10". Strings that only
// differ in case or leading zeros fall back to byte order, so the ordering
// is total and scans visit directories deterministically.
func NaturalSortLess(s1, s2 string) bool {
	t1 := tokenize(s1)
	t2 := tokenize(s2)

	for i := 0; i < min(len(t1), len(t2)); i++ {
		a, b := t1[i], t2[i]
		switch {
		case a.isNum && !b.isNum:
			return true
		case !a.isNum && b.isNum:
			return false
		case a.isNum && a.num != b.num:
			return a.num < b.num
		case !a.isNum && a.str != b.str:
			return a.str < b.str
		}
	}
	if len(t1) != len(t2) {
		return len(t1) < len(t2)
	}
	return s1 < s2
}

// SortNatural sorts names in place using NaturalSortLess.
func SortNatural(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return NaturalSortLess(names[i], names[j])
	})
}
