package recognition

import "strconv"

// tokenKind classifies a word of free text.
type tokenKind int

const (
	tokenOther tokenKind = iota
	tokenYear
	tokenMonth
	tokenDay
)

type token struct {
	kind  tokenKind
	value int
	text  string
}

// monthNames maps every accepted spelling to its month number.
// Matching is case-sensitive so that words like "may" or "mar" in prose are not read as months.
var monthNames = map[string]int{
	"Jan": 1, "January": 1,
	"Feb": 2, "February": 2,
	"Mar": 3, "March": 3,
	"Apr": 4, "April": 4,
	"May": 5,
	"Jun": 6, "June": 6,
	"Jul": 7, "July": 7,
	"Aug": 8, "August": 8,
	"Sep": 9, "Sept": 9, "September": 9,
	"Oct": 10, "October": 10,
	"Nov": 11, "November": 11,
	"Dec": 12, "December": 12,
}

var ordinalSuffixes = []string{"st", "nd", "rd", "th"}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// tokenize splits text into words and classifies them.
//
// A word is a maximal run of ASCII letters, digits and underscores, so every
// word is bounded on both sides by a non-word byte or the edge of the text.
// Non-ASCII bytes count as separators. A word is:
//   - a year when it is exactly four digits within [minYear, maxYear];
//   - a month when it equals one of monthNames;
//   - a day when it is one or two digits directly followed by st, nd, rd or th.
//
// Words that match none of these are dropped.
func tokenize(text string, minYear, maxYear int) []token {
	var tokens []token

	i := 0
	for i < len(text) {
		if !isWordByte(text[i]) {
			i++
			continue
		}

		j := i
		for j < len(text) && isWordByte(text[j]) {
			j++
		}

		if t, ok := classify(text[i:j], minYear, maxYear); ok {
			tokens = append(tokens, t)
		}
		i = j
	}

	return tokens
}

func classify(word string, minYear, maxYear int) (token, bool) {
	if len(word) == 4 && isDigits(word) {
		y, _ := strconv.Atoi(word)
		if y >= minYear && y <= maxYear {
			return token{kind: tokenYear, value: y, text: word}, true
		}
		return token{}, false
	}

	if m, ok := monthNames[word]; ok {
		return token{kind: tokenMonth, value: m, text: word}, true
	}

	if len(word) >= 3 && len(word) <= 4 {
		digits, suffix := word[:len(word)-2], word[len(word)-2:]
		if isDigits(digits) {
			for _, s := range ordinalSuffixes {
				if suffix == s {
					d, _ := strconv.Atoi(digits)
					return token{kind: tokenDay, value: d, text: word}, true
				}
			}
		}
	}

	return token{}, false
}
