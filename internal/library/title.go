package library

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	apostropheRegex   = regexp.MustCompile(`['\x60\x{2018}\x{2019}\x{02BC}]`)
	specialCharsRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	trailingYearRegex = regexp.MustCompile(`\s*\(?((?:19|20)\d{2})\)?$`)
)

// wordAliases rewrites single words before comparison.
var wordAliases = map[string]string{
	"vs":  "versus",
	"pt":  "part",
	"ii":  "2",
	"iii": "3",
	"iv":  "4",
}

// titleAliases maps cleaned scene names to the cleaned canonical title.
var titleAliases = map[string]string{
	"law and order svu":        "law and order special victims unit",
	"csi":                      "csi crime scene investigation",
	"the office us":            "the office",
	"marvels agents of shield": "marvels agents of s h i e l d",
	"shield":                   "marvels agents of s h i e l d",
	"agents of shield":         "marvels agents of s h i e l d",
}

// CleanTitle converts a title to the normalized form used for lookups.
// Case is folded, diacritics and apostrophes are stripped, other punctuation
// becomes whitespace, and the word and scene title alias tables are applied.
func CleanTitle(title string) string {
	folded := stripDiacritics(strings.ToLower(title))
	folded = apostropheRegex.ReplaceAllString(folded, "")
	folded = strings.ReplaceAll(folded, "&", " and ")
	folded = specialCharsRegex.ReplaceAllString(folded, " ")

	words := strings.Fields(folded)
	for i, w := range words {
		if alias, ok := wordAliases[w]; ok {
			words[i] = alias
		}
	}
	cleaned := strings.Join(words, " ")

	if canonical, ok := titleAliases[cleaned]; ok {
		return canonical
	}
	return cleaned
}

// CleanTitleWithoutYear cleans title and drops a trailing year, e.g.
// "Doctor Who (2005)" becomes "doctor who".
func CleanTitleWithoutYear(title string) string {
	cleaned := CleanTitle(title)
	stripped := strings.TrimSpace(trailingYearRegex.ReplaceAllString(cleaned, ""))
	if stripped == "" {
		return cleaned
	}
	return stripped
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// TitleSimilarity calculates the Jaccard similarity between the cleaned
// word sets of two titles. Returns a value between 0.0 and 1.0.
func TitleSimilarity(title1, title2 string) float64 {
	tokens1 := strings.Fields(CleanTitle(title1))
	tokens2 := strings.Fields(CleanTitle(title2))

	if len(tokens1) == 0 && len(tokens2) == 0 {
		return 1.0
	}
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0.0
	}

	set1 := make(map[string]bool, len(tokens1))
	for _, t := range tokens1 {
		set1[t] = true
	}
	set2 := make(map[string]bool, len(tokens2))
	for _, t := range tokens2 {
		set2[t] = true
	}

	intersection := 0
	for t := range set1 {
		if set2[t] {
			intersection++
		}
	}
	union := len(set1)
	for t := range set2 {
		if !set1[t] {
			union++
		}
	}

	return float64(intersection) / float64(union)
}
