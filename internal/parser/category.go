package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Delimiters that introduce the category fragment, in priority order.
var categorySeparators = []string{" на ", " для ", " категория "}

var (
	trailingSeparatorRe = regexp.MustCompile(`\s+(на|для|категория).*$`)
	digitsRe            = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)?`)
	thousandWordRe      = regexp.MustCompile(`\s*(тысяч|тысячи|тысяча)\s*`)
	leadingDelimiterRe  = regexp.MustCompile(`^(на|для|категория)\s+`)
	interiorDelimiterRe = regexp.MustCompile(`\s+(на|для|категория)\s+`)
)

// ExtractCategoryText isolates the free-text category fragment from the
// transcript. It first splits on the earliest delimiter ("на"/"для"/
// "категория"); if none is present it falls back to stripping the type
// keywords, the numerals and the "thousand" words and using what remains.
// The result must be at least two characters long, otherwise ok is false
// and the whole parse fails.
func ExtractCategoryText(text string) (string, bool) {
	for _, sep := range categorySeparators {
		if !strings.Contains(text, sep) {
			continue
		}
		parts := strings.SplitN(text, sep, 2)
		fragment := strings.TrimSpace(parts[1])
		// Collapse an accidental repeat of a delimiter word: everything
		// from the repeat onward is noise.
		fragment = trailingSeparatorRe.ReplaceAllString(fragment, "")
		if strings.TrimSpace(fragment) == "" {
			// Nothing after the delimiter; try the residual strategy.
			break
		}
		return validFragment(fragment)
	}
	return residualCategoryText(text)
}

func residualCategoryText(text string) (string, bool) {
	clean := text
	for _, kw := range expenseKeywords {
		clean = removeWord(clean, kw)
	}
	for _, kw := range incomeKeywords {
		clean = removeWord(clean, kw)
	}

	clean = digitsRe.ReplaceAllString(clean, "")
	clean = thousandWordRe.ReplaceAllString(clean, "")
	clean = leadingDelimiterRe.ReplaceAllString(clean, "")
	clean = interiorDelimiterRe.ReplaceAllString(clean, " ")

	return validFragment(strings.TrimSpace(clean))
}

// removeWord drops whole-word occurrences of w. Tokens are compared
// exactly: "расход" does not touch "расходы", which has its own keyword
// entry. regexp's \b is ASCII-only, so Cyrillic boundaries are handled by
// token scanning instead.
func removeWord(text, w string) string {
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, f := range fields {
		if f != w {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

func validFragment(fragment string) (string, bool) {
	fragment = strings.TrimSpace(fragment)
	if utf8.RuneCountInString(fragment) < 2 {
		return "", false
	}
	return fragment, true
}
