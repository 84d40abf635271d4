package engine

import (
	"strings"
	"unicode/utf8"

	"github.com/kassa-bot/kassa/internal/model"
)

// matchPrefixLen is the number of leading characters compared when
// resolving a spoken category against stored ones.
const matchPrefixLen = 3

// MatchCategories resolves a free-text category fragment against the
// user's stored categories. A candidate matches when its kind equals the
// transaction kind and its name shares a case-insensitive prefix of
// min(3, len(categoryText)) characters with the fragment. Candidates are
// returned in their given order; no re-ranking happens. A fragment
// shorter than two characters matches nothing.
func MatchCategories(categoryText string, candidates []model.Category, kind model.Kind) []model.Category {
	if utf8.RuneCountInString(categoryText) < 2 {
		return nil
	}

	needle := []rune(strings.ToLower(categoryText))
	prefixLen := matchPrefixLen
	if len(needle) < prefixLen {
		prefixLen = len(needle)
	}
	prefix := string(needle[:prefixLen])

	var matched []model.Category
	for _, candidate := range candidates {
		if candidate.Kind != kind {
			continue
		}
		name := []rune(strings.ToLower(candidate.Name))
		if len(name) < prefixLen {
			continue
		}
		if string(name[:prefixLen]) == prefix {
			matched = append(matched, candidate)
		}
	}
	return matched
}
