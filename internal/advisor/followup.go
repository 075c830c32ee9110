package advisor

import (
	"regexp"
	"strings"

	"github.com/david/funding-advisor/internal/models"
)

// ordinals maps spoken rank words to 1-based positions in the previous
// selection. Only the first five ranks are addressable; a shortlist never
// renders more picks than that.
var ordinals = []struct {
	word string
	rank int
}{
	{"first", 1}, {"1st", 1}, {"one", 1},
	{"second", 2}, {"2nd", 2}, {"two", 2},
	{"third", 3}, {"3rd", 3}, {"three", 3},
	{"fourth", 4}, {"4th", 4}, {"four", 4},
	{"fifth", 5}, {"5th", 5}, {"five", 5},
}

var continuationRe = regexp.MustCompile(`tell me more|details|more info|expand|elaborate`)

// ResolveFollowUp maps an utterance onto an item of the previous selection.
// Three passes run in order, first match wins:
//
//  1. ordinal reference ("the second one") against the selection's rank order,
//  2. fuzzy program-name reference (any name token longer than 3 chars),
//  3. generic continuation ("tell me more"), resolving to the first pick.
//
// A miss returns ok=false: the utterance is a brand-new query and the caller
// must re-run retrieval. Ranks address the previous SelectionResult, never raw
// shortlist positions — selection ids are only meaningful relative to the
// shortlist that produced them.
func ResolveFollowUp(utterance string, session models.SessionContext) (int, bool) {
	if !session.HasShortlist() {
		return 0, false
	}
	chosen := session.LastSelection.IDs
	shortlist := session.LastShortlist
	q := strings.ToLower(utterance)

	// Of all rank words present, the one appearing earliest in the
	// utterance wins: "the second one" reads as rank 2 even though "one"
	// is also a rank word. Ranks beyond the selection are ignored.
	bestPos := -1
	bestRank := 0
	for _, ord := range ordinals {
		pos := wordIndex(q, ord.word)
		if pos < 0 || ord.rank > len(chosen) {
			continue
		}
		if bestPos == -1 || pos < bestPos {
			bestPos = pos
			bestRank = ord.rank
		}
	}
	if bestPos >= 0 {
		if id := chosen[bestRank-1]; validID(id, shortlist) {
			return id, true
		}
	}

	for _, id := range chosen {
		if !validID(id, shortlist) {
			continue
		}
		name := strings.ToLower(shortlist[id-1].ProgramName())
		for _, tok := range wordRe.FindAllString(name, -1) {
			if len(tok) > 3 && strings.Contains(q, tok) {
				return id, true
			}
		}
	}

	if continuationRe.MatchString(q) {
		if id := chosen[0]; validID(id, shortlist) {
			return id, true
		}
	}

	return 0, false
}

func validID(id int, shortlist models.Shortlist) bool {
	return id >= 1 && id <= len(shortlist)
}

// wordIndex returns the byte offset of the first whole-word occurrence of
// word in haystack, or -1.
func wordIndex(haystack, word string) int {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return -1
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(haystack[start-1])
		afterOK := end == len(haystack) || !isWordChar(haystack[end])
		if beforeOK && afterOK {
			return start
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
