package advisor

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/david/funding-advisor/internal/models"
)

// QueryParams carries the user's search intent through scoring and merging.
type QueryParams struct {
	Query         string
	FundingNeed   int    // requested amount; 0 means no amount requirement
	Domain        string // preferred domain, e.g. "AI"
	Location      string // user location substring, e.g. "NRW"
	Comprehensive bool   // also fan out to live portal sources
}

// Additive weights. Each factor contributes its full weight only when its
// condition holds; there is no partial credit. The five-factor
// 0.4/0.3/0.2/0.1/0.1 scheme is kept verbatim from the dataset tooling that
// produced the index, so scores stay comparable across reruns.
const (
	weightDomain      = 40
	weightAmount      = 30
	weightDeadline    = 20
	weightDescription = 10
	weightLocation    = 10
)

var (
	wordRe     = regexp.MustCompile(`\w+`)
	digitRunRe = regexp.MustCompile(`\d+`)
)

// ComputeRelevanceScore produces the 0-100 heuristic relevance of one record.
// The result is monotone non-decreasing in the number of matched factors.
func ComputeRelevanceScore(p models.Program, params QueryParams, now time.Time) int {
	score := 0

	if params.Domain != "" && strings.Contains(strings.ToLower(p.Domain), strings.ToLower(params.Domain)) {
		score += weightDomain
	}

	if params.FundingNeed > 0 {
		if amount, ok := amountValue(p.Amount); ok && amount >= params.FundingNeed {
			score += weightAmount
		}
	}

	if p.DeadlineAt != nil && !p.DeadlineAt.Before(now) {
		score += weightDeadline
	}

	desc := strings.ToLower(p.Description)
	for _, tok := range wordRe.FindAllString(strings.ToLower(params.Query), -1) {
		if strings.Contains(desc, tok) {
			score += weightDescription
			break
		}
	}

	if params.Location != "" && strings.Contains(strings.ToLower(p.Location), strings.ToLower(params.Location)) {
		score += weightLocation
	}

	if score > 100 {
		score = 100
	}
	return score
}

// amountValue extracts the numeric amount from free text like
// "Grant up to €120,000" by fusing digit groups separated by thousands
// separators and taking the last run. A failed parse simply means the
// amount factor does not trigger.
func amountValue(text string) (int, bool) {
	runs := digitRunRe.FindAllString(strings.NewReplacer(",", "", ".", "").Replace(text), -1)
	if len(runs) == 0 {
		return 0, false
	}
	val, err := strconv.Atoi(runs[len(runs)-1])
	if err != nil {
		return 0, false
	}
	return val, true
}
