package api

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/david/funding-advisor/internal/advisor"
	"github.com/david/funding-advisor/internal/models"
)

// ProgramCard is one rendered shortlist entry. Every field is display-ready:
// absent values are already replaced by "Not specified" so clients never see
// sentinel garbage from the dataset.
type ProgramCard struct {
	Rank        int      `json:"rank"`
	ID          int      `json:"id"` // shortlist id, what follow-ups resolve against
	Name        string   `json:"name"`
	Why         string   `json:"why,omitempty"`
	Brief       string   `json:"brief"`
	Domain      string   `json:"domain"`
	Eligibility string   `json:"eligibility"`
	Amount      string   `json:"amount"`
	Deadline    string   `json:"deadline"`
	Location    string   `json:"location"`
	Contact     string   `json:"contact"`
	Source      string   `json:"source"`
	URL         string   `json:"url,omitempty"`
	NextSteps   []string `json:"next_steps"`
}

const notSpecified = "Not specified"

func fmtField(val string) string {
	if p := models.Present(val); p != "" {
		return p
	}
	return notSpecified
}

var sentenceSplitRe = regexp.MustCompile(`(?:[.!?])\s+`)

// twoSentences trims a long description down to its first two sentences.
func twoSentences(text string) string {
	s := models.Present(text)
	if s == "" {
		return notSpecified
	}
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(s, ".… ")

	parts := sentenceSplitRe.Split(s, -1)
	var kept []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasSuffix(p, ".") && !strings.HasSuffix(p, "!") && !strings.HasSuffix(p, "?") {
			p += "."
		}
		kept = append(kept, p)
		if len(kept) == 2 {
			break
		}
	}
	if len(kept) == 0 {
		return notSpecified
	}
	return strings.Join(kept, " ")
}

// deadlineWithBadge appends the day count to a present deadline.
func deadlineWithBadge(p models.Program) string {
	dl := models.Present(p.Deadline)
	if dl == "" {
		return notSpecified
	}
	if p.DaysLeft != nil {
		return fmt.Sprintf("%s (%d days left)", dl, *p.DaysLeft)
	}
	return dl
}

// renderCard assembles one display card for a selected id.
func renderCard(rank, id int, shortlist models.Shortlist, selection models.SelectionResult, enrichment map[int]models.Enrichment) ProgramCard {
	p := shortlist[id-1]

	brief := ""
	var steps []string
	if e, ok := enrichment[id]; ok {
		brief = strings.TrimSpace(e.Brief)
		steps = e.NextSteps
	}
	if brief == "" {
		brief = twoSentences(p.Description)
	}
	if len(steps) == 0 {
		steps = advisor.StepsFromProgram(p)
	}
	// The official page link is always the first step when there is one.
	if models.Present(p.URL) != "" && !hasOfficialPageStep(steps) {
		steps = append([]string{"Visit the official program page"}, steps...)
	}
	if len(steps) > 3 {
		steps = steps[:3]
	}

	return ProgramCard{
		Rank:        rank,
		ID:          id,
		Name:        p.ProgramName(),
		Why:         selection.Reasons[id],
		Brief:       brief,
		Domain:      fmtField(p.Domain),
		Eligibility: twoSentences(p.Eligibility),
		Amount:      fmtField(p.Amount),
		Deadline:    deadlineWithBadge(p),
		Location:    fmtField(p.Location),
		Contact:     fmtField(p.Contact),
		Source:      fmtField(p.Source),
		URL:         models.Present(p.URL),
		NextSteps:   steps,
	}
}

func hasOfficialPageStep(steps []string) bool {
	for _, s := range steps {
		if strings.Contains(strings.ToLower(s), "official") {
			return true
		}
	}
	return false
}

// renderCards turns a pipeline result into display cards. Follow-up turns
// render only the target program; new-query turns render every pick.
func renderCards(result advisor.Result) []ProgramCard {
	var cards []ProgramCard
	if result.IsFollowUp {
		if result.TargetID >= 1 && result.TargetID <= len(result.Shortlist) {
			cards = append(cards, renderCard(1, result.TargetID, result.Shortlist, result.Selection, result.Enrichment))
		}
		return cards
	}

	rank := 0
	for _, id := range result.Selection.IDs {
		if id < 1 || id > len(result.Shortlist) {
			continue
		}
		rank++
		cards = append(cards, renderCard(rank, id, result.Shortlist, result.Selection, result.Enrichment))
	}
	return cards
}
