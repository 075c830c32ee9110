package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/david/funding-advisor/internal/models"
)

// Selector asks the generative model to choose up to N unique, grounded
// programs from a shortlist, with a short justification per pick.
type Selector struct {
	Gen Generator
}

func NewSelector(gen Generator) *Selector {
	return &Selector{Gen: gen}
}

// selectionItem is the truncated grounding payload per shortlist entry. The
// model is only allowed to cite what appears here.
type selectionItem struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Domain      string `json:"domain"`
	Description string `json:"description"`
	Eligibility string `json:"eligibility"`
	Amount      string `json:"amount"`
	Deadline    string `json:"deadline"`
	Location    string `json:"location"`
	Source      string `json:"source"`
	URL         string `json:"url"`
}

type selectionPayload struct {
	Query    string          `json:"query"`
	Programs []selectionItem `json:"programs"`
}

type selectionResponse struct {
	Picks []struct {
		ID  int    `json:"id"`
		Why string `json:"why"`
	} `json:"picks"`
}

const maxReasonLen = 300

// SelectTop returns validated picks. Ids outside [1, len(shortlist)] and
// duplicates are discarded (first occurrence wins); the result is capped to
// `wanted`. Any parse or transport error surfaces so the caller can apply
// its deterministic positional fallback.
func (s *Selector) SelectTop(ctx context.Context, query string, shortlist models.Shortlist, wanted int) (models.SelectionResult, error) {
	payload := selectionPayload{Query: query}
	for i, m := range shortlist {
		payload.Programs = append(payload.Programs, selectionItem{
			ID:          i + 1,
			Name:        m.Name,
			Title:       m.Title,
			Domain:      m.Domain,
			Description: clip(m.Description, 800),
			Eligibility: clip(m.Eligibility, 400),
			Amount:      m.Amount,
			Deadline:    m.Deadline,
			Location:    m.Location,
			Source:      m.Source,
			URL:         m.URL,
		})
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return models.SelectionResult{}, fmt.Errorf("failed to marshal selection payload: %w", err)
	}

	prompt := fmt.Sprintf(`You are a precise funding advisor. Use only the provided programs. Do not invent anything.

%s

Pick up to %d unique programs by id. DO NOT select duplicates (same name/source/url). Prefer programs whose text explicitly mentions the user's domain(s), region, or a funding amount that matches/exceeds the user's need. For each pick, give a 1-2 sentence reason citing exact matches from the supplied text.

Return JSON: {"picks":[{"id":<int>,"why":"..."}]}. Use only provided programs.`, payloadJSON, wanted)

	resp, err := s.Gen.GenerateCompletion(ctx, prompt, true)
	if err != nil {
		return models.SelectionResult{}, err
	}

	var parsed selectionResponse
	if err := json.Unmarshal([]byte(cleanJSONResponse(resp)), &parsed); err != nil {
		return models.SelectionResult{}, fmt.Errorf("selection response was not valid JSON: %w", err)
	}

	result := models.SelectionResult{Reasons: map[int]string{}}
	seen := make(map[int]struct{})
	for _, pick := range parsed.Picks {
		if pick.ID < 1 || pick.ID > len(shortlist) {
			continue
		}
		if _, dup := seen[pick.ID]; dup {
			continue
		}
		seen[pick.ID] = struct{}{}
		result.IDs = append(result.IDs, pick.ID)
		if pick.Why != "" {
			result.Reasons[pick.ID] = clip(pick.Why, maxReasonLen)
		}
		if len(result.IDs) >= wanted {
			break
		}
	}

	return result, nil
}
