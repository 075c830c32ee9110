package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/david/funding-advisor/internal/models"
)

// Enricher produces a short grounded brief plus next steps for each selected
// program.
type Enricher struct {
	Gen Generator
}

func NewEnricher(gen Generator) *Enricher {
	return &Enricher{Gen: gen}
}

type enrichItem struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Eligibility string `json:"eligibility"`
	Procedure   string `json:"procedure"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	Location    string `json:"location"`
	Domain      string `json:"domain"`
	Deadline    string `json:"deadline"`
}

type enrichResponse struct {
	Items []struct {
		ID        int      `json:"id"`
		Brief     string   `json:"brief"`
		NextSteps []string `json:"next_steps"`
	} `json:"items"`
}

const (
	maxBriefLen  = 600
	maxNextSteps = 3
)

// EnrichPicks returns one entry per requested id that the model answered for;
// unknown ids in the response are dropped. Brief is capped at 600 chars and
// next steps at 3. Transport or parse errors surface so the caller can fall
// back to empty entries per id.
func (e *Enricher) EnrichPicks(ctx context.Context, ids []int, shortlist models.Shortlist) (map[int]models.Enrichment, error) {
	var items []enrichItem
	requested := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if id < 1 || id > len(shortlist) {
			continue
		}
		requested[id] = struct{}{}
		m := shortlist[id-1]
		items = append(items, enrichItem{
			ID:          id,
			Name:        m.Name,
			Title:       m.Title,
			Description: clip(m.Description, 800),
			Eligibility: clip(m.Eligibility, 500),
			Procedure:   clip(m.Procedure, 500),
			Source:      m.Source,
			URL:         m.URL,
			Location:    m.Location,
			Domain:      m.Domain,
			Deadline:    m.Deadline,
		})
	}

	payloadJSON, err := json.Marshal(map[string]interface{}{"programs": items})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal enrichment payload: %w", err)
	}

	prompt := fmt.Sprintf(`Compress and structure text precisely. Use ONLY provided fields; do not invent facts.

%s

For each program, write a concise 1-2 sentence brief about WHAT it funds and its goal. Do not restate eligibility or domain; those are shown separately. Then propose up to 3 concrete NEXT STEPS anchored in 'procedure' and/or 'eligibility' if present; otherwise generic steps. Each step must be 12 words or fewer. Never invent URLs or contact details.

Return JSON: {"items":[{"id":<int>,"brief":"..","next_steps":["..","..",".."]}]}.`, payloadJSON)

	resp, err := e.Gen.GenerateCompletion(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	var parsed enrichResponse
	if err := json.Unmarshal([]byte(cleanJSONResponse(resp)), &parsed); err != nil {
		return nil, fmt.Errorf("enrichment response was not valid JSON: %w", err)
	}

	out := make(map[int]models.Enrichment, len(ids))
	for _, item := range parsed.Items {
		if _, ok := requested[item.ID]; !ok {
			continue
		}
		var steps []string
		for _, s := range item.NextSteps {
			if s != "" {
				steps = append(steps, s)
			}
			if len(steps) >= maxNextSteps {
				break
			}
		}
		out[item.ID] = models.Enrichment{
			Brief:     clip(item.Brief, maxBriefLen),
			NextSteps: steps,
		}
	}

	// Every requested id gets an entry even when the model skipped it.
	for id := range requested {
		if _, ok := out[id]; !ok {
			out[id] = models.Enrichment{}
		}
	}
	return out, nil
}
