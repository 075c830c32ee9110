package advisor

import (
	"strings"

	"github.com/david/funding-advisor/internal/models"
)

// DatasetIndex is a lookup over the canonical dataset used to repair sparse
// retriever metadata: first by normalized URL, then by normalized fused name.
type DatasetIndex struct {
	byURL  map[string]models.Program
	byName map[string]models.Program
}

// BuildDatasetIndex indexes canonical rows for backfill lookups. Earlier rows
// win on key collisions.
func BuildDatasetIndex(rows []models.Program) *DatasetIndex {
	idx := &DatasetIndex{
		byURL:  make(map[string]models.Program, len(rows)),
		byName: make(map[string]models.Program, len(rows)),
	}
	for _, row := range rows {
		if u := normalizeURLKey(row.URL); u != "" {
			if _, ok := idx.byURL[u]; !ok {
				idx.byURL[u] = row
			}
		}
		if n := normalizeNameKey(row); n != "" {
			if _, ok := idx.byName[n]; !ok {
				idx.byName[n] = row
			}
		}
	}
	return idx
}

func (idx *DatasetIndex) match(p models.Program) (models.Program, bool) {
	if u := normalizeURLKey(p.URL); u != "" {
		if row, ok := idx.byURL[u]; ok {
			return row, true
		}
	}
	if n := normalizeNameKey(p); n != "" {
		if row, ok := idx.byName[n]; ok {
			return row, true
		}
	}
	return models.Program{}, false
}

// Backfill copies canonical values into any attribute of p that is currently
// absent (models.IsMissing). Present values are never overwritten, which also
// makes repeated application a no-op. No canonical match returns p unchanged.
func Backfill(p models.Program, idx *DatasetIndex) models.Program {
	if idx == nil {
		return p
	}
	row, ok := idx.match(p)
	if !ok {
		return p
	}

	fill := func(dst *string, src string) {
		if models.IsMissing(*dst) && !models.IsMissing(src) {
			*dst = src
		}
	}

	fill(&p.Name, row.Name)
	fill(&p.Title, row.Title)
	fill(&p.Program, row.Program)
	fill(&p.Call, row.Call)
	fill(&p.Domain, row.Domain)
	fill(&p.Description, row.Description)
	fill(&p.Eligibility, row.Eligibility)
	fill(&p.Procedure, row.Procedure)
	fill(&p.Contact, row.Contact)
	fill(&p.Amount, row.Amount)
	fill(&p.Deadline, row.Deadline)
	fill(&p.Location, row.Location)
	fill(&p.Source, row.Source)
	fill(&p.URL, row.URL)
	return p
}

// BackfillAll applies Backfill to every shortlist entry.
func BackfillAll(shortlist models.Shortlist, idx *DatasetIndex) models.Shortlist {
	out := make(models.Shortlist, len(shortlist))
	for i, p := range shortlist {
		out[i] = Backfill(p, idx)
	}
	return out
}

func normalizeURLKey(u string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(u), "/"))
}

func normalizeNameKey(p models.Program) string {
	name := strings.ToLower(strings.TrimSpace(p.ProgramName()))
	if name == "unnamed" {
		return ""
	}
	return name
}
