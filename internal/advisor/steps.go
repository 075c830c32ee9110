package advisor

import (
	"fmt"

	"github.com/david/funding-advisor/internal/models"
)

// StepsFromProgram derives generic next steps from the record itself. This is
// the non-LLM fallback rendered when enrichment comes back empty.
func StepsFromProgram(p models.Program) []string {
	var steps []string
	if models.Present(p.URL) != "" {
		steps = append(steps, "Visit the official program page")
	}
	if models.Present(p.Eligibility) != "" {
		steps = append(steps, "Confirm you meet eligibility requirements")
	}
	if models.Present(p.Procedure) != "" {
		steps = append(steps, "Follow the described application procedure")
	}
	if dl := models.Present(p.Deadline); dl != "" && len(steps) < 3 {
		steps = append(steps, fmt.Sprintf("Note the deadline: %s", dl))
	}
	if len(steps) == 0 {
		return []string{
			"Visit the official page",
			"Prepare a 1-2 page project summary and budget",
			"Contact the program office for clarifications",
		}
	}
	if len(steps) > 3 {
		steps = steps[:3]
	}
	return steps
}
