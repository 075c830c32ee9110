package ai

import (
	"context"
	"fmt"
	"strings"
)

const maxProfileChars = 6000

// SummarizeProfile condenses an extracted company-profile text into a 2-3
// line query suitable for funding discovery.
func SummarizeProfile(ctx context.Context, gen Generator, rawText string) (string, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return "", fmt.Errorf("profile text is empty")
	}

	prompt := fmt.Sprintf(`Summarize this company profile into 2-3 lines for public funding discovery.
Focus on domain, goals, and funding need.

---
%s
---`, clip(text, maxProfileChars))

	summary, err := gen.GenerateCompletion(ctx, prompt, false)
	if err != nil {
		return "", fmt.Errorf("profile summary failed: %w", err)
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("profile summary was empty")
	}
	return summary, nil
}
