package advisor

import (
	"testing"
	"time"

	"github.com/david/funding-advisor/internal/models"
)

func TestComputeRelevanceScore(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	future := time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC)
	past := time.Date(2026, 1, 1, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name     string
		program  models.Program
		params   QueryParams
		expected int
	}{
		{
			name:     "no factors match",
			program:  models.Program{Domain: "Healthcare", Description: "Hospital equipment"},
			params:   QueryParams{Query: "robotics startup", Domain: "AI", FundingNeed: 100000, Location: "NRW"},
			expected: 0,
		},
		{
			name:     "domain match only",
			program:  models.Program{Domain: "AI and Robotics"},
			params:   QueryParams{Domain: "ai"},
			expected: 40,
		},
		{
			name:     "amount meets need despite separators",
			program:  models.Program{Amount: "Grant up to €120,000"},
			params:   QueryParams{FundingNeed: 100000},
			expected: 30,
		},
		{
			name:     "amount below need scores nothing",
			program:  models.Program{Amount: "up to €50,000"},
			params:   QueryParams{FundingNeed: 100000},
			expected: 0,
		},
		{
			name:     "valid deadline",
			program:  models.Program{DeadlineAt: &future},
			params:   QueryParams{},
			expected: 20,
		},
		{
			name:     "past deadline gives no credit",
			program:  models.Program{DeadlineAt: &past},
			params:   QueryParams{},
			expected: 0,
		},
		{
			name:     "description token matches once regardless of count",
			program:  models.Program{Description: "Funding for startup teams building startup products"},
			params:   QueryParams{Query: "startup funding"},
			expected: 10,
		},
		{
			name:     "location match",
			program:  models.Program{Location: "Nordrhein-Westfalen (NRW)"},
			params:   QueryParams{Location: "nrw"},
			expected: 10,
		},
		{
			name: "all factors cap at 100",
			program: models.Program{
				Domain:      "AI",
				Amount:      "€200,000",
				DeadlineAt:  &future,
				Description: "AI startup support",
				Location:    "NRW",
			},
			params:   QueryParams{Query: "AI startup", Domain: "AI", FundingNeed: 150000, Location: "NRW"},
			expected: 100,
		},
		{
			name:     "zero funding need disables amount factor",
			program:  models.Program{Amount: "€200,000"},
			params:   QueryParams{FundingNeed: 0},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRelevanceScore(tt.program, tt.params, now)
			if got != tt.expected {
				t.Errorf("expected score %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestAmountValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		ok       bool
	}{
		{"comma separators fused", "Grant up to €120,000", 120000, true},
		{"dot separators fused", "bis zu 1.500.000 Euro", 1500000, true},
		{"last run wins", "between 10000 and 250000", 250000, true},
		{"plain number", "50000", 50000, true},
		{"no digits", "varies by project", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := amountValue(tt.input)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("amountValue(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}
