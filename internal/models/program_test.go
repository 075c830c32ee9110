package models

import "testing"

func TestIsMissing(t *testing.T) {
	tests := []struct {
		name    string
		val     string
		missing bool
	}{
		{"empty string", "", true},
		{"whitespace only", "   ", true},
		{"n/a sentinel", "N/A", true},
		{"not specified", "Not specified", true},
		{"tbd", "TBD", true},
		{"dash", "-", true},
		{"information not found substring", "Deadline information not found on page", true},
		{"not available substring", "currently not available", true},
		{"real value", "Grant up to €120,000", false},
		{"value containing none as word is kept", "nonequity support", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMissing(tt.val); got != tt.missing {
				t.Errorf("IsMissing(%q) = %v, want %v", tt.val, got, tt.missing)
			}
		})
	}
}

func TestFirstPresent(t *testing.T) {
	got := FirstPresent("n/a", "  ", "Not specified", "  Digital Jetzt  ", "fallback")
	if got != "Digital Jetzt" {
		t.Errorf("expected first present value, got %q", got)
	}
	if FirstPresent("n/a", "") != "" {
		t.Error("expected empty string when all candidates are absent")
	}
}

func TestProgramName(t *testing.T) {
	tests := []struct {
		name     string
		program  Program
		expected string
	}{
		{
			name:     "human readable name passes through",
			program:  Program{Name: "Digital Jetzt"},
			expected: "Digital Jetzt",
		},
		{
			name:     "title used when name missing",
			program:  Program{Name: "n/a", Title: "EXIST Business Start-up Grant"},
			expected: "EXIST Business Start-up Grant",
		},
		{
			name:     "slug name gets normalized",
			program:  Program{Name: "ki-foerderung.html"},
			expected: "KI Foerderung",
		},
		{
			name:     "url slug fallback",
			program:  Program{URL: "https://example.org/programs/mittelstand-digital/"},
			expected: "Mittelstand Digital",
		},
		{
			name:     "acronyms kept upper case",
			program:  Program{Name: "ai-and-sme-support"},
			expected: "AI And SME Support",
		},
		{
			name:     "nothing usable",
			program:  Program{},
			expected: "Unnamed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.program.ProgramName(); got != tt.expected {
				t.Errorf("ProgramName() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDedupeKey(t *testing.T) {
	a := Program{URL: "https://Example.org/programs/digital-jetzt/"}
	b := Program{URL: "https://example.org/programs/digital-jetzt"}
	if a.DedupeKey() != b.DedupeKey() {
		t.Errorf("URL keys should collide: %q vs %q", a.DedupeKey(), b.DedupeKey())
	}

	c := Program{Name: "  Digital   Jetzt "}
	d := Program{Title: "digital jetzt"}
	if c.DedupeKey() != d.DedupeKey() {
		t.Errorf("name keys should collide: %q vs %q", c.DedupeKey(), d.DedupeKey())
	}

	if a.DedupeKey() == c.DedupeKey() {
		t.Error("URL key must not equal a name key")
	}
}

func TestHasShortlist(t *testing.T) {
	empty := SessionContext{}
	if empty.HasShortlist() {
		t.Error("empty session should have no shortlist")
	}

	noSelection := SessionContext{LastShortlist: Shortlist{{ID: 1, Name: "A"}}}
	if noSelection.HasShortlist() {
		t.Error("shortlist without selection is not addressable")
	}

	full := SessionContext{
		LastShortlist: Shortlist{{ID: 1, Name: "A"}},
		LastSelection: SelectionResult{IDs: []int{1}},
	}
	if !full.HasShortlist() {
		t.Error("expected addressable shortlist")
	}
}
