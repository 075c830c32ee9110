package models

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Program represents a single public funding program candidate. Records are
// ephemeral: they are rebuilt on every non-follow-up query from the vector
// retriever and keyword backfill, and only live inside one Shortlist.
type Program struct {
	ID             int        `json:"id"` // 1-based ordinal within the current shortlist
	Name           string     `json:"name"`
	Title          string     `json:"title"`
	Program        string     `json:"program"`
	Call           string     `json:"call"`
	Domain         string     `json:"domain"`
	Description    string     `json:"description"`
	Eligibility    string     `json:"eligibility"`
	Amount         string     `json:"amount"` // free text, e.g. "Grant up to €120,000"
	Deadline       string     `json:"deadline"` // raw string, needs parsing
	DeadlineAt     *time.Time `json:"deadline_at"`
	DaysLeft       *int       `json:"days_left"`
	Location       string     `json:"location"`
	Contact        string     `json:"contact"`
	Procedure      string     `json:"procedure"`
	URL            string     `json:"url"`
	Source         string     `json:"source"`
	RelevanceScore int        `json:"relevance_score"` // 0-100
}

// Shortlist is the ranked, size-bounded candidate set produced by one pipeline
// run for one query. Immutable once produced; replaced wholesale on a new query.
type Shortlist []Program

// SelectionResult holds the ids chosen by the selector, in pick order, plus a
// short reason per id. Ids are 1-based positions into the Shortlist that
// produced them and are never valid against any later Shortlist.
type SelectionResult struct {
	IDs     []int          `json:"ids"`
	Reasons map[int]string `json:"reasons"`
}

// Enrichment is the grounded summary produced for one selected program.
type Enrichment struct {
	Brief     string   `json:"brief"`
	NextSteps []string `json:"next_steps"`
}

// SessionContext carries everything a follow-up turn may refer back to.
// Single-writer per conversation: each completed new-query pipeline run
// overwrites it wholesale, and the follow-up resolver only reads it.
type SessionContext struct {
	LastQuery      string
	LastShortlist  Shortlist
	LastSelection  SelectionResult
	LastEnrichment map[int]Enrichment
}

// HasShortlist reports whether a previous run left anything to follow up on.
func (s SessionContext) HasShortlist() bool {
	return len(s.LastShortlist) > 0 && len(s.LastSelection.IDs) > 0
}

// missingSentinels are exact values treated as absent.
var missingSentinels = map[string]struct{}{
	"":     {},
	"n/a":  {},
	"na":   {},
	"none": {},
	"null": {},
	"nan":  {},
	"-":    {},
	"tbd":  {},
	"unknown":          {},
	"not specified":    {},
	"no information":   {},
	"to be determined": {},
}

// missingSubstrings mark a value absent when they appear anywhere in it.
var missingSubstrings = []string{
	"information not found",
	"not available",
}

// IsMissing is the single "is this field considered absent" predicate, applied
// uniformly by field backfill and rendering.
func IsMissing(val string) bool {
	s := strings.ToLower(strings.TrimSpace(val))
	if _, ok := missingSentinels[s]; ok {
		return true
	}
	for _, sub := range missingSubstrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Present returns the cleaned value, or "" when the field is absent.
func Present(val string) string {
	if IsMissing(val) {
		return ""
	}
	return strings.TrimSpace(val)
}

// FirstPresent returns the first non-absent value among candidates.
func FirstPresent(vals ...string) string {
	for _, v := range vals {
		if p := Present(v); p != "" {
			return p
		}
	}
	return ""
}

var acronyms = []string{"AI", "R&D", "EU", "BMBF", "EFRE", "ERDF", "SME", "ML", "KI"}

var (
	slugLikeRe   = regexp.MustCompile(`^[a-z0-9\-\._]+$`)
	fileSuffixRe = regexp.MustCompile(`(?i)\.(html?|php)$`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// normalizeProgramTitle turns filename-like slugs ("ki-foerderung.html") into
// readable titles; anything already human-readable passes through unchanged.
func normalizeProgramTitle(candidate string) string {
	s := strings.TrimSpace(candidate)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if !fileSuffixRe.MatchString(lower) && !slugLikeRe.MatchString(lower) {
		return s
	}

	s = fileSuffixRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	if unescaped, err := url.QueryUnescape(s); err == nil {
		s = unescaped
	}
	s = spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	s = titleCase(s)
	return fixAcronyms(s)
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = strings.ToUpper(f[:1]) + f[1:]
	}
	return strings.Join(fields, " ")
}

func fixAcronyms(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		for _, ac := range acronyms {
			if strings.EqualFold(f, ac) {
				fields[i] = ac
			}
		}
	}
	return strings.Join(fields, " ")
}

// ProgramName derives a display name from the first present of the fused name
// candidates, falling back to the URL slug.
func (p Program) ProgramName() string {
	if c := FirstPresent(p.Name, p.Title, p.Program, p.Call); c != "" {
		return normalizeProgramTitle(c)
	}
	if u := strings.TrimSpace(p.URL); u != "" {
		trimmed := strings.TrimRight(u, "/")
		if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
			if name := normalizeProgramTitle(trimmed[idx+1:]); name != "" {
				return name
			}
		}
	}
	return "Unnamed"
}

// DedupeKey is the canonical identity of a program: normalized URL when
// present, else the normalized fused name. Two records with the same key are
// the same program. URL equality is case-insensitive and ignores a trailing
// slash, so "https://X.com/a/" and "https://x.com/a" collide.
func (p Program) DedupeKey() string {
	if u := strings.TrimSpace(p.URL); u != "" {
		return strings.ToLower(strings.TrimRight(u, "/"))
	}
	name := FirstPresent(p.Name, p.Title, p.Program, p.Call)
	return spaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), " ")
}
