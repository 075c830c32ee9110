package advisor

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

// ParseDeadline parses a free-form, locale-mixed deadline string with a
// day-first bias. It returns nil when nothing parseable is found; a missing
// deadline is never an error.
func ParseDeadline(raw string) *time.Time {
	t, err := parseDateRobust(raw)
	if err != nil {
		return nil
	}
	return &t
}

// DaysLeft returns whole days between now and the deadline, nil when the
// deadline itself is nil. The division floors, so any deadline strictly in
// the past yields a negative count even when less than a day has elapsed.
func DaysLeft(deadline *time.Time, now time.Time) *int {
	if deadline == nil {
		return nil
	}
	days := int(math.Floor(deadline.Sub(now).Hours() / 24))
	return &days
}

// Expired reports whether a record must be dropped by the pipeline filter:
// keep iff days_left is nil or >= 0.
func Expired(deadline *time.Time, now time.Time) bool {
	days := DaysLeft(deadline, now)
	return days != nil && *days < 0
}

// parseDateRobust attempts to parse dates in multiple formats and locales.
func parseDateRobust(text string) (time.Time, error) {
	text = cleanDateString(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	// ISO formats first (most reliable)
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", text); err == nil {
		return toEndOfDay(t), nil
	}

	// Day-first layouts before month-first: the dataset mixes EU-locale dates.
	layouts := []string{
		"2 January 2006",
		"02 January 2006",
		"2 Jan 2006",
		"02 Jan 2006",
		"02.01.2006",
		"2.1.2006",
		"02/01/2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, text); err == nil {
			if strings.Contains(layout, ":") {
				return t, nil
			}
			return toEndOfDay(t), nil
		}
	}

	if t := parseGermanDate(text); !t.IsZero() {
		return toEndOfDay(t), nil
	}
	if t := parseDateWithRegex(text); !t.IsZero() {
		return toEndOfDay(t), nil
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", text)
}

// toEndOfDay sets the time to 23:59:59 UTC so a deadline stays valid for the
// whole of its final day.
func toEndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}

var germanMonths = map[string]string{
	"januar":    "January",
	"februar":   "February",
	"märz":      "March",
	"maerz":     "March",
	"april":     "April",
	"mai":       "May",
	"juni":      "June",
	"juli":      "July",
	"august":    "August",
	"september": "September",
	"oktober":   "October",
	"november":  "November",
	"dezember":  "December",
}

var germanDateRe = regexp.MustCompile(`(?i)\b(\d{1,2})\.?\s+(januar|februar|märz|maerz|april|mai|juni|juli|august|september|oktober|november|dezember)\s+(20\d{2})\b`)

// parseGermanDate handles "15. März 2026" style dates found on German portals.
func parseGermanDate(text string) time.Time {
	matches := germanDateRe.FindStringSubmatch(text)
	if len(matches) != 4 {
		return time.Time{}
	}
	english, ok := germanMonths[strings.ToLower(matches[2])]
	if !ok {
		return time.Time{}
	}
	dateStr := fmt.Sprintf("%s %s %s", matches[1], english, matches[3])
	if t, err := time.Parse("2 January 2006", dateStr); err == nil {
		return t
	}
	return time.Time{}
}

var (
	isoDateRe   = regexp.MustCompile(`\b(20\d{2})-(\d{2})-(\d{2})\b`)
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})[/.](20\d{2})\b`)
	monthNameRe = regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+(\d{1,2}),?\s+(20\d{2})\b`)
	dayFirstRe  = regexp.MustCompile(`\b(\d{1,2})\.?\s+(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+(20\d{2})\b`)
)

// parseDateWithRegex extracts dates embedded in surrounding noise.
func parseDateWithRegex(text string) time.Time {
	if matches := isoDateRe.FindStringSubmatch(text); len(matches) == 4 {
		if t, err := time.Parse("2006-01-02", matches[0]); err == nil {
			return t
		}
	}

	// Numeric day/month/year, day-first. When day-first is impossible
	// (e.g. 03/15/2026) fall back to month-first.
	if matches := slashDateRe.FindStringSubmatch(text); len(matches) == 4 {
		dayFirst := fmt.Sprintf("%s/%s/%s", matches[1], matches[2], matches[3])
		if t, err := time.Parse("2/1/2006", dayFirst); err == nil {
			return t
		}
		if t, err := time.Parse("1/2/2006", dayFirst); err == nil {
			return t
		}
	}

	if matches := dayFirstRe.FindStringSubmatch(text); len(matches) == 4 {
		dateStr := fmt.Sprintf("%s %s %s", matches[1], matches[2], matches[3])
		if t, err := time.Parse("2 January 2006", dateStr); err == nil {
			return t
		}
		if t, err := time.Parse("2 Jan 2006", dateStr); err == nil {
			return t
		}
	}

	if matches := monthNameRe.FindStringSubmatch(text); len(matches) == 4 {
		dateStr := fmt.Sprintf("%s %s, %s", matches[1], matches[2], matches[3])
		if t, err := time.Parse("January 2, 2006", dateStr); err == nil {
			return t
		}
		if t, err := time.Parse("Jan 2, 2006", dateStr); err == nil {
			return t
		}
	}

	return time.Time{}
}

// cleanDateString strips common label prefixes before parsing.
func cleanDateString(s string) string {
	prefixes := []string{
		"Closing date:", "Deadline:", "Due date:", "Expires:", "Ends:",
		"Antragsfrist:", "Einreichungsfrist:", "Bewerbungsschluss:", "Frist:",
	}
	sLower := strings.ToLower(s)
	for _, p := range prefixes {
		if idx := strings.Index(sLower, strings.ToLower(p)); idx != -1 {
			s = s[idx+len(p):]
			sLower = sLower[idx+len(p):]
		}
	}
	return strings.TrimSpace(s)
}
