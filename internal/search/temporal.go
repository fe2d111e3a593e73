package search

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"notionrag/internal/domain"
)

// Intent is the coarse temporal classification of a query.
type Intent int

const (
	IntentNone Intent = iota
	IntentRecent
	IntentUpcoming
	IntentPast
)

// Score multipliers for date-sensitive queries. Cosine similarity alone
// cannot tell a past project from one happening now; the multiplicative
// scheme is a cheap proxy for temporal relevance.
const (
	dateMatchBoost   = 1.2
	dateBlindPenalty = 0.5
	dateMissPenalty  = 0.3
)

// windowDays is the half-width of the "recent" reference window.
const windowDays = 7

// staleYearCutoff: under a recent-intent query, a chunk whose every
// extracted date predates this year is dropped outright.
const staleYearCutoff = 2024

// Accepted calendar year range for extracted dates. Values outside it are
// treated as noise, not dates.
const (
	minYear = 2020
	maxYear = 2030
)

var (
	recentKeywords   = []string{"최근", "요즘", "현재", "오늘", "recent", "current", "today", "latest"}
	upcomingKeywords = []string{"다가오는", "예정", "앞으로", "곧", "upcoming", "coming", "future", "scheduled", "soon", "next"}
	pastKeywords     = []string{"지난", "과거", "이전", "예전", "past", "before", "previously"}
)

// ClassifyIntent matches the query against the three keyword families,
// case-insensitively; the first matching family wins, checked in the order
// recent, upcoming, past. Best-effort heuristic.
func ClassifyIntent(query string) Intent {
	q := strings.ToLower(query)
	for _, kw := range recentKeywords {
		if strings.Contains(q, kw) {
			return IntentRecent
		}
	}
	for _, kw := range upcomingKeywords {
		if strings.Contains(q, kw) {
			return IntentUpcoming
		}
	}
	for _, kw := range pastKeywords {
		if strings.Contains(q, kw) {
			return IntentPast
		}
	}
	return IntentNone
}

// adjustScore applies the temporal adjustment to a raw similarity. The
// second return value is false when the chunk must be dropped entirely.
func adjustScore(similarity float64, intent Intent, chunk domain.Chunk, now time.Time) (float64, bool) {
	if intent == IntentNone {
		return similarity, true
	}
	dates := ExtractDates(chunk)
	if len(dates) == 0 {
		// Date-blind chunks are deprioritized when the query is date-sensitive.
		return similarity * dateBlindPenalty, true
	}
	for _, d := range dates {
		if inWindow(d, intent, now) {
			return similarity * dateMatchBoost, true
		}
	}
	if intent == IntentRecent && allBeforeYear(dates, staleYearCutoff) {
		return 0, false
	}
	return similarity * dateMissPenalty, true
}

func inWindow(d time.Time, intent Intent, now time.Time) bool {
	switch intent {
	case IntentRecent:
		lo := now.AddDate(0, 0, -windowDays)
		hi := now.AddDate(0, 0, windowDays)
		return !d.Before(lo) && !d.After(hi)
	case IntentUpcoming:
		return d.After(now)
	case IntentPast:
		return d.Before(now)
	default:
		return false
	}
}

func allBeforeYear(dates []time.Time, year int) bool {
	for _, d := range dates {
		if d.Year() >= year {
			return false
		}
	}
	return true
}

var (
	// 2024년 3월 5일 with flexible spacing around the unit markers.
	longFormDateRe = regexp.MustCompile(`(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일`)
	isoDateRe      = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
)

// Layouts accepted for date-bearing metadata property values.
var propertyDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04",
}

// Tokens marking a metadata property key as date-bearing.
var dateKeyTokens = []string{
	"date", "day", "deadline", "due", "schedule", "time",
	"날짜", "일시", "일정", "마감", "기한",
}

// ExtractDates collects every calendar date found in the chunk's text and
// in its date-bearing metadata properties. Matches are structural only:
// year must fall in [2020, 2030], month in [1, 12], day in [1, 31], with no
// calendar-day validation beyond that. The result is a union, not
// deduplicated; callers only test membership in a window.
func ExtractDates(chunk domain.Chunk) []time.Time {
	var dates []time.Time
	for _, re := range []*regexp.Regexp{longFormDateRe, isoDateRe} {
		for _, m := range re.FindAllStringSubmatch(chunk.Content, -1) {
			if d, ok := makeDate(m[1], m[2], m[3]); ok {
				dates = append(dates, d)
			}
		}
	}
	for key, value := range chunk.Metadata.Properties {
		if !isDateKey(key) {
			continue
		}
		if d, ok := parsePropertyDate(value); ok {
			dates = append(dates, d)
		}
	}
	return dates
}

func isDateKey(key string) bool {
	k := strings.ToLower(key)
	for _, tok := range dateKeyTokens {
		if strings.Contains(k, tok) {
			return true
		}
	}
	return false
}

func makeDate(year, month, day string) (time.Time, bool) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if y < minYear || y > maxYear || m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local), true
}

func parsePropertyDate(value string) (time.Time, bool) {
	for _, layout := range propertyDateLayouts {
		d, err := time.ParseInLocation(layout, value, time.Local)
		if err != nil {
			continue
		}
		if d.Year() < minYear || d.Year() > maxYear {
			return time.Time{}, false
		}
		return d, true
	}
	return time.Time{}, false
}
