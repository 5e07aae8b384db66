package legal

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

var months = []string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var (
	longDatePattern    = regexp.MustCompile(`(?i)\b(\d{1,2})\s+de\s+(\p{L}+)\s+de\s+(\d{4})\b`)
	numericDatePattern = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)
	isoDatePattern     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
)

// DateMatch is a date found in text.
type DateMatch struct {
	// Date is the normalised YYYY-MM-DD form.
	Date string

	// Original is the matched text.
	Original string

	// Position is the byte offset of the match.
	Position int
}

// ExtractDates finds Portuguese long dates ("15 de maio de 2023"), numeric
// dd/mm/yyyy dates and ISO dates. Invalid calendar dates are skipped.
// Results are in order of appearance with repeated dates removed.
func ExtractDates(text string) []DateMatch {
	var found []DateMatch

	for _, m := range longDatePattern.FindAllStringSubmatchIndex(text, -1) {
		month := monthNumber(text[m[4]:m[5]])
		if month == 0 {
			continue
		}
		if d, ok := makeDate(text[m[6]:m[7]], strconv.Itoa(month), text[m[2]:m[3]]); ok {
			found = append(found, DateMatch{Date: d, Original: text[m[0]:m[1]], Position: m[0]})
		}
	}
	for _, m := range numericDatePattern.FindAllStringSubmatchIndex(text, -1) {
		if d, ok := makeDate(text[m[6]:m[7]], text[m[4]:m[5]], text[m[2]:m[3]]); ok {
			found = append(found, DateMatch{Date: d, Original: text[m[0]:m[1]], Position: m[0]})
		}
	}
	for _, m := range isoDatePattern.FindAllStringSubmatchIndex(text, -1) {
		if d, ok := makeDate(text[m[2]:m[3]], text[m[4]:m[5]], text[m[6]:m[7]]); ok {
			found = append(found, DateMatch{Date: d, Original: text[m[0]:m[1]], Position: m[0]})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].Position < found[j].Position })

	seen := make(map[string]bool, len(found))
	out := found[:0]
	for _, d := range found {
		if seen[d.Date] {
			continue
		}
		seen[d.Date] = true
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FirstDate returns the first date in text, or "" when there is none.
func FirstDate(text string) string {
	dates := ExtractDates(text)
	if len(dates) == 0 {
		return ""
	}
	return dates[0].Date
}

// FormatDatePortuguese renders YYYY-MM-DD as "15 de maio de 2023".
// Unparseable input is returned unchanged.
func FormatDatePortuguese(date string) string {
	t, err := time.Parse(isoDate, date)
	if err != nil {
		return date
	}
	return strconv.Itoa(t.Day()) + " de " + months[t.Month()-1] + " de " + strconv.Itoa(t.Year())
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(isoDate, s)
	return err == nil
}

func monthNumber(name string) int {
	name = strings.ToLower(name)
	for i, m := range months {
		if m == name {
			return i + 1
		}
	}
	if name == "marco" {
		return 3
	}
	return 0
}

func makeDate(year, month, day string) (string, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	if m < 1 || m > 12 || d < 1 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return "", false
	}
	return t.Format(isoDate), true
}
