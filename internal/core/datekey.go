package core

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// KeyLayout is the canonical YYYY-MM-DD layout used for date keys.
const KeyLayout = "2006-01-02"

var (
	keyPattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	leadingDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
)

// ToKey formats the calendar day of t, read in t's own location, as YYYY-MM-DD.
// The zero time has no calendar day and yields "".
func ToKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	y, m, d := t.Date()
	return fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
}

// FromKey parses a canonical key into the start of that day in loc.
//
// The key must be exactly ten characters of the form YYYY-MM-DD and name a
// real calendar day. The day starts at local midnight, or at the first
// instant after the gap when a DST transition skips midnight.
func FromKey(key string, loc *time.Location) (time.Time, bool) {
	if len(key) != 10 || !keyPattern.MatchString(key) {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	var y, m, d int
	if _, err := fmt.Sscanf(key, "%4d-%2d-%2d", &y, &m, &d); err != nil {
		return time.Time{}, false
	}
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject those.
	civil := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if civil.Year() != y || int(civil.Month()) != m || civil.Day() != d {
		return time.Time{}, false
	}
	return startOfDayIn(y, time.Month(m), d, loc)
}

// startOfDayIn returns the first instant of the day in loc.
func startOfDayIn(y int, m time.Month, d int, loc *time.Location) (time.Time, bool) {
	want := fmt.Sprintf("%04d-%02d-%02d", y, int(m), d)
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if ToKey(t) == want {
		return t, true
	}
	// Midnight fell into a gap and was normalized onto the previous day; the
	// day begins where that zone period ends.
	if _, end := t.ZoneBounds(); !end.IsZero() && ToKey(end) == want {
		return end, true
	}
	for h := 1; h <= 3; h++ {
		if t := time.Date(y, m, d, h, 0, 0, 0, loc); ToKey(t) == want {
			return t, true
		}
	}
	return time.Time{}, false
}
// NormalizeDate trims raw and extracts a leading YYYY-MM-DD, accepting
// values such as "2025-03-01T09:00:00". It fails for anything that does not
// reduce to a real calendar day.
func NormalizeDate(raw string) (string, bool) {
	match := leadingDateRe.FindString(strings.TrimSpace(raw))
	if len(match) != 10 {
		return "", false
	}
	if _, ok := FromKey(match, time.UTC); !ok {
		return "", false
	}
	return match, true
}

// CivilDay returns t's calendar day, read in t's location, as midnight UTC.
// Day arithmetic on the result never crosses a DST transition.
func CivilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days of month (1-12) in year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateField holds the raw nextPaymentDate value of a subscription. Only JSON
// strings are kept; any other JSON type decodes to the empty value, meaning
// no payment is scheduled.
type DateField string

func (d *DateField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*d = ""
		return nil
	}
	*d = DateField(s)
	return nil
}

// Key returns the normalized key of the field, if it has one.
func (d DateField) Key() (string, bool) {
	if d == "" {
		return "", false
	}
	return NormalizeDate(string(d))
}
