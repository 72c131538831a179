// Package dateutil holds the date and time helpers shared by intake and the
// notification checks. Dates travel as DD.MM.YYYY strings; ordering uses the
// normalized YYYY-MM-DD form.
package dateutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"telegram-notify-bot/internal/domain"
)

var (
	datePattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// HalfDayThreshold is the first hour of the afternoon bucket.
const HalfDayThreshold = 14

type Bucket int

const (
	AM Bucket = iota
	PM
)

func (b Bucket) String() string {
	if b == PM {
		return "PM"
	}
	return "AM"
}

// FormatDayMonth returns t as DD.MM.
func FormatDayMonth(t time.Time) string {
	return fmt.Sprintf("%02d.%02d", t.Day(), int(t.Month()))
}

// FormatDayMonthYear returns t as DD.MM.YYYY.
func FormatDayMonthYear(t time.Time) string {
	return fmt.Sprintf("%02d.%02d.%04d", t.Day(), int(t.Month()), t.Year())
}

// NormalizeForOrdering converts DD.MM.YYYY into YYYY-MM-DD so that plain string
// comparison follows calendar order.
func NormalizeForOrdering(s string) (string, error) {
	if !datePattern.MatchString(s) {
		return "", fmt.Errorf("normalize %q: %w", s, domain.ErrMalformedDate)
	}
	return s[6:10] + "-" + s[3:5] + "-" + s[0:2], nil
}

func IsValidDateString(s string) bool { return datePattern.MatchString(s) }

func IsValidTimeString(s string) bool { return timePattern.MatchString(s) }

// HalfDayBucket classifies an hour; 14:00 and later is PM.
func HalfDayBucket(hour int) Bucket {
	if hour < HalfDayThreshold {
		return AM
	}
	return PM
}

// ParseHour extracts the hour from an HH:MM string.
func ParseHour(s string) (int, bool) {
	if !timePattern.MatchString(s) {
		return 0, false
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, false
	}
	return h, true
}

// InWindow reports whether start <= ref <= end, all given as DD.MM.YYYY.
func InWindow(start, ref, end string) (bool, error) {
	s, err := NormalizeForOrdering(start)
	if err != nil {
		return false, err
	}
	r, err := NormalizeForOrdering(ref)
	if err != nil {
		return false, err
	}
	e, err := NormalizeForOrdering(end)
	if err != nil {
		return false, err
	}
	return s <= r && r <= e, nil
}

// Clock abstracts the wall clock so checks can run against a fixed time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Loc *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Loc == nil {
		return time.Now()
	}
	return time.Now().In(c.Loc)
}

// FixedClock always returns T.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
