package model

import (
	"strings"
	"time"

	"telegram-notify-bot/internal/domain"
	"telegram-notify-bot/internal/domain/dateutil"

	"github.com/oklog/ulid/v2"
)

// Event is a scheduled meeting. Recurring events repeat daily from StartDate
// through EndDate inclusive.
type Event struct {
	ID        string
	Title     string
	Guests    []string
	StartDate string // DD.MM.YYYY
	StartTime string // HH:MM
	Kind      string
	Location  string
	Recurring bool
	EndDate   string // DD.MM.YYYY, set only when Recurring
	CreatedBy ChatID
	CreatedAt time.Time
}

// ParseGuests splits a comma separated list. Segments are trimmed and kept in
// order, including empty ones.
func ParseGuests(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// Validate checks the fields a confirmed event must carry.
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return domain.ErrInvalidArgument
	}
	if !dateutil.IsValidDateString(e.StartDate) {
		return domain.ErrMalformedDate
	}
	if !dateutil.IsValidTimeString(e.StartTime) {
		return domain.ErrMalformedTime
	}
	if e.Recurring {
		in, err := dateutil.InWindow(e.StartDate, e.StartDate, e.EndDate)
		if err != nil {
			return err
		}
		if !in {
			return domain.ErrEndBeforeStart
		}
	}
	return nil
}

// OccursOn reports whether the event is active on a DD.MM.YYYY reference day.
func (e *Event) OccursOn(ref string) (bool, error) {
	if e.StartDate == ref {
		return true, nil
	}
	if !e.Recurring {
		return false, nil
	}
	return dateutil.InWindow(e.StartDate, ref, e.EndDate)
}

// NewEventID returns a sortable unique id for a new event.
func NewEventID() string { return ulid.Make().String() }
