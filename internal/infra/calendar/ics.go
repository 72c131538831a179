// Package calendar exports events and birthdays as an iCalendar feed.
package calendar

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/rs/zerolog"
	"github.com/teambition/rrule-go"

	"telegram-notify-bot/internal/domain/dateutil"
	"telegram-notify-bot/internal/domain/model"
	"telegram-notify-bot/internal/domain/ports/repository"
	"telegram-notify-bot/internal/infra/logging"
)

const (
	prodID    = "-//telegram-notify-bot//calendar//EN"
	uidDomain = "telegram-notify-bot"

	// birthdays have no year; anchor them on a leap year so 29.02 exists
	birthdayAnchorYear = 2000
)

// stubCalendar is served when there is nothing to export.
const stubCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + prodID + "\r\nEND:VCALENDAR\r\n"

type Feed struct {
	events  repository.EventRepository
	persons repository.PersonRepository
	loc     *time.Location
	clock   dateutil.Clock
	log     *zerolog.Logger
}

func NewFeed(events repository.EventRepository, persons repository.PersonRepository, loc *time.Location, clock dateutil.Clock, logger *zerolog.Logger) *Feed {
	if loc == nil {
		loc = time.UTC
	}
	l := logger.With().Str("component", "calendar").Logger()
	return &Feed{events: events, persons: persons, loc: loc, clock: clock, log: &l}
}

// WriteFeed loads every event and birthday and writes one VCALENDAR.
func (f *Feed) WriteFeed(ctx context.Context, w io.Writer) error {
	defer logging.TraceDuration(f.log, "Feed.WriteFeed")()

	events, err := f.events.List(ctx, repository.NoTX)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	persons, err := f.persons.FindWithBirthdaySet(ctx, repository.NoTX)
	if err != nil {
		return fmt.Errorf("list birthdays: %w", err)
	}

	cal, skipped := Build(events, persons, f.loc, f.clock.Now())
	if skipped > 0 {
		f.log.Warn().Int("skipped", skipped).Msg("events with malformed dates left out of the feed")
	}
	if len(cal.Children) == 0 {
		_, err := io.WriteString(w, stubCalendar)
		return err
	}
	return ical.NewEncoder(w).Encode(cal)
}

// Build converts events and birthdays into a calendar. Event times are read
// in loc and written in UTC. It returns how many events were skipped.
func Build(events []*model.Event, persons []*model.Person, loc *time.Location, stamp time.Time) (*ical.Calendar, int) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)

	dtStamp := ical.NewProp(ical.PropDateTimeStamp)
	dtStamp.SetDateTime(stamp.UTC())

	skipped := 0
	for _, e := range events {
		ev, err := eventComponent(e, loc)
		if err != nil {
			skipped++
			continue
		}
		ev.Props.Set(dtStamp)
		cal.Children = append(cal.Children, ev.Component)
	}
	for _, p := range persons {
		if !p.HasBirthday() {
			continue
		}
		ev := birthdayComponent(p)
		ev.Props.Set(dtStamp)
		cal.Children = append(cal.Children, ev.Component)
	}
	return cal, skipped
}

func eventComponent(e *model.Event, loc *time.Location) (*ical.Event, error) {
	start, err := time.ParseInLocation("02.01.2006 15:04", e.StartDate+" "+e.StartTime, loc)
	if err != nil {
		return nil, err
	}
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, e.ID+"@"+uidDomain)
	ev.Props.SetText(ical.PropSummary, e.Title)

	dtStart := ical.NewProp(ical.PropDateTimeStart)
	dtStart.SetDateTime(start.UTC())
	ev.Props.Set(dtStart)

	if e.Location != "" {
		ev.Props.SetText(ical.PropLocation, e.Location)
	}
	if desc := describe(e); desc != "" {
		ev.Props.SetText(ical.PropDescription, desc)
	}

	if e.Recurring {
		end, err := time.ParseInLocation("02.01.2006 15:04", e.EndDate+" "+e.StartTime, loc)
		if err != nil {
			return nil, err
		}
		ev.Props.SetRecurrenceRule(&rrule.ROption{Freq: rrule.DAILY, Until: end.UTC()})
	}
	return ev, nil
}

func birthdayComponent(p *model.Person) *ical.Event {
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, "birthday-"+p.ChatID.String()+"@"+uidDomain)
	ev.Props.SetText(ical.PropSummary, "🎂 "+p.DisplayName)

	dtStart := ical.NewProp(ical.PropDateTimeStart)
	dtStart.SetDate(time.Date(birthdayAnchorYear, p.Birthday.Month, p.Birthday.Day, 0, 0, 0, 0, time.UTC))
	ev.Props.Set(dtStart)

	ev.Props.SetRecurrenceRule(&rrule.ROption{Freq: rrule.YEARLY})
	return ev
}

func describe(e *model.Event) string {
	var parts []string
	if e.Kind != "" {
		parts = append(parts, "Kind: "+e.Kind)
	}
	var guests []string
	for _, g := range e.Guests {
		if g != "" {
			guests = append(guests, g)
		}
	}
	if len(guests) > 0 {
		parts = append(parts, "Guests: "+strings.Join(guests, ", "))
	}
	return strings.Join(parts, "\n")
}
