package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"telegram-notify-bot/internal/domain"
)

// DefaultDisplayName is used when the transport supplies no first name.
const DefaultDisplayName = "Unknown"

// ChatID is the canonical string form of a chat identity. Numeric Telegram
// ids and @channel names both compare as strings.
type ChatID string

func ChatIDFromInt64(id int64) ChatID { return ChatID(strconv.FormatInt(id, 10)) }

// Int64 returns the numeric form when the id is a Telegram numeric id.
func (c ChatID) Int64() (int64, bool) {
	n, err := strconv.ParseInt(string(c), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c ChatID) String() string { return string(c) }

// Category selects the congratulation template for a Person.
type Category int

const (
	CategoryNone Category = iota
	CategoryManagement
	CategoryDirector
)

func (c Category) String() string {
	switch c {
	case CategoryManagement:
		return "management"
	case CategoryDirector:
		return "director"
	default:
		return "none"
	}
}

// ParseCategory accepts the stored names; an empty string means none.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CategoryNone, nil
	case "management":
		return CategoryManagement, nil
	case "director":
		return CategoryDirector, nil
	}
	return CategoryNone, fmt.Errorf("category %q: %w", s, domain.ErrInvalidArgument)
}

// Birthday is a year-independent calendar day.
type Birthday struct {
	Day   int
	Month time.Month
}

// ParseBirthday reads a DD.MM string.
func ParseBirthday(s string) (Birthday, error) {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != '.' {
		return Birthday{}, fmt.Errorf("birthday %q: %w", s, domain.ErrMalformedDate)
	}
	d, errD := strconv.Atoi(s[:2])
	m, errM := strconv.Atoi(s[3:])
	if errD != nil || errM != nil {
		return Birthday{}, fmt.Errorf("birthday %q: %w", s, domain.ErrMalformedDate)
	}
	return NewBirthday(d, time.Month(m))
}

func NewBirthday(day int, month time.Month) (Birthday, error) {
	if month < time.January || month > time.December || day < 1 || day > daysIn(month) {
		return Birthday{}, fmt.Errorf("birthday %02d.%02d: %w", day, int(month), domain.ErrMalformedDate)
	}
	return Birthday{Day: day, Month: month}, nil
}

// String renders DD.MM.
func (b Birthday) String() string { return fmt.Sprintf("%02d.%02d", b.Day, int(b.Month)) }

func daysIn(m time.Month) int {
	// leap year so 29.02 is accepted
	return time.Date(2000, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Person is a registered chat user and possible birthday subject.
type Person struct {
	ChatID       ChatID
	DisplayName  string
	Birthday     *Birthday
	Category     Category
	Title        string
	RegisteredAt time.Time
}

func NewPerson(chatID ChatID, displayName string) (*Person, error) {
	if chatID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = DefaultDisplayName
	}
	return &Person{
		ChatID:       chatID,
		DisplayName:  displayName,
		Category:     CategoryNone,
		RegisteredAt: time.Now(),
	}, nil
}

func (p *Person) HasBirthday() bool { return p != nil && p.Birthday != nil }

// BirthdayOn reports whether the birthday is set and equals a DD.MM reference.
func (p *Person) BirthdayOn(dayMonth string) bool {
	return p.HasBirthday() && p.Birthday.String() == dayMonth
}

// Profile is the administrative back-fill of a Person.
type Profile struct {
	Birthday *Birthday
	Category Category
	Title    string
}
