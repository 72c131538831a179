package model

import "time"

// Step is the position of a draft in the intake conversation.
type Step int

const (
	StepAwaitTitle Step = iota + 1
	StepAwaitGuests
	StepAwaitDate
	StepAwaitTime
	StepAwaitRecurring
	StepAwaitEndDate
	StepAwaitKind
	StepAwaitLocation
	StepAwaitConfirm
)

var stepNames = map[Step]string{
	StepAwaitTitle:     "await_title",
	StepAwaitGuests:    "await_guests",
	StepAwaitDate:      "await_date",
	StepAwaitTime:      "await_time",
	StepAwaitRecurring: "await_recurring",
	StepAwaitEndDate:   "await_end_date",
	StepAwaitKind:      "await_kind",
	StepAwaitLocation:  "await_location",
	StepAwaitConfirm:   "await_confirm",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s Step) Valid() bool {
	_, ok := stepNames[s]
	return ok
}

// ConversationDraft is the per-chat state of an event under construction.
type ConversationDraft struct {
	ChatID    ChatID
	Step      Step
	Event     Event
	UpdatedAt time.Time
}

func NewDraft(chatID ChatID) *ConversationDraft {
	return &ConversationDraft{
		ChatID:    chatID,
		Step:      StepAwaitTitle,
		Event:     Event{CreatedBy: chatID},
		UpdatedAt: time.Now(),
	}
}
