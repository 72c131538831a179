package usecase

import (
	"fmt"
	"html"
	"strings"

	"telegram-notify-bot/internal/domain/model"
)

// Intake conversation tokens.
const (
	TokenConfirm = "/confirm"
	TokenCancel  = "/cancel"
	TokenStop    = "/stop"
)

const (
	msgPermissionDenied = "⛔ You are not allowed to do this."

	msgPromptTitle     = "📝 New event. Send the meeting title.\nSend /stop at any time to abort."
	msgPromptGuests    = "👥 Who is invited? Send names separated by commas."
	msgPromptDate      = "🗓 Start date (DD.MM.YYYY):"
	msgInvalidDate     = "⚠️ The date must look like DD.MM.YYYY, for example 05.03.2025. Try again:"
	msgPromptTime      = "⏰ Start time (HH:MM, 24h):"
	msgInvalidTime     = "⚠️ The time must look like HH:MM, for example 09:30. Try again:"
	msgPromptRecurring = "🔁 Does the meeting repeat every day? Send 1 for yes, anything else for no."
	msgPromptEndDate   = "📆 Last day of the series (DD.MM.YYYY):"
	msgEndBeforeStart  = "⚠️ The last day cannot be before the start date %s. Try again:"
	msgPromptKind      = "🏷 Meeting kind (for example PM or DATA):"
	msgPromptLocation  = "📍 Location:"
	msgConfirmUsage    = "Send /confirm to save the event or /cancel to discard it."
	msgEventSaved      = "✅ Event saved."
	msgEventDiscarded  = "❌ Event discarded."
	msgIntakeStopped   = "🛑 Event creation stopped."
	msgSaveFailed      = "⚠️ Could not save the event right now. Send /confirm to try again or /cancel to discard."

	msgRegistered        = "✅ You have been registered, %s!"
	msgAlreadyRegistered = "You are already registered ✅"
	msgAdminNewPerson    = "🆕 New user registered: %s (id %s)"

	msgEventsSummary   = "📨 %d meeting notices sent"
	msgNoMeetings      = "📭 No meetings scheduled today"
	msgFailedSuffix    = " (%d failed)"
	msgBirthdaySummary = "🎂 Birthday greetings for %s sent: %d"
	msgNoBirthdays     = "📭 Nobody has a birthday on %s"
	msgIndividualCount = "📨 Birthday notice for %s delivered to %d people"
)

// RenderEvent formats an event notice; user text is HTML escaped.
func RenderEvent(e *model.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📌 <b>%s</b>\n", html.EscapeString(e.Title))
	fmt.Fprintf(&b, "👥 Guests: %s\n", html.EscapeString(strings.Join(e.Guests, ", ")))
	fmt.Fprintf(&b, "🗓 Date: %s\n", html.EscapeString(e.StartDate))
	fmt.Fprintf(&b, "⏰ Time: %s\n", html.EscapeString(e.StartTime))
	fmt.Fprintf(&b, "📍 Location: %s", html.EscapeString(e.Location))
	if e.Kind != "" {
		fmt.Fprintf(&b, "\n🏷 Kind: %s", html.EscapeString(e.Kind))
	}
	if e.Recurring {
		fmt.Fprintf(&b, "\n🔁 Every day until %s", html.EscapeString(e.EndDate))
	}
	return b.String()
}

func renderPreview(e *model.Event) string {
	return "Please check the event:\n\n" + RenderEvent(e) + "\n\n" + msgConfirmUsage
}

// Mention links to a Telegram user when the id is numeric.
func Mention(p *model.Person) string {
	name := html.EscapeString(p.DisplayName)
	if id, ok := p.ChatID.Int64(); ok && id > 0 {
		return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, id, name)
	}
	return name
}

// RenderBirthday picks the group template for the person's category.
func RenderBirthday(p *model.Person, dayMonth string) string {
	title := html.EscapeString(p.Title)
	switch p.Category {
	case model.CategoryDirector:
		return fmt.Sprintf("🎉 On %s our director %s celebrates a birthday!\n"+
			"Dear %s, the whole team wishes you health, success and many bright years ahead! 🎂", dayMonth, title, Mention(p))
	case model.CategoryManagement:
		return fmt.Sprintf("🎉 On %s %s, our %s, celebrates a birthday!\n"+
			"Thank you for leading us. Happy birthday! 🎂", dayMonth, Mention(p), title)
	case model.CategoryNone:
		return fmt.Sprintf("🎉 On %s our colleague %s celebrates a birthday!\n"+
			"Happy birthday from the whole department! 🎂", dayMonth, Mention(p))
	}
	return fmt.Sprintf("🎉 Happy birthday, %s! 🎂", Mention(p))
}

// CollectionInfo describes the gift collection announced to individuals.
type CollectionInfo struct {
	Amount     string
	CardNumber string
	CardHolder string
	// CardOwner is the screenshot contact: a numeric user id or a username.
	CardOwner string
	Note      string
}

// RenderIndividualNotice is the direct message sent to every other colleague.
func RenderIndividualNotice(owner *model.Person, dayMonth string, c CollectionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎂 On %s it is %s's birthday!", dayMonth, Mention(owner))
	if c.Amount != "" {
		fmt.Fprintf(&b, "\n💰 We are collecting %s for a present.", html.EscapeString(c.Amount))
	}
	if c.CardNumber != "" {
		fmt.Fprintf(&b, "\n💳 Card: <code>%s</code>", html.EscapeString(c.CardNumber))
		if c.CardHolder != "" {
			fmt.Fprintf(&b, " (%s)", html.EscapeString(c.CardHolder))
		}
	}
	if link := contactLink(c.CardOwner); link != "" {
		fmt.Fprintf(&b, "\n📸 Please send the payment screenshot to %s.", link)
	}
	if c.Note != "" {
		fmt.Fprintf(&b, "\n%s", html.EscapeString(c.Note))
	}
	return b.String()
}

// contactLink links a numeric user id the way Mention does, and anything
// else as a public username.
func contactLink(owner string) string {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return ""
	}
	if id, ok := model.ChatID(owner).Int64(); ok && id > 0 {
		return fmt.Sprintf(`<a href="tg://user?id=%d">the card owner</a>`, id)
	}
	name := html.EscapeString(strings.TrimPrefix(owner, "@"))
	return fmt.Sprintf(`<a href="https://t.me/%s">@%s</a>`, name, name)
}

func withFailures(s string, failed int) string {
	if failed > 0 {
		return s + fmt.Sprintf(msgFailedSuffix, failed)
	}
	return s
}
