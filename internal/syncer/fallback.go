package syncer

import (
	"fmt"
	"net/url"
	"time"

	"github.com/atotto/clipboard"

	"taskdeck/internal/models"
)

// CopyRows puts the tab-separated rows on the system clipboard. This is the
// sheet fallback when no relay endpoint is configured; the user pastes into
// the spreadsheet by hand.
func CopyRows(tasks []models.Task) error {
	if err := clipboard.WriteAll(ClipboardText(tasks)); err != nil {
		return fmt.Errorf("copy rows to clipboard: %w", err)
	}
	return nil
}

// CalendarURL builds a prefilled Google Calendar event-creation link for the
// calendar fallback. The event is all-day on the task's target date.
func CalendarURL(t models.Task) (string, error) {
	if t.TargetDate == "" {
		return "", ErrNoTargetDate
	}
	day, err := time.Parse(models.DateLayout, t.TargetDate)
	if err != nil {
		return "", fmt.Errorf("parse target date: %w", err)
	}
	start := day.Format("20060102")
	end := day.AddDate(0, 0, 1).Format("20060102")

	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", EventTitle(t))
	q.Set("dates", start+"/"+end)
	q.Set("details", EventDescription(t))
	return "https://calendar.google.com/calendar/render?" + q.Encode(), nil
}
