// Package syncer formats tasks into the external sync wire formats and
// drives the transport, writing sync flags back through the store.
package syncer

import (
	"fmt"
	"strings"

	"taskdeck/internal/models"
)

// SheetRow returns the ordered column values pushed to the spreadsheet.
// Column order is part of the external contract; the relay script upserts
// rows by the first column.
func SheetRow(t models.Task) []string {
	return []string{
		t.TaskNumber,
		t.AssignedDate,
		t.System,
		t.Category,
		t.Assigner,
		t.Content,
		t.Assignee,
		t.TargetDate,
		string(t.Priority),
		fmt.Sprintf("%d%%", t.Progress),
		t.Status.Label(),
		t.ActualCompletedDate,
	}
}

// TabLine returns one task as a tab-joined line for clipboard use.
func TabLine(t models.Task) string {
	return strings.Join(SheetRow(t), "\t")
}

// ClipboardText joins tab lines for a batch of tasks.
func ClipboardText(tasks []models.Task) string {
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = TabLine(t)
	}
	return strings.Join(lines, "\n")
}

// EventTitle is the calendar event title for a task.
func EventTitle(t models.Task) string {
	return fmt.Sprintf("[%s] %s", t.TaskNumber, t.Content)
}

// EventDescription is the calendar event body for a task.
func EventDescription(t models.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assignee: %s\n", t.Assignee)
	fmt.Fprintf(&b, "System: %s / %s\n", t.System, t.Category)
	fmt.Fprintf(&b, "Priority: %s\n", t.Priority)
	if t.Notes != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Notes)
	}
	return b.String()
}
