// Package engine implements the pure task rules: the reconciliation that
// keeps status, progress, and completed date consistent across every
// mutation entry point, the derived list views and urgency statistics, and
// the per-day task number allocator.
//
// Every function is pure. "Today" is an injected ISO date string
// (models.DateLayout) so callers and tests control the clock.
package engine

import "taskdeck/internal/models"

// SetStatus applies a status change and re-establishes the
// status/progress/completed-date consistency rules.
//
// Re-setting the current status is a no-op; in particular re-completing a
// completed task must not refresh its completed date.
func SetStatus(t models.Task, status models.TaskStatus, today string) models.Task {
	if status == t.Status {
		return t
	}
	was := t.Status
	t.Status = status
	if status == models.StatusCompleted {
		t.Progress = 100
		t.ActualCompletedDate = today
	} else if was == models.StatusCompleted {
		// Progress is deliberately left as-is on demotion; the next
		// progress or report mutation restores full consistency.
		t.ActualCompletedDate = ""
	}
	return t
}

// SetProgress applies a progress change. Callers must pass a value already
// validated into 0..100; out-of-range input is a contract violation.
func SetProgress(t models.Task, progress int, today string) models.Task {
	if progress == t.Progress {
		return t
	}
	prev := t.Progress
	t.Progress = progress
	if progress == 100 {
		t.Status = models.StatusCompleted
		t.ActualCompletedDate = today
	} else if prev == 100 {
		t.Status = models.StatusInProgress
		t.ActualCompletedDate = ""
	}
	return t
}

// SetCompletedDate applies a manual completed-date edit. A non-empty date
// marks the task completed; clearing the date on a completed task demotes it
// to in-progress.
func SetCompletedDate(t models.Task, date string) models.Task {
	if date == t.ActualCompletedDate {
		return t
	}
	t.ActualCompletedDate = date
	if date != "" {
		t.Progress = 100
		t.Status = models.StatusCompleted
	} else if t.Status == models.StatusCompleted {
		t.Status = models.StatusInProgress
	}
	return t
}

// ApplyReport applies the progress recorded by a report entry and returns
// the reconciled task plus whether the entry should be appended to the
// task's report log. A report with empty content and unchanged progress is a
// no-op edit and is not appended.
//
// rep.Date carries "today" for the completion rules.
func ApplyReport(t models.Task, rep models.ReportEntry) (models.Task, bool) {
	prev := t.Progress
	appendEntry := rep.Content != "" || rep.Progress != prev

	t.Progress = rep.Progress
	switch {
	case rep.Progress == 100:
		if t.Status != models.StatusCompleted {
			t.Status = models.StatusCompleted
			t.ActualCompletedDate = rep.Date
		}
	default:
		if t.Status == models.StatusNotStarted && rep.Progress > 0 {
			t.Status = models.StatusInProgress
		}
		if prev == 100 {
			t.ActualCompletedDate = ""
			// A completed task always had progress 100, so a sub-100
			// report demotes it here rather than via a separate rule.
			if t.Status == models.StatusCompleted {
				t.Status = models.StatusInProgress
			}
		}
	}
	return t, appendEntry
}
