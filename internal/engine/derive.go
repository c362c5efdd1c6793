package engine

import (
	"sort"
	"strings"
	"time"

	"taskdeck/internal/models"
)

// StatusFilter narrows a list to unfinished or finished tasks.
type StatusFilter string

const (
	FilterAll        StatusFilter = ""
	FilterUnfinished StatusFilter = "unfinished"
	FilterFinished   StatusFilter = "finished"
)

// SortOrder selects the list ordering.
type SortOrder string

const (
	// SortDefault orders by descending lexical task number, so the newest
	// numbers come first. The compare is lexical, not numeric.
	SortDefault  SortOrder = ""
	SortDateAsc  SortOrder = "date-asc"
	SortDateDesc SortOrder = "date-desc"
)

// Query holds the view parameters of the derivation pipeline.
type Query struct {
	Search   string
	Assignee string
	Status   StatusFilter
	Sort     SortOrder
}

// DueStatusOf classifies a task's urgency for a given today. Completed tasks
// and tasks without a target date are always normal.
func DueStatusOf(t models.Task, today string) models.DueStatus {
	if t.Status == models.StatusCompleted || t.TargetDate == "" {
		return models.DueNormal
	}
	diff, ok := daysUntil(t.TargetDate, today)
	if !ok {
		return models.DueNormal
	}
	switch {
	case diff < 0:
		return models.DueOverdue
	case diff <= 3:
		return models.DueSoon
	default:
		return models.DueNormal
	}
}

// daysUntil returns the whole-day difference from today to date, both taken
// at midnight. Unparseable dates report ok=false.
func daysUntil(date, today string) (int, bool) {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return 0, false
	}
	now, err := time.Parse(models.DateLayout, today)
	if err != nil {
		return 0, false
	}
	return int(d.Sub(now).Hours() / 24), true
}

// Matches is the single predicate equivalent to the three filter stages of
// View combined with AND.
func Matches(t models.Task, q Query) bool {
	return matchesSearch(t, q.Search) && matchesAssignee(t, q.Assignee) && matchesStatus(t, q.Status)
}

func matchesSearch(t models.Task, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, field := range []string{t.Content, t.Assignee, t.System, t.Assigner, t.TaskNumber, t.Notes} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func matchesAssignee(t models.Task, assignee string) bool {
	return assignee == "" || t.Assignee == assignee
}

func matchesStatus(t models.Task, f StatusFilter) bool {
	switch f {
	case FilterUnfinished:
		return t.Status != models.StatusCompleted
	case FilterFinished:
		return t.Status == models.StatusCompleted
	default:
		return true
	}
}

// View runs the filter stages in order (search, assignee, status) and then
// sorts the survivors. The input slice is not modified.
func View(tasks []models.Task, q Query) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, q) {
			out = append(out, t)
		}
	}
	sortTasks(out, q.Sort)
	return out
}

func sortTasks(tasks []models.Task, order SortOrder) {
	switch order {
	case SortDateAsc:
		sort.SliceStable(tasks, func(i, j int) bool {
			return lessByDate(tasks[i].TargetDate, tasks[j].TargetDate, false)
		})
	case SortDateDesc:
		sort.SliceStable(tasks, func(i, j int) bool {
			return lessByDate(tasks[i].TargetDate, tasks[j].TargetDate, true)
		})
	default:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].TaskNumber > tasks[j].TaskNumber
		})
	}
}

// lessByDate compares ISO date strings lexically. Tasks without a target
// date sort after all dated tasks under both directions.
func lessByDate(a, b string, desc bool) bool {
	if a == "" {
		return false
	}
	if b == "" {
		return true
	}
	if desc {
		return a > b
	}
	return a < b
}

// AssigneeStat accumulates urgency counts for one assignee.
type AssigneeStat struct {
	Assignee string `json:"assignee"`
	Overdue  int    `json:"overdue"`
	DueSoon  int    `json:"dueSoon"`
	Total    int    `json:"total"`
}

// Summary holds the global urgency counts and the per-assignee table.
type Summary struct {
	OverdueCount int            `json:"overdueCount"`
	DueSoonCount int            `json:"dueSoonCount"`
	Assignees    []AssigneeStat `json:"assignees"`
}

// Summarize computes the urgency statistics for a given today. The
// per-assignee table covers unfinished tasks with a non-empty assignee and
// lists only assignees with at least one overdue or due-soon task, ordered
// by overdue count, then due-soon count, then name.
func Summarize(tasks []models.Task, today string) Summary {
	var sum Summary
	byAssignee := make(map[string]*AssigneeStat)

	for _, t := range tasks {
		due := DueStatusOf(t, today)
		switch due {
		case models.DueOverdue:
			sum.OverdueCount++
		case models.DueSoon:
			sum.DueSoonCount++
		}

		if t.Status == models.StatusCompleted || t.Assignee == "" {
			continue
		}
		st := byAssignee[t.Assignee]
		if st == nil {
			st = &AssigneeStat{Assignee: t.Assignee}
			byAssignee[t.Assignee] = st
		}
		st.Total++
		switch due {
		case models.DueOverdue:
			st.Overdue++
		case models.DueSoon:
			st.DueSoon++
		}
	}

	for _, st := range byAssignee {
		if st.Overdue > 0 || st.DueSoon > 0 {
			sum.Assignees = append(sum.Assignees, *st)
		}
	}
	sort.Slice(sum.Assignees, func(i, j int) bool {
		a, b := sum.Assignees[i], sum.Assignees[j]
		if a.Overdue != b.Overdue {
			return a.Overdue > b.Overdue
		}
		if a.DueSoon != b.DueSoon {
			return a.DueSoon > b.DueSoon
		}
		return a.Assignee < b.Assignee
	})
	return sum
}
