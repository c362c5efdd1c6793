package engine

import (
	"testing"

	"taskdeck/internal/models"
)

func TestDueStatusOf(t *testing.T) {
	cases := []struct {
		name   string
		target string
		status models.TaskStatus
		want   models.DueStatus
	}{
		{"two days out", "2025-06-12", models.StatusInProgress, models.DueSoon},
		{"yesterday", "2025-06-09", models.StatusInProgress, models.DueOverdue},
		{"yesterday but completed", "2025-06-09", models.StatusCompleted, models.DueNormal},
		{"today", "2025-06-10", models.StatusNotStarted, models.DueSoon},
		{"three days out", "2025-06-13", models.StatusWaiting, models.DueSoon},
		{"four days out", "2025-06-14", models.StatusWaiting, models.DueNormal},
		{"no target date", "", models.StatusInProgress, models.DueNormal},
		{"garbage date", "soon-ish", models.StatusInProgress, models.DueNormal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := models.Task{TargetDate: tc.target, Status: tc.status}
			if got := DueStatusOf(task, today); got != tc.want {
				t.Errorf("DueStatusOf(%q, %s) = %s, want %s", tc.target, tc.status, got, tc.want)
			}
		})
	}
}

// Moving the target date earlier must never soften the classification, and
// moving it later must never harden it.
func TestDueStatusMonotonicity(t *testing.T) {
	rank := map[models.DueStatus]int{models.DueNormal: 0, models.DueSoon: 1, models.DueOverdue: 2}
	dates := []string{
		"2025-06-01", "2025-06-05", "2025-06-09", "2025-06-10",
		"2025-06-11", "2025-06-13", "2025-06-14", "2025-06-20",
	}
	prev := -1
	for i := len(dates) - 1; i >= 0; i-- {
		task := models.Task{TargetDate: dates[i], Status: models.StatusInProgress}
		got := rank[DueStatusOf(task, today)]
		if got < prev {
			t.Fatalf("classification softened from %d to %d at %s", prev, got, dates[i])
		}
		prev = got
	}
}

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: "a", TaskNumber: "0609-1", Content: "Fix invoice rounding", Assignee: "sato", System: "accounting", Status: models.StatusInProgress, TargetDate: "2025-06-09"},
		{ID: "b", TaskNumber: "0609-2", Content: "Restock shelf labels", Assignee: "tanaka", System: "inventory", Status: models.StatusCompleted, TargetDate: "2025-06-08"},
		{ID: "c", TaskNumber: "0610-1", Content: "Monthly close checklist", Assignee: "sato", System: "accounting", Status: models.StatusNotStarted, TargetDate: "2025-06-12"},
		{ID: "d", TaskNumber: "0610-2", Content: "Sort out VPN access", Assignee: "suzuki", System: "infra", Status: models.StatusWaiting},
	}
}

func ids(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestViewSearch(t *testing.T) {
	got := View(sampleTasks(), Query{Search: "INVOICE"})
	if !equalIDs(ids(got), "a") {
		t.Errorf("search by content = %v, want [a]", ids(got))
	}
	got = View(sampleTasks(), Query{Search: "0610"})
	if len(got) != 2 {
		t.Errorf("search by task number matched %d, want 2", len(got))
	}
	got = View(sampleTasks(), Query{Search: ""})
	if len(got) != 4 {
		t.Errorf("empty search matched %d, want all 4", len(got))
	}
}

func TestViewStatusFilter(t *testing.T) {
	got := View(sampleTasks(), Query{Status: FilterUnfinished})
	if len(got) != 3 {
		t.Errorf("unfinished = %d, want 3", len(got))
	}
	got = View(sampleTasks(), Query{Status: FilterFinished})
	if !equalIDs(ids(got), "b") {
		t.Errorf("finished = %v, want [b]", ids(got))
	}
}

func TestViewComposesAsSinglePredicate(t *testing.T) {
	q := Query{Search: "o", Assignee: "sato", Status: FilterUnfinished}
	staged := View(sampleTasks(), q)
	var direct []models.Task
	for _, task := range sampleTasks() {
		if Matches(task, q) {
			direct = append(direct, task)
		}
	}
	if len(staged) != len(direct) {
		t.Fatalf("staged %d vs predicate %d", len(staged), len(direct))
	}
	for i := range staged {
		if staged[i].ID != direct[i].ID {
			t.Errorf("order mismatch at %d: %s vs %s", i, staged[i].ID, direct[i].ID)
		}
	}
}

func TestViewSortMissingDatesLast(t *testing.T) {
	asc := View(sampleTasks(), Query{Sort: SortDateAsc})
	if !equalIDs(ids(asc), "b", "a", "c", "d") {
		t.Errorf("asc order = %v", ids(asc))
	}
	desc := View(sampleTasks(), Query{Sort: SortDateDesc})
	if !equalIDs(ids(desc), "c", "a", "b", "d") {
		t.Errorf("desc order = %v", ids(desc))
	}
}

func TestViewDefaultSortByNumberDesc(t *testing.T) {
	got := View(sampleTasks(), Query{})
	if !equalIDs(ids(got), "d", "c", "b", "a") {
		t.Errorf("default order = %v, want [d c b a]", ids(got))
	}
}

func TestSummarize(t *testing.T) {
	tasks := []models.Task{
		{Assignee: "sato", Status: models.StatusInProgress, TargetDate: "2025-06-08"},
		{Assignee: "sato", Status: models.StatusInProgress, TargetDate: "2025-06-09"},
		{Assignee: "sato", Status: models.StatusNotStarted, TargetDate: "2025-06-11"},
		{Assignee: "tanaka", Status: models.StatusWaiting, TargetDate: "2025-06-12"},
		{Assignee: "suzuki", Status: models.StatusInProgress, TargetDate: "2025-07-01"},
		{Assignee: "", Status: models.StatusInProgress, TargetDate: "2025-06-01"},
		{Assignee: "tanaka", Status: models.StatusCompleted, TargetDate: "2025-06-01"},
	}
	sum := Summarize(tasks, today)

	if sum.OverdueCount != 3 {
		t.Errorf("OverdueCount = %d, want 3", sum.OverdueCount)
	}
	if sum.DueSoonCount != 2 {
		t.Errorf("DueSoonCount = %d, want 2", sum.DueSoonCount)
	}

	if len(sum.Assignees) != 2 {
		t.Fatalf("assignees = %d, want 2 (suzuki has nothing urgent, blank excluded)", len(sum.Assignees))
	}
	if sum.Assignees[0].Assignee != "sato" {
		t.Errorf("first assignee = %s, want sato (most overdue)", sum.Assignees[0].Assignee)
	}
	if sum.Assignees[0].Overdue != 2 || sum.Assignees[0].DueSoon != 1 || sum.Assignees[0].Total != 3 {
		t.Errorf("sato stats = %+v", sum.Assignees[0])
	}
	if sum.Assignees[1].Assignee != "tanaka" || sum.Assignees[1].Overdue != 0 || sum.Assignees[1].DueSoon != 1 {
		t.Errorf("tanaka stats = %+v", sum.Assignees[1])
	}
}
