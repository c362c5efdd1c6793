package engine

import (
	"testing"
	"time"

	"taskdeck/internal/models"
)

func TestNextTaskNumberSequence(t *testing.T) {
	day := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	var tasks []models.Task
	for i, want := range []string{"0610-1", "0610-2", "0610-3"} {
		got := NextTaskNumber(tasks, day)
		if got != want {
			t.Fatalf("task %d: number = %s, want %s", i+1, got, want)
		}
		tasks = append(tasks, models.Task{TaskNumber: got})
	}
}

func TestNextTaskNumberNewDayRestartsCount(t *testing.T) {
	tasks := []models.Task{
		{TaskNumber: "0610-1"},
		{TaskNumber: "0610-2"},
	}
	got := NextTaskNumber(tasks, time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC))
	if got != "0611-1" {
		t.Errorf("number = %s, want 0611-1", got)
	}
}

func TestNextTaskNumberIgnoresLongerPrefixes(t *testing.T) {
	// A task numbered 06101-… must not count toward the 0610 prefix.
	tasks := []models.Task{{TaskNumber: "06101-1"}}
	got := NextTaskNumber(tasks, time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))
	if got != "0610-1" {
		t.Errorf("number = %s, want 0610-1", got)
	}
}
