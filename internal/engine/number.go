package engine

import (
	"fmt"
	"strings"
	"time"

	"taskdeck/internal/models"
)

// NextTaskNumber allocates the next MMDD-N display number for the given day
// by counting existing tasks whose number carries the same day prefix.
// Numbers are unique within a day only; the scan is over a snapshot, so two
// writers on the same day can in theory mint the same number.
func NextTaskNumber(tasks []models.Task, today time.Time) string {
	prefix := today.Format("0102")
	count := 0
	for _, t := range tasks {
		if strings.HasPrefix(t.TaskNumber, prefix+"-") {
			count++
		}
	}
	return fmt.Sprintf("%s-%d", prefix, count+1)
}
