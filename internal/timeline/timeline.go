// Package timeline compresses a project's schedule after a task finishes late.
package timeline

import (
	"sort"
	"time"

	"github.com/headless-pm/taskflow/internal/models"
)

const Day = 24 * time.Hour

// Shift records the dates of a task before and after adjustment.
type Shift struct {
	TaskID       uint      `json:"task_id"`
	OldStartDate time.Time `json:"old_start_date"`
	OldDueDate   time.Time `json:"old_due_date"`
	NewStartDate time.Time `json:"new_start_date"`
	NewDueDate   time.Time `json:"new_due_date"`
}

// Adjust walks the tasks in start-date order. Every task that is not
// completed and is past due at now gets one more day, and every later task
// that is not completed is pulled one day earlier. A pulled task keeps at
// least one day between start and due. Shifts compound when several tasks are
// overdue. The input slice is not modified; the adjusted copies are returned
// in start-date order together with the shifts that changed a task.
//
// The project's end date is not consulted.
func Adjust(tasks []models.Task, now time.Time) ([]models.Task, []Shift) {
	ordered := make([]models.Task, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartDate.Before(ordered[j].StartDate)
	})

	original := make(map[uint][2]time.Time, len(ordered))
	for _, t := range ordered {
		original[t.ID] = [2]time.Time{t.StartDate, t.DueDate}
	}

	for i := range ordered {
		if ordered[i].Status == models.TaskStatusCompleted || !ordered[i].DueDate.Before(now) {
			continue
		}
		ordered[i].DueDate = ordered[i].DueDate.Add(Day)

		for j := i + 1; j < len(ordered); j++ {
			if ordered[j].Status == models.TaskStatusCompleted {
				continue
			}
			ordered[j].StartDate = ordered[j].StartDate.Add(-Day)
			ordered[j].DueDate = ordered[j].DueDate.Add(-Day)
			if !ordered[j].StartDate.Before(ordered[j].DueDate) {
				ordered[j].DueDate = ordered[j].StartDate.Add(Day)
			}
		}
	}

	var shifts []Shift
	for _, t := range ordered {
		before := original[t.ID]
		if before[0].Equal(t.StartDate) && before[1].Equal(t.DueDate) {
			continue
		}
		shifts = append(shifts, Shift{
			TaskID:       t.ID,
			OldStartDate: before[0],
			OldDueDate:   before[1],
			NewStartDate: t.StartDate,
			NewDueDate:   t.DueDate,
		})
	}

	return ordered, shifts
}
