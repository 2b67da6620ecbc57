package timeline

import (
	"testing"
	"time"

	"github.com/headless-pm/taskflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return base.AddDate(0, 0, n)
}

func byID(tasks []models.Task) map[uint]models.Task {
	m := make(map[uint]models.Task, len(tasks))
	for _, t := range tasks {
		m[t.ID] = t
	}
	return m
}

func TestAdjustSingleOverdueTask(t *testing.T) {
	tasks := []models.Task{
		{ID: 2, StartDate: day(3), DueDate: day(4), Status: models.TaskStatusNotStarted},
		{ID: 1, StartDate: day(1), DueDate: day(2), Status: models.TaskStatusInProgress},
	}
	now := day(2).Add(12 * time.Hour)

	adjusted, shifts := Adjust(tasks, now)
	got := byID(adjusted)

	assert.Equal(t, day(3), got[1].DueDate)
	assert.Equal(t, day(1), got[1].StartDate)
	assert.Equal(t, day(2), got[2].StartDate)
	assert.Equal(t, day(3), got[2].DueDate)
	assert.True(t, got[2].StartDate.Before(got[2].DueDate))
	assert.Len(t, shifts, 2)

	assert.Equal(t, uint(1), adjusted[0].ID, "result is ordered by start date")
	assert.Equal(t, day(4), tasks[0].DueDate, "input is not modified")
}

func TestAdjustSkipsCompletedTasks(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, StartDate: day(1), DueDate: day(2), Status: models.TaskStatusCompleted},
		{ID: 2, StartDate: day(3), DueDate: day(5), Status: models.TaskStatusInProgress},
	}

	adjusted, shifts := Adjust(tasks, day(10))
	got := byID(adjusted)

	assert.Equal(t, day(2), got[1].DueDate)
	// Task 2 is itself overdue, so it is extended but nothing follows it.
	assert.Equal(t, day(3), got[2].StartDate)
	assert.Equal(t, day(6), got[2].DueDate)
	require.Len(t, shifts, 1)
	assert.Equal(t, uint(2), shifts[0].TaskID)
}

func TestAdjustCompletedFollowersAreNotShifted(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, StartDate: day(1), DueDate: day(2), Status: models.TaskStatusInProgress},
		{ID: 2, StartDate: day(5), DueDate: day(8), Status: models.TaskStatusCompleted},
		{ID: 3, StartDate: day(6), DueDate: day(9), Status: models.TaskStatusNotStarted},
	}

	adjusted, _ := Adjust(tasks, day(3))
	got := byID(adjusted)

	assert.Equal(t, day(5), got[2].StartDate)
	assert.Equal(t, day(8), got[2].DueDate)
	assert.Equal(t, day(5), got[3].StartDate)
	assert.Equal(t, day(8), got[3].DueDate)
}

func TestAdjustFloorKeepsOneDay(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, StartDate: day(1), DueDate: day(2), Status: models.TaskStatusInProgress},
		{ID: 2, StartDate: day(4), DueDate: day(4).Add(6 * time.Hour), Status: models.TaskStatusNotStarted},
	}

	adjusted, _ := Adjust(tasks, day(2).Add(time.Hour))
	got := byID(adjusted)

	assert.Equal(t, day(3), got[2].StartDate)
	assert.Equal(t, day(3).Add(6*time.Hour), got[2].DueDate)

	same := []models.Task{
		{ID: 1, StartDate: day(1), DueDate: day(2), Status: models.TaskStatusInProgress},
		{ID: 2, StartDate: day(4), DueDate: day(4), Status: models.TaskStatusNotStarted},
	}
	adjusted, _ = Adjust(same, day(2).Add(time.Hour))
	got = byID(adjusted)
	assert.Equal(t, day(3), got[2].StartDate)
	assert.Equal(t, day(4), got[2].DueDate)
}

func TestAdjustCompoundsShifts(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, StartDate: day(1), DueDate: day(2), Status: models.TaskStatusInProgress},
		{ID: 2, StartDate: day(2), DueDate: day(4), Status: models.TaskStatusInProgress},
		{ID: 3, StartDate: day(10), DueDate: day(14), Status: models.TaskStatusNotStarted},
	}
	// Task 2 is still overdue after being pulled in (due day 3 < day 5).
	now := day(5)

	adjusted, shifts := Adjust(tasks, now)
	got := byID(adjusted)

	assert.Equal(t, day(3), got[1].DueDate)
	assert.Equal(t, day(1), got[2].StartDate)
	assert.Equal(t, day(4), got[2].DueDate, "pulled to day 3 then extended to day 4")
	assert.Equal(t, day(8), got[3].StartDate)
	assert.Equal(t, day(12), got[3].DueDate)
	assert.Len(t, shifts, 3)
}

func TestAdjustNothingOverdue(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, StartDate: day(1), DueDate: day(2), Status: models.TaskStatusInProgress},
	}
	adjusted, shifts := Adjust(tasks, day(1))
	assert.Empty(t, shifts)
	assert.Equal(t, tasks, adjusted)
}
