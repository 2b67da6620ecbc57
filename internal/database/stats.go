package database

import (
	"time"

	"github.com/headless-pm/taskflow/internal/models"
	"gorm.io/gorm"
)

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type PriorityCount struct {
	Priority string `json:"priority"`
	Count    int64  `json:"count"`
}

// ProjectStats summarizes a project's active tasks.
type ProjectStats struct {
	TotalTasks      int64           `json:"total_tasks"`
	TasksByStatus   []StatusCount   `json:"tasks_by_status"`
	TasksByPriority []PriorityCount `json:"tasks_by_priority"`
	OverdueTasks    int64           `json:"overdue_tasks"`
	MemberCount     int64           `json:"member_count"`
	CompletionRate  float64         `json:"completion_rate"`
}

func (db *Database) GetProjectStats(projectID uint, now time.Time) (*ProjectStats, error) {
	stats := &ProjectStats{}
	tasks := func() *gorm.DB {
		return db.DB.Model(&models.Task{}).Scopes(Active).Where("project_id = ?", projectID)
	}

	if err := tasks().Count(&stats.TotalTasks).Error; err != nil {
		return nil, err
	}
	if err := tasks().Select("status, COUNT(*) as count").Group("status").Order("status").
		Scan(&stats.TasksByStatus).Error; err != nil {
		return nil, err
	}
	if err := tasks().Select("priority, COUNT(*) as count").Group("priority").Order("priority").
		Scan(&stats.TasksByPriority).Error; err != nil {
		return nil, err
	}
	if err := tasks().Where("due_date < ? AND status != ?", now, models.TaskStatusCompleted).
		Count(&stats.OverdueTasks).Error; err != nil {
		return nil, err
	}
	if err := db.DB.Model(&models.ProjectTeam{}).Where("project_id = ?", projectID).
		Count(&stats.MemberCount).Error; err != nil {
		return nil, err
	}

	var completed int64
	for _, sc := range stats.TasksByStatus {
		if sc.Status == string(models.TaskStatusCompleted) {
			completed = sc.Count
		}
	}
	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(completed) / float64(stats.TotalTasks) * 100
	}
	return stats, nil
}
