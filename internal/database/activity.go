package database

import (
	"fmt"

	"github.com/headless-pm/taskflow/internal/models"
)

// Activity logging functions
func (db *Database) LogActivity(taskID uint, userID *uint, action, fieldName, oldValue, newValue, description string) error {
	activity := &models.Activity{
		TaskID:      taskID,
		UserID:      userID,
		Action:      action,
		FieldName:   fieldName,
		OldValue:    oldValue,
		NewValue:    newValue,
		Description: description,
	}
	return db.Create(activity).Error
}

func (db *Database) LogTaskCreated(taskID uint, userID uint) error {
	return db.LogActivity(taskID, &userID, "created", "", "", "", "Task created")
}

func (db *Database) LogTaskStatusChanged(taskID uint, userID uint, oldStatus, newStatus models.TaskStatus) error {
	description := fmt.Sprintf("Status changed from %s to %s", oldStatus, newStatus)
	return db.LogActivity(taskID, &userID, "status_changed", "status", string(oldStatus), string(newStatus), description)
}

func (db *Database) LogTaskAssigned(taskID uint, userID uint, oldAssignees, newAssignees []uint) error {
	description := fmt.Sprintf("Task assigned to %v", newAssignees)
	if len(oldAssignees) > 0 {
		description = fmt.Sprintf("Task reassigned from %v to %v", oldAssignees, newAssignees)
	}
	return db.LogActivity(taskID, &userID, "assigned", "assignees", fmt.Sprint(oldAssignees), fmt.Sprint(newAssignees), description)
}

func (db *Database) LogTaskRescheduled(taskID uint, oldDue, newDue string) error {
	description := fmt.Sprintf("Due date moved from %s to %s by timeline adjustment", oldDue, newDue)
	return db.LogActivity(taskID, nil, "rescheduled", "due_date", oldDue, newDue, description)
}

func (db *Database) GetTaskActivities(taskID uint) ([]models.Activity, error) {
	var activities []models.Activity
	err := db.Where("task_id = ?", taskID).
		Order("created_at DESC, id DESC").
		Find(&activities).Error
	return activities, err
}
