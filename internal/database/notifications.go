package database

import (
	"time"

	"github.com/headless-pm/taskflow/internal/models"
)

func (db *Database) CreateNotification(notification *models.Notification) error {
	return db.Create(notification).Error
}

func (db *Database) ListNotifications(userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	query := db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("created_at DESC, id DESC").Find(&notifications).Error
	return notifications, err
}

func (db *Database) CountUnreadNotifications(userID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkNotificationRead reports whether a notification owned by userID was found.
func (db *Database) MarkNotificationRead(id, userID uint, at time.Time) (bool, error) {
	result := db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		})
	return result.RowsAffected > 0, result.Error
}

func (db *Database) MarkAllNotificationsRead(userID uint, at time.Time) (int64, error) {
	result := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		})
	return result.RowsAffected, result.Error
}

// Messages

func (db *Database) CreateMessage(message *models.Message) error {
	return db.Create(message).Error
}

func (db *Database) ListInbox(userID uint) ([]models.Message, error) {
	var messages []models.Message
	err := db.Where("receiver_id = ?", userID).Order("created_at DESC, id DESC").Find(&messages).Error
	return messages, err
}

// ListConversation returns the messages exchanged between a and b, oldest first.
func (db *Database) ListConversation(a, b uint, projectID *uint) ([]models.Message, error) {
	var messages []models.Message
	query := db.Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))", a, b, b, a)
	if projectID != nil {
		query = query.Where("project_id = ?", *projectID)
	}
	err := query.Order("created_at, id").Find(&messages).Error
	return messages, err
}

// MarkMessageRead reports whether a message addressed to receiverID was found.
func (db *Database) MarkMessageRead(id, receiverID uint, at time.Time) (bool, error) {
	result := db.Model(&models.Message{}).
		Where("id = ? AND receiver_id = ?", id, receiverID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		})
	return result.RowsAffected > 0, result.Error
}
