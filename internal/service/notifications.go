package service

import (
	"time"

	"github.com/headless-pm/taskflow/internal/apperr"
	"github.com/headless-pm/taskflow/internal/database"
	"github.com/headless-pm/taskflow/internal/models"
)

const defaultNotificationLimit = 50

// NotificationService exposes a user's own notifications. Rows are only
// ever marked read.
type NotificationService struct {
	db  *database.Database
	now func() time.Time
}

func NewNotificationService(db *database.Database) *NotificationService {
	return &NotificationService{db: db, now: time.Now}
}

func (s *NotificationService) List(actor *models.User, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	return s.db.ListNotifications(actor.ID, unreadOnly, limit)
}

func (s *NotificationService) UnreadCount(actor *models.User) (int64, error) {
	return s.db.CountUnreadNotifications(actor.ID)
}

func (s *NotificationService) MarkRead(actor *models.User, notificationID uint) error {
	ok, err := s.db.MarkNotificationRead(notificationID, actor.ID, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("notification", notificationID)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(actor *models.User) (int64, error) {
	return s.db.MarkAllNotificationsRead(actor.ID, s.now())
}
