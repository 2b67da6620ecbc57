package database

import (
	"errors"
	"fmt"

	"github.com/headless-pm/taskflow/internal/apperr"
	"github.com/headless-pm/taskflow/internal/models"
	"gorm.io/gorm"
)

func (db *Database) CreateUser(user *models.User) error {
	return db.DB.Create(user).Error
}

// GetUserByID returns the user whether or not it is archived; callers that
// authenticate decide what an archived account may do.
func (db *Database) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := db.DB.First(&user, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

func (db *Database) GetActiveUser(id uint) (*models.User, error) {
	var user models.User
	if err := db.DB.Scopes(Active).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

func (db *Database) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := db.DB.Where("username = ? OR email = ?", username, username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (db *Database) GetUsersByIDs(ids []uint) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := db.DB.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// ListUsers returns active users, optionally restricted to one role.
func (db *Database) ListUsers(role *models.Role) ([]models.User, error) {
	var users []models.User
	query := db.DB.Scopes(Active)
	if role != nil {
		query = query.Where("role = ?", *role)
	}
	err := query.Order("id").Find(&users).Error
	return users, err
}

func (db *Database) ListUserIDsByRole(role models.Role) ([]uint, error) {
	var ids []uint
	err := db.DB.Model(&models.User{}).Scopes(Active).
		Where("role = ?", role).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

func (db *Database) UpdateUser(user *models.User) error {
	return db.DB.Save(user).Error
}
