package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/headless-pm/taskflow/internal/apperr"
	"github.com/headless-pm/taskflow/internal/database"
	"github.com/headless-pm/taskflow/internal/models"
	"github.com/headless-pm/taskflow/pkg/auth"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type UserService struct {
	db  *database.Database
	now func() time.Time
}

func NewUserService(db *database.Database) *UserService {
	return &UserService{db: db, now: time.Now}
}

type UserInput struct {
	Email     string      `json:"email"`
	Username  string      `json:"username"`
	Password  string      `json:"password"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Role      models.Role `json:"role"`
}

// Authenticate checks credentials by username or email. Inactive and
// archived accounts cannot log in.
func (s *UserService) Authenticate(login, password string) (*models.User, error) {
	user, err := s.db.GetUserByUsername(strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive || user.IsArchived || !auth.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}

	user.LastLogin = s.now()
	if err := s.db.UpdateUser(user); err != nil {
		log.Printf("Failed to record login for user %d: %v", user.ID, err)
	}
	return user, nil
}

// Register creates a user without an acting admin. It is used to seed the
// first administrator.
func (s *UserService) Register(in UserInput) (*models.User, error) {
	if strings.TrimSpace(in.Username) == "" {
		return nil, apperr.Validation("username", "username is required", in.Username)
	}
	if !strings.Contains(in.Email, "@") {
		return nil, apperr.Validation("email", "email is invalid", in.Email)
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("role", "role must be Admin, Client, Project Manager or Employee", in.Role)
	}
	if _, err := s.db.GetUserByUsername(in.Username); err == nil {
		return nil, apperr.Validation("username", "username is taken", in.Username)
	}
	if _, err := s.db.GetUserByUsername(in.Email); err == nil {
		return nil, apperr.Validation("email", "email is taken", in.Email)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Validation("password", err.Error(), "")
	}

	user := &models.User{
		Email:     strings.TrimSpace(in.Email),
		Username:  strings.TrimSpace(in.Username),
		Password:  hash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      in.Role,
		IsActive:  true,
	}
	if err := s.db.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	log.Printf("User %d (%s) created with role %s", user.ID, user.Username, user.Role)
	return user, nil
}

func (s *UserService) Create(actor *models.User, in UserInput) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.Register(in)
}

func (s *UserService) List(actor *models.User, role *models.Role) ([]models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.db.ListUsers(role)
}

// Archive hides a user. Their projects, tasks and messages are untouched.
func (s *UserService) Archive(actor *models.User, userID uint) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if userID == actor.ID {
		return nil, apperr.InvalidInput("cannot archive yourself")
	}
	user, err := s.db.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	user.IsArchived = true
	user.IsActive = false
	if err := s.db.UpdateUser(user); err != nil {
		return nil, fmt.Errorf("failed to archive user: %w", err)
	}
	return user, nil
}

func requireAdmin(actor *models.User) error {
	if actor == nil || actor.Role != models.RoleAdmin {
		return apperr.Forbidden("%s may not manage users", actorName(actor))
	}
	return nil
}
