package service

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/headless-pm/taskflow/internal/apperr"
	"github.com/headless-pm/taskflow/internal/database"
	"github.com/headless-pm/taskflow/internal/models"
)

// MessagingService decides who may message whom. The allowed set is derived
// from project relationships and never lets an employee reach a client.
type MessagingService struct {
	db  *database.Database
	now func() time.Time
}

func NewMessagingService(db *database.Database) *MessagingService {
	return &MessagingService{db: db, now: time.Now}
}

// AllowedRecipients returns the users the actor may message, ordered by id.
func (s *MessagingService) AllowedRecipients(actor *models.User) ([]models.User, error) {
	ids, err := s.allowedIDs(actor)
	if err != nil {
		return nil, err
	}
	users, err := s.db.GetUsersByIDs(ids)
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if !u.IsArchived {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *MessagingService) allowedIDs(actor *models.User) ([]uint, error) {
	set := map[uint]bool{}
	switch actor.Role {
	case models.RoleAdmin:
		users, err := s.db.ListUsers(nil)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			set[u.ID] = true
		}

	case models.RoleClient:
		projects, err := accessibleProjects(s.db, actor)
		if err != nil {
			return nil, err
		}
		for _, p := range projects {
			if p.ProjectManagerID != nil {
				set[*p.ProjectManagerID] = true
			}
		}

	case models.RoleProjectManager:
		projects, err := accessibleProjects(s.db, actor)
		if err != nil {
			return nil, err
		}
		for _, p := range projects {
			set[p.ClientID] = true
			members, err := s.db.GetTeamMemberIDs(p.ID)
			if err != nil {
				return nil, err
			}
			for _, id := range members {
				set[id] = true
			}
		}

	case models.RoleEmployee:
		projects, err := accessibleProjects(s.db, actor)
		if err != nil {
			return nil, err
		}
		for _, p := range projects {
			if p.ProjectManagerID != nil {
				set[*p.ProjectManagerID] = true
			}
			members, err := s.db.GetTeamMemberIDs(p.ID)
			if err != nil {
				return nil, err
			}
			for _, id := range members {
				set[id] = true
			}
		}
		// Employees never reach clients, even one enrolled in a team.
		ids := make([]uint, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		users, err := s.db.GetUsersByIDs(ids)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			if u.Role == models.RoleClient {
				delete(set, u.ID)
			}
		}
	}

	delete(set, actor.ID)
	ids := make([]uint, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *MessagingService) CanMessage(actor *models.User, recipientID uint) (bool, error) {
	ids, err := s.allowedIDs(actor)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, recipientID), nil
}

// Send delivers a message. A tagged project must be shared by both users.
func (s *MessagingService) Send(actor *models.User, receiverID uint, content string, projectID *uint) (*models.Message, error) {
	if receiverID == actor.ID {
		return nil, apperr.InvalidInput("cannot send a message to yourself")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.InvalidInput("message text is empty")
	}
	receiver, err := s.db.GetActiveUser(receiverID)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanMessage(actor, receiver.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("%s may not message %s", actor.Username, receiver.Username)
	}
	if projectID != nil {
		shared, err := s.SharedProjects(actor, receiver.ID)
		if err != nil {
			return nil, err
		}
		if !slices.ContainsFunc(shared, func(p models.Project) bool { return p.ID == *projectID }) {
			return nil, apperr.Validation("project_id", "project is not shared with the recipient", *projectID)
		}
	}

	message := &models.Message{
		SenderID:   actor.ID,
		ReceiverID: receiver.ID,
		ProjectID:  projectID,
		Content:    content,
	}
	if err := s.db.CreateMessage(message); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return message, nil
}

// SharedProjects returns the active projects both users can access.
func (s *MessagingService) SharedProjects(actor *models.User, otherID uint) ([]models.Project, error) {
	other, err := s.db.GetActiveUser(otherID)
	if err != nil {
		return nil, err
	}
	mine, err := accessibleProjects(s.db, actor)
	if err != nil {
		return nil, err
	}
	theirs, err := accessibleProjects(s.db, other)
	if err != nil {
		return nil, err
	}
	ids := make(map[uint]bool, len(theirs))
	for _, p := range theirs {
		ids[p.ID] = true
	}
	shared := make([]models.Project, 0)
	for _, p := range mine {
		if ids[p.ID] {
			shared = append(shared, p)
		}
	}
	return shared, nil
}

func (s *MessagingService) Inbox(actor *models.User) ([]models.Message, error) {
	return s.db.ListInbox(actor.ID)
}

func (s *MessagingService) Conversation(actor *models.User, otherID uint, projectID *uint) ([]models.Message, error) {
	return s.db.ListConversation(actor.ID, otherID, projectID)
}

// MarkRead marks a message addressed to the actor as read.
func (s *MessagingService) MarkRead(actor *models.User, messageID uint) error {
	ok, err := s.db.MarkMessageRead(messageID, actor.ID, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("message", messageID)
	}
	return nil
}
