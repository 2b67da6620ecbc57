package service

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/headless-pm/taskflow/internal/apperr"
	"github.com/headless-pm/taskflow/internal/database"
	"github.com/headless-pm/taskflow/internal/models"
	"github.com/headless-pm/taskflow/internal/policy"
	"github.com/headless-pm/taskflow/internal/storage"
)

type TicketService struct {
	db       *database.Database
	files    *storage.FileStorage
	notifier *Notifier
	now      func() time.Time
}

func NewTicketService(db *database.Database, files *storage.FileStorage, notifier *Notifier) *TicketService {
	return &TicketService{db: db, files: files, notifier: notifier, now: time.Now}
}

type TicketInput struct {
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Priority     models.TaskPriority `json:"priority"`
	ProjectID    *uint               `json:"project_id"`
	AssignedToID *uint               `json:"assigned_to_id"`
}

type TicketDetail struct {
	Ticket      models.Ticket             `json:"ticket"`
	Comments    []models.TicketComment    `json:"comments"`
	Attachments []models.TicketAttachment `json:"attachments"`
}

// Create opens a ticket on behalf of a client. A linked project must be one
// the client owns.
func (s *TicketService) Create(actor *models.User, in TicketInput) (*models.Ticket, error) {
	if err := authorize(actor, policy.ActionCreate, policy.TicketResource{}, "create tickets"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validation("title", "title is required", in.Title)
	}
	if in.Priority == "" {
		in.Priority = models.TaskPriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, apperr.Validation("priority", "priority must be Low, Medium or High", in.Priority)
	}
	if in.ProjectID != nil {
		project, err := s.db.GetProject(*in.ProjectID)
		if err != nil {
			return nil, apperr.Validation("project_id", "project does not exist", *in.ProjectID)
		}
		if project.ClientID != actor.ID {
			return nil, apperr.Forbidden("%s may not open tickets on project %d", actor.Username, project.ID)
		}
	}
	if in.AssignedToID != nil {
		if _, err := requireRole(s.db, *in.AssignedToID, models.RoleEmployee, "assigned_to_id"); err != nil {
			return nil, err
		}
	}

	ticket := &models.Ticket{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Priority:     in.Priority,
		Status:       models.TicketStatusOpen,
		ProjectID:    in.ProjectID,
		CreatedByID:  actor.ID,
		AssignedToID: in.AssignedToID,
	}
	var deliveries []Delivery
	err := s.db.InTx(func(tx *database.Database) error {
		if err := tx.CreateTicket(ticket); err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}
		deliveries = s.notifier.Notify(tx, Event{
			Kind:     EventTicketCreated,
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Title:    "New ticket",
			Message:  fmt.Sprintf("%s opened %q", actor.FullName(), ticket.Title),
			Link:     ticketLink(ticket.ID),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Dispatch(deliveries)

	log.Printf("Ticket %d created by user %d", ticket.ID, actor.ID)
	return ticket, nil
}

func (s *TicketService) Get(actor *models.User, ticketID uint) (*TicketDetail, error) {
	ticket, _, err := s.load(actor, ticketID, policy.ActionView)
	if err != nil {
		return nil, err
	}
	comments, err := s.db.ListTicketComments(ticket.ID)
	if err != nil {
		return nil, err
	}
	attachments, err := s.db.ListTicketAttachments(ticket.ID)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{Ticket: *ticket, Comments: comments, Attachments: attachments}, nil
}

// List returns the tickets visible to the actor, optionally by status.
func (s *TicketService) List(actor *models.User, status *models.TicketStatus) ([]models.Ticket, error) {
	filter := database.TicketFilter{Status: status}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleProjectManager:
		filter.ManagerID = &actor.ID
	case models.RoleClient:
		filter.CreatedByID = &actor.ID
	case models.RoleEmployee:
		filter.AssignedToID = &actor.ID
	default:
		return nil, apperr.Forbidden("%s may not list tickets", actorName(actor))
	}
	return s.db.ListTickets(filter)
}

// UpdateStatus sets any ticket status. Resolving stamps the resolution time.
func (s *TicketService) UpdateStatus(actor *models.User, ticketID uint, status models.TicketStatus) (*models.Ticket, error) {
	if !status.Valid() {
		return nil, apperr.Validation("status", "unknown ticket status", status)
	}
	ticket, _, err := s.load(actor, ticketID, policy.ActionUpdateStatus)
	if err != nil {
		return nil, err
	}

	now := s.now()
	old := ticket.Status
	ticket.Status = status
	ticket.UpdatedAt = now
	if status == models.TicketStatusResolved {
		ticket.ResolvedAt = &now
	}

	var deliveries []Delivery
	err = s.db.InTx(func(tx *database.Database) error {
		if err := tx.UpdateTicket(ticket); err != nil {
			return fmt.Errorf("failed to update ticket: %w", err)
		}
		deliveries = s.notifier.Notify(tx, Event{
			Kind:     EventTicketStatusChanged,
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Title:    "Ticket status changed",
			Message:  fmt.Sprintf("%q moved from %s to %s", ticket.Title, old, status),
			Link:     ticketLink(ticket.ID),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Dispatch(deliveries)
	return ticket, nil
}

func (s *TicketService) Assign(actor *models.User, ticketID, employeeID uint) (*models.Ticket, error) {
	ticket, _, err := s.load(actor, ticketID, policy.ActionAssign)
	if err != nil {
		return nil, err
	}
	if _, err := requireRole(s.db, employeeID, models.RoleEmployee, "assigned_to_id"); err != nil {
		return nil, err
	}

	ticket.AssignedToID = &employeeID
	ticket.UpdatedAt = s.now()

	var deliveries []Delivery
	err = s.db.InTx(func(tx *database.Database) error {
		if err := tx.UpdateTicket(ticket); err != nil {
			return fmt.Errorf("failed to update ticket: %w", err)
		}
		deliveries = s.notifier.Notify(tx, Event{
			Kind:     EventTicketReassigned,
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Title:    "Ticket assigned",
			Message:  fmt.Sprintf("You have been assigned %q", ticket.Title),
			Link:     ticketLink(ticket.ID),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Dispatch(deliveries)
	return ticket, nil
}

func (s *TicketService) AddComment(actor *models.User, ticketID uint, content string) (*models.TicketComment, error) {
	ticket, _, err := s.load(actor, ticketID, policy.ActionComment)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.InvalidInput("comment text is empty")
	}

	comment := &models.TicketComment{TicketID: ticket.ID, UserID: actor.ID, Content: content}
	var deliveries []Delivery
	err = s.db.InTx(func(tx *database.Database) error {
		if err := tx.AddTicketComment(comment); err != nil {
			return fmt.Errorf("failed to add comment: %w", err)
		}
		deliveries = s.notifier.Notify(tx, Event{
			Kind:      EventTicketCommented,
			TicketID:  ticket.ID,
			ActorID:   actor.ID,
			ActorRole: actor.Role,
			Title:     "New ticket comment",
			Message:   fmt.Sprintf("%s commented on %q", actor.FullName(), ticket.Title),
			Link:      ticketLink(ticket.ID),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Dispatch(deliveries)
	return comment, nil
}

func (s *TicketService) AddAttachment(actor *models.User, ticketID uint, file io.Reader, fileName, mimeType string, size int64) (*models.TicketAttachment, error) {
	ticket, _, err := s.load(actor, ticketID, policy.ActionAttach)
	if err != nil {
		return nil, err
	}
	if file == nil || strings.TrimSpace(fileName) == "" {
		return nil, apperr.InvalidInput("a file is required")
	}

	path, err := s.files.Write(file, fmt.Sprintf("tickets/%d", ticket.ID), fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to store attachment: %w", err)
	}
	attachment := &models.TicketAttachment{
		TicketID:     ticket.ID,
		FileName:     fileName,
		FilePath:     path,
		MimeType:     mimeType,
		Size:         size,
		UploadedByID: actor.ID,
		UploadedAt:   s.now(),
	}
	if err := s.db.AddTicketAttachment(attachment); err != nil {
		if rmErr := s.files.Delete(path); rmErr != nil {
			log.Printf("Failed to remove file %s: %v", path, rmErr)
		}
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}
	return attachment, nil
}

// OpenAttachment returns a reader for the attachment. The caller closes it.
func (s *TicketService) OpenAttachment(actor *models.User, attachmentID uint) (io.ReadCloser, *models.TicketAttachment, error) {
	attachment, err := s.db.GetTicketAttachment(attachmentID)
	if err != nil {
		return nil, nil, err
	}
	if _, _, err := s.load(actor, attachment.TicketID, policy.ActionView); err != nil {
		return nil, nil, err
	}
	f, err := s.files.Open(attachment.FilePath)
	if err != nil {
		return nil, nil, apperr.NotFound("attachment file", attachment.ID)
	}
	return f, attachment, nil
}

func (s *TicketService) load(actor *models.User, ticketID uint, action policy.Action) (*models.Ticket, policy.TicketResource, error) {
	ticket, err := s.db.GetTicket(ticketID)
	if err != nil {
		return nil, policy.TicketResource{}, err
	}
	res, err := ticketResource(s.db, ticket)
	if err != nil {
		return nil, res, err
	}
	if err := authorize(actor, action, res, string(action)+" this ticket"); err != nil {
		return nil, res, err
	}
	return ticket, res, nil
}

func ticketLink(ticketID uint) func(models.Role) string {
	return func(role models.Role) string {
		switch role {
		case models.RoleClient:
			return fmt.Sprintf("/client/tickets/%d", ticketID)
		case models.RoleEmployee:
			return fmt.Sprintf("/employee/tickets/%d", ticketID)
		default:
			return fmt.Sprintf("/tickets/%d", ticketID)
		}
	}
}
