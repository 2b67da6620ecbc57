package service

import (
	"fmt"
	"html"
	"log"

	"github.com/headless-pm/taskflow/internal/database"
	"github.com/headless-pm/taskflow/internal/models"
)

type EventKind string

const (
	// EventProjectStatusChanged notifies the project's client.
	EventProjectStatusChanged EventKind = "project_status_changed"
	// EventTaskStatusChanged notifies every current assignee.
	EventTaskStatusChanged EventKind = "task_status_changed"
	// EventTaskStatusChangedFor notifies RecipientID only.
	EventTaskStatusChangedFor EventKind = "task_status_changed_for"
	// EventTaskApproved notifies the task's creator and the project manager.
	EventTaskApproved EventKind = "task_approved"
	// EventTicketCreated notifies the assignee, the project manager and every admin.
	EventTicketCreated EventKind = "ticket_created"
	// EventTicketCommented notifies the creator when an admin comments,
	// otherwise the assignee.
	EventTicketCommented EventKind = "ticket_commented"
	// EventTicketStatusChanged notifies the ticket's creator.
	EventTicketStatusChanged EventKind = "ticket_status_changed"
	// EventTicketReassigned notifies the new assignee.
	EventTicketReassigned EventKind = "ticket_reassigned"
)

// Event describes a state change. Archival marks archive and unarchive
// actions, which clients are never told about.
type Event struct {
	Kind        EventKind
	ProjectID   uint
	TaskID      uint
	TicketID    uint
	ActorID     uint
	ActorRole   models.Role
	RecipientID uint
	Archival    bool
	Title       string
	Message     string
	// Link returns the route a recipient with the given role should follow.
	Link func(role models.Role) string
}

// EmailSink accepts emails for best-effort delivery.
type EmailSink interface {
	Enqueue(to, subject, html string)
}

// Delivery is a notification row that was written, with the address it
// should be emailed to once the surrounding transaction commits.
type Delivery struct {
	Notification models.Notification
	Email        string
}

type Notifier struct {
	sink EmailSink
}

// NewNotifier accepts a nil sink, in which case nothing is emailed.
func NewNotifier(sink EmailSink) *Notifier {
	return &Notifier{sink: sink}
}

// Notify writes one notification per resolved recipient. Recipients are not
// deduplicated. A failure to resolve recipients or to write one row is
// logged and never returned, so the triggering action always proceeds; each
// row is written under its own savepoint so a failed insert does not poison
// the caller's transaction.
func (n *Notifier) Notify(db *database.Database, ev Event) []Delivery {
	recipients, err := n.recipients(db, ev)
	if err != nil {
		log.Printf("Failed to resolve recipients for %s: %v", ev.Kind, err)
		return nil
	}
	if len(recipients) == 0 {
		return nil
	}

	users, err := db.GetUsersByIDs(recipients)
	if err != nil {
		log.Printf("Failed to load recipients for %s: %v", ev.Kind, err)
		return nil
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		if u.IsActive && !u.IsArchived {
			byID[u.ID] = u
		}
	}

	var deliveries []Delivery
	for _, id := range recipients {
		user, ok := byID[id]
		if !ok {
			log.Printf("Skipping notification %s for missing or inactive user %d", ev.Kind, id)
			continue
		}
		notification := models.Notification{
			UserID:  id,
			Type:    notificationType(ev.Kind),
			Title:   ev.Title,
			Message: ev.Message,
		}
		if ev.Link != nil {
			notification.Link = ev.Link(user.Role)
		}
		err := db.InTx(func(tx *database.Database) error {
			return tx.CreateNotification(&notification)
		})
		if err != nil {
			log.Printf("Failed to notify user %d of %s: %v", id, ev.Kind, err)
			continue
		}
		deliveries = append(deliveries, Delivery{Notification: notification, Email: user.Email})
	}
	return deliveries
}

// Dispatch emails delivered notifications. Call it after commit.
func (n *Notifier) Dispatch(deliveries []Delivery) {
	if n.sink == nil {
		return
	}
	for _, d := range deliveries {
		n.sink.Enqueue(d.Email, d.Notification.Title, renderEmail(d.Notification))
	}
}

func (n *Notifier) recipients(db *database.Database, ev Event) ([]uint, error) {
	switch ev.Kind {
	case EventProjectStatusChanged:
		if ev.Archival {
			return nil, nil
		}
		project, err := db.GetProjectIncludingArchived(ev.ProjectID)
		if err != nil {
			return nil, err
		}
		return []uint{project.ClientID}, nil

	case EventTaskStatusChanged:
		task, err := db.GetTaskIncludingArchived(ev.TaskID)
		if err != nil {
			return nil, err
		}
		assignees, err := db.GetAssigneeIDs(task.ID)
		if err != nil {
			return nil, err
		}
		if !ev.Archival {
			return assignees, nil
		}
		project, err := db.GetProjectIncludingArchived(task.ProjectID)
		if err != nil {
			return nil, err
		}
		out := assignees[:0:0]
		for _, id := range assignees {
			if id != project.ClientID {
				out = append(out, id)
			}
		}
		return out, nil

	case EventTaskStatusChangedFor:
		if ev.RecipientID == 0 {
			return nil, nil
		}
		return []uint{ev.RecipientID}, nil

	case EventTaskApproved:
		task, err := db.GetTaskIncludingArchived(ev.TaskID)
		if err != nil {
			return nil, err
		}
		project, err := db.GetProjectIncludingArchived(task.ProjectID)
		if err != nil {
			return nil, err
		}
		var out []uint
		if task.CreatedBy != 0 {
			out = append(out, task.CreatedBy)
		}
		if project.ProjectManagerID != nil {
			out = append(out, *project.ProjectManagerID)
		}
		return out, nil

	case EventTicketCreated:
		ticket, err := db.GetTicket(ev.TicketID)
		if err != nil {
			return nil, err
		}
		var out []uint
		if ticket.AssignedToID != nil {
			out = append(out, *ticket.AssignedToID)
		}
		if ticket.ProjectID != nil {
			project, err := db.GetProjectIncludingArchived(*ticket.ProjectID)
			if err != nil {
				return nil, err
			}
			if project.ProjectManagerID != nil {
				out = append(out, *project.ProjectManagerID)
			}
		}
		admins, err := db.ListUserIDsByRole(models.RoleAdmin)
		if err != nil {
			return nil, err
		}
		return append(out, admins...), nil

	case EventTicketCommented:
		ticket, err := db.GetTicket(ev.TicketID)
		if err != nil {
			return nil, err
		}
		if ev.ActorRole == models.RoleAdmin {
			return []uint{ticket.CreatedByID}, nil
		}
		if ticket.AssignedToID != nil && *ticket.AssignedToID != ev.ActorID {
			return []uint{*ticket.AssignedToID}, nil
		}
		return nil, nil

	case EventTicketStatusChanged:
		ticket, err := db.GetTicket(ev.TicketID)
		if err != nil {
			return nil, err
		}
		return []uint{ticket.CreatedByID}, nil

	case EventTicketReassigned:
		ticket, err := db.GetTicket(ev.TicketID)
		if err != nil {
			return nil, err
		}
		if ticket.AssignedToID == nil {
			return nil, nil
		}
		return []uint{*ticket.AssignedToID}, nil
	}
	return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
}

func notificationType(kind EventKind) models.NotificationType {
	switch kind {
	case EventProjectStatusChanged:
		return models.NotificationProjectStatus
	case EventTicketCreated:
		return models.NotificationTicketCreated
	case EventTicketCommented:
		return models.NotificationTicketComment
	case EventTicketStatusChanged:
		return models.NotificationTicketStatus
	case EventTicketReassigned:
		return models.NotificationTicketAssign
	default:
		return models.NotificationTaskStatus
	}
}

func renderEmail(n models.Notification) string {
	body := fmt.Sprintf("<p>%s</p>", html.EscapeString(n.Message))
	if n.Link != "" {
		body += fmt.Sprintf(`<p><a href="%s">Open</a></p>`, html.EscapeString(n.Link))
	}
	return body
}
