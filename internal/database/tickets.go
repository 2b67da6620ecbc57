package database

import (
	"github.com/headless-pm/taskflow/internal/models"
)

type TicketFilter struct {
	CreatedByID  *uint
	AssignedToID *uint
	// ManagerID keeps tickets linked to projects managed by this user.
	ManagerID *uint
	Status    *models.TicketStatus
}

func (db *Database) CreateTicket(ticket *models.Ticket) error {
	return db.Create(ticket).Error
}

func (db *Database) GetTicket(id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := db.First(&ticket, id).Error; err != nil {
		return nil, notFound(err, "ticket", id)
	}
	return &ticket, nil
}

func (db *Database) ListTickets(filter TicketFilter) ([]models.Ticket, error) {
	var tickets []models.Ticket
	query := db.DB.Model(&models.Ticket{})
	if filter.CreatedByID != nil {
		query = query.Where("created_by_id = ?", *filter.CreatedByID)
	}
	if filter.AssignedToID != nil {
		query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	if filter.ManagerID != nil {
		query = query.Where("project_id IN (?)",
			db.DB.Model(&models.Project{}).Select("id").Where("project_manager_id = ?", *filter.ManagerID))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	err := query.Order("created_at DESC, id DESC").Find(&tickets).Error
	return tickets, err
}

func (db *Database) UpdateTicket(ticket *models.Ticket) error {
	return db.Save(ticket).Error
}

func (db *Database) AddTicketComment(comment *models.TicketComment) error {
	return db.Create(comment).Error
}

func (db *Database) ListTicketComments(ticketID uint) ([]models.TicketComment, error) {
	var comments []models.TicketComment
	err := db.Where("ticket_id = ?", ticketID).Order("created_at, id").Find(&comments).Error
	return comments, err
}

func (db *Database) AddTicketAttachment(attachment *models.TicketAttachment) error {
	return db.Create(attachment).Error
}

func (db *Database) ListTicketAttachments(ticketID uint) ([]models.TicketAttachment, error) {
	var attachments []models.TicketAttachment
	err := db.Where("ticket_id = ?", ticketID).Order("uploaded_at, id").Find(&attachments).Error
	return attachments, err
}

func (db *Database) GetTicketAttachment(id uint) (*models.TicketAttachment, error) {
	var attachment models.TicketAttachment
	if err := db.First(&attachment, id).Error; err != nil {
		return nil, notFound(err, "attachment", id)
	}
	return &attachment, nil
}
