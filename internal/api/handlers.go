package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/headless-pm/taskflow/internal/auth"
	"github.com/headless-pm/taskflow/internal/models"
	"github.com/headless-pm/taskflow/internal/service"
	tokens "github.com/headless-pm/taskflow/pkg/auth"
)

type Services struct {
	Projects      *service.ProjectService
	Tasks         *service.TaskService
	Tickets       *service.TicketService
	Messages      *service.MessagingService
	Notifications *service.NotificationService
	Users         *service.UserService
}

type Handler struct {
	projects      *service.ProjectService
	tasks         *service.TaskService
	tickets       *service.TicketService
	messages      *service.MessagingService
	notifications *service.NotificationService
	users         *service.UserService
	tokens        *tokens.TokenManager
}

func NewHandler(s Services, tokenManager *tokens.TokenManager) *Handler {
	return &Handler{
		projects:      s.Projects,
		tasks:         s.Tasks,
		tickets:       s.Tickets,
		messages:      s.Messages,
		notifications: s.Notifications,
		users:         s.Users,
		tokens:        tokenManager,
	}
}

func (h *Handler) CreateProject(c *gin.Context) {
	var input service.ProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projects.Create(auth.CurrentUser(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.projects.List(auth.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) GetProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.projects.Get(auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) UpdateProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input service.ProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projects.Update(auth.CurrentUser(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) UpdateProjectStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status models.ProjectStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projects.UpdateStatus(auth.CurrentUser(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) ArchiveProject(c *gin.Context) {
	h.setProjectArchived(c, true)
}

func (h *Handler) UnarchiveProject(c *gin.Context) {
	h.setProjectArchived(c, false)
}

func (h *Handler) setProjectArchived(c *gin.Context, archived bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor := auth.CurrentUser(c)
	var (
		project *models.Project
		err     error
	)
	if archived {
		project, err = h.projects.Archive(actor, id)
	} else {
		project, err = h.projects.Unarchive(actor, id)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.projects.Delete(auth.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetProjectStats(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	stats, err := h.projects.Stats(auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) AddTeamMember(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		UserID uint `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.projects.AddTeamMember(auth.CurrentUser(c), id, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) RemoveTeamMember(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}
	if err := h.projects.RemoveTeamMember(auth.CurrentUser(c), id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListProjectTasks(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	tasks, err := h.tasks.ListForProject(auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}
