package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/headless-pm/taskflow/internal/auth"
	"github.com/headless-pm/taskflow/internal/models"
)

// SetupRouter wires every route. authenticate must load the acting user
// into the context, see auth.Middleware.
func SetupRouter(handler *Handler, authenticate gin.HandlerFunc, corsOrigins []string) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(corsOrigins) == 0 || (len(corsOrigins) == 1 && corsOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = corsOrigins
	}
	corsConfig.AddAllowHeaders("Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "healthy",
		})
	})

	api := router.Group("/api")
	api.POST("/auth/login", handler.Login)

	authed := api.Group("", authenticate)
	{
		authed.GET("/me", handler.GetCurrentUser)

		users := authed.Group("/users", auth.RequireRole(models.RoleAdmin))
		{
			users.POST("", handler.CreateUser)
			users.GET("", handler.ListUsers)
			users.POST("/:id/archive", handler.ArchiveUser)
		}

		projects := authed.Group("/projects")
		{
			projects.POST("", handler.CreateProject)
			projects.GET("", handler.ListProjects)
			projects.GET("/:id", handler.GetProject)
			projects.PUT("/:id", handler.UpdateProject)
			projects.DELETE("/:id", handler.DeleteProject)
			projects.PUT("/:id/status", handler.UpdateProjectStatus)
			projects.POST("/:id/archive", handler.ArchiveProject)
			projects.POST("/:id/unarchive", handler.UnarchiveProject)
			projects.GET("/:id/stats", handler.GetProjectStats)
			projects.GET("/:id/tasks", handler.ListProjectTasks)
			projects.POST("/:id/team", handler.AddTeamMember)
			projects.DELETE("/:id/team/:userId", handler.RemoveTeamMember)
		}

		tasks := authed.Group("/tasks")
		{
			tasks.POST("", handler.CreateTask)
			tasks.GET("", handler.ListMyTasks)
			tasks.GET("/:id", handler.GetTask)
			tasks.PUT("/:id", handler.UpdateTask)
			tasks.DELETE("/:id", handler.DeleteTask)
			tasks.POST("/:id/start", handler.StartTask)
			tasks.POST("/:id/proof", handler.SubmitProof)
			tasks.GET("/:id/proof", handler.DownloadProof)
			tasks.POST("/:id/approve", handler.ApproveTask)
			tasks.POST("/:id/disapprove", handler.DisapproveTask)
			tasks.PUT("/:id/status", handler.UpdateTaskStatus)
			tasks.POST("/:id/comments", handler.AddTaskComment)
			tasks.POST("/:id/archive", handler.ArchiveTask)
			tasks.POST("/:id/unarchive", handler.UnarchiveTask)
		}

		tickets := authed.Group("/tickets")
		{
			tickets.POST("", handler.CreateTicket)
			tickets.GET("", handler.ListTickets)
			tickets.GET("/:id", handler.GetTicket)
			tickets.PUT("/:id/status", handler.UpdateTicketStatus)
			tickets.PUT("/:id/assign", handler.AssignTicket)
			tickets.POST("/:id/comments", handler.AddTicketComment)
			tickets.POST("/:id/attachments", handler.UploadTicketAttachment)
		}
		authed.GET("/attachments/:id", handler.DownloadAttachment)

		notifications := authed.Group("/notifications")
		{
			notifications.GET("", handler.GetNotifications)
			notifications.GET("/unread-count", handler.GetUnreadCount)
			notifications.POST("/:id/read", handler.MarkNotificationRead)
			notifications.PUT("/read-all", handler.MarkAllNotificationsRead)
		}

		messages := authed.Group("/messages")
		{
			messages.POST("", handler.SendMessage)
			messages.GET("", handler.GetInbox)
			messages.GET("/recipients", handler.GetRecipients)
			messages.GET("/with/:userId", handler.GetConversation)
			messages.GET("/shared/:userId", handler.GetSharedProjects)
			messages.POST("/:id/read", handler.MarkMessageRead)
		}
	}

	return router
}
