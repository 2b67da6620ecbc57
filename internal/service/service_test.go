package service

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/headless-pm/taskflow/internal/database"
	"github.com/headless-pm/taskflow/internal/models"
	"github.com/headless-pm/taskflow/internal/storage"
	"github.com/stretchr/testify/require"
)

type sentEmail struct {
	To, Subject string
}

type recordingSink struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (r *recordingSink) Enqueue(to, subject, html string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentEmail{To: to, Subject: subject})
}

func (r *recordingSink) Sent() []sentEmail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentEmail(nil), r.sent...)
}

type fixture struct {
	db            *database.Database
	sink          *recordingSink
	notifier      *Notifier
	tasks         *TaskService
	projects      *ProjectService
	tickets       *TicketService
	messages      *MessagingService
	notifications *NotificationService

	admin   *models.User
	client  *models.User
	pm      *models.User
	emp     *models.User
	emp2    *models.User
	project *models.Project
}

func day(n int) time.Time {
	return time.Date(2026, 3, n, 0, 0, 0, 0, time.UTC)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewDatabase(t.TempDir())
	require.NoError(t, err)
	files, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	f := &fixture{db: db, sink: &recordingSink{}}
	f.notifier = NewNotifier(f.sink)
	f.tasks = NewTaskService(db, files, f.notifier, models.TaskStatusForReview)
	f.projects = NewProjectService(db, f.notifier)
	f.tickets = NewTicketService(db, files, f.notifier)
	f.messages = NewMessagingService(db)
	f.notifications = NewNotificationService(db)
	f.setClock(day(1))

	f.admin = f.user(t, "admin", models.RoleAdmin)
	f.client = f.user(t, "client", models.RoleClient)
	f.pm = f.user(t, "pm", models.RoleProjectManager)
	f.emp = f.user(t, "emp", models.RoleEmployee)
	f.emp2 = f.user(t, "emp2", models.RoleEmployee)

	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	f.project, err = f.projects.Create(f.admin, ProjectInput{
		Name:             "Website",
		ClientID:         f.client.ID,
		ProjectManagerID: &f.pm.ID,
		StartDate:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          &end,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) setClock(now time.Time) {
	clock := func() time.Time { return now }
	f.tasks.now = clock
	f.projects.now = clock
	f.tickets.now = clock
	f.messages.now = clock
	f.notifications.now = clock
}

func (f *fixture) user(t *testing.T, name string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Email:    name + "@example.com",
		Username: name,
		Password: "x",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, f.db.CreateUser(user))
	return user
}

func (f *fixture) task(t *testing.T, title string, start, due time.Time, assignees ...uint) *models.Task {
	t.Helper()
	detail, err := f.tasks.Create(f.admin, TaskInput{
		ProjectID:   f.project.ID,
		Title:       title,
		StartDate:   start,
		DueDate:     due,
		AssigneeIDs: assignees,
	})
	require.NoError(t, err)
	return &detail.Task
}

// titled returns the user's notifications with the given title.
func (f *fixture) titled(t *testing.T, userID uint, title string) []models.Notification {
	t.Helper()
	all, err := f.db.ListNotifications(userID, false, 100)
	require.NoError(t, err)
	var out []models.Notification
	for _, n := range all {
		if n.Title == title {
			out = append(out, n)
		}
	}
	return out
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
