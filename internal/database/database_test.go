package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/headless-pm/taskflow/internal/apperr"
	"github.com/headless-pm/taskflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Database {
	// Create a temporary database for testing
	db, err := NewDatabase(t.TempDir())
	require.NoError(t, err)
	return db
}

func createUser(t *testing.T, db *Database, name string, role models.Role) *models.User {
	user := &models.User{
		Email:    name + "@example.com",
		Username: name,
		Password: "x",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.CreateUser(user))
	return user
}

func createProject(t *testing.T, db *Database, client, manager *models.User) *models.Project {
	project := &models.Project{
		Name:             "Website",
		ClientID:         client.ID,
		ProjectManagerID: &manager.ID,
		StartDate:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.CreateProject(project))
	return project
}

func createTask(t *testing.T, db *Database, projectID uint, title string) *models.Task {
	task := &models.Task{
		ProjectID: projectID,
		Title:     title,
		Status:    models.TaskStatusNotStarted,
		Priority:  models.TaskPriorityMedium,
		StartDate: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.CreateTask(task))
	return task
}

func TestTaskAssignments(t *testing.T) {
	db := setupTestDB(t)
	client := createUser(t, db, "client", models.RoleClient)
	manager := createUser(t, db, "manager", models.RoleProjectManager)
	project := createProject(t, db, client, manager)
	task := createTask(t, db, project.ID, "Design")

	var employees []*models.User
	for i := 1; i <= 3; i++ {
		employees = append(employees, createUser(t, db, fmt.Sprintf("emp%d", i), models.RoleEmployee))
	}

	t.Run("ReplaceInsertsSet", func(t *testing.T) {
		err := db.ReplaceTaskAssignments(task.ID, []uint{employees[0].ID, employees[1].ID}, time.Now())
		require.NoError(t, err)

		ids, err := db.GetAssigneeIDs(task.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{employees[0].ID, employees[1].ID}, ids)
	})

	t.Run("ReplaceLeavesNoOrphans", func(t *testing.T) {
		err := db.ReplaceTaskAssignments(task.ID, []uint{employees[2].ID}, time.Now())
		require.NoError(t, err)

		assignments, err := db.ListTaskAssignments(task.ID)
		require.NoError(t, err)
		require.Len(t, assignments, 1)
		assert.Equal(t, employees[2].ID, assignments[0].EmployeeID)
	})

	t.Run("ReplaceWithEmptySet", func(t *testing.T) {
		require.NoError(t, db.ReplaceTaskAssignments(task.ID, nil, time.Now()))
		ids, err := db.GetAssigneeIDs(task.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("ListTasksForAssignee", func(t *testing.T) {
		require.NoError(t, db.ReplaceTaskAssignments(task.ID, []uint{employees[0].ID}, time.Now()))
		tasks, err := db.ListTasksForAssignee(employees[0].ID)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, task.ID, tasks[0].ID)
	})
}

func TestTeamMembership(t *testing.T) {
	db := setupTestDB(t)
	client := createUser(t, db, "client", models.RoleClient)
	manager := createUser(t, db, "manager", models.RoleProjectManager)
	employee := createUser(t, db, "emp", models.RoleEmployee)
	project := createProject(t, db, client, manager)

	created, err := db.AddTeamMember(project.ID, employee.ID, "", time.Now())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = db.AddTeamMember(project.ID, employee.ID, "Lead", time.Now())
	require.NoError(t, err)
	assert.False(t, created, "existing membership is kept")

	team, err := db.ListTeam(project.ID)
	require.NoError(t, err)
	require.Len(t, team, 1)
	assert.Equal(t, models.TeamRoleMember, team[0].Role)

	isMember, err := db.IsTeamMember(project.ID, employee.ID)
	require.NoError(t, err)
	assert.True(t, isMember)

	projects, err := db.ListProjects(ProjectFilter{MemberID: &employee.ID})
	require.NoError(t, err)
	require.Len(t, projects, 1)

	require.NoError(t, db.RemoveTeamMember(project.ID, employee.ID))
	ids, err := db.GetTeamMemberIDs(project.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestActiveScopeHidesArchivedRows(t *testing.T) {
	db := setupTestDB(t)
	client := createUser(t, db, "client", models.RoleClient)
	manager := createUser(t, db, "manager", models.RoleProjectManager)
	project := createProject(t, db, client, manager)
	kept := createTask(t, db, project.ID, "Kept")
	archived := createTask(t, db, project.ID, "Archived")

	archived.IsArchived = true
	require.NoError(t, db.UpdateTask(archived))

	_, err := db.GetTask(archived.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := db.GetTaskIncludingArchived(archived.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived)

	tasks, err := db.ListProjectTasks(project.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, kept.ID, tasks[0].ID)

	project.IsArchived = true
	require.NoError(t, db.UpdateProject(project))

	projects, err := db.ListProjects(ProjectFilter{ClientID: &client.ID})
	require.NoError(t, err)
	assert.Empty(t, projects)

	projects, err = db.ListProjects(ProjectFilter{ClientID: &client.ID, IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestDeleteProjectCascades(t *testing.T) {
	db := setupTestDB(t)
	client := createUser(t, db, "client", models.RoleClient)
	manager := createUser(t, db, "manager", models.RoleProjectManager)
	employee := createUser(t, db, "emp", models.RoleEmployee)
	project := createProject(t, db, client, manager)
	task := createTask(t, db, project.ID, "Build")

	_, err := db.AddTeamMember(project.ID, employee.ID, "", time.Now())
	require.NoError(t, err)
	require.NoError(t, db.ReplaceTaskAssignments(task.ID, []uint{employee.ID}, time.Now()))
	require.NoError(t, db.AddTaskComment(&models.TaskComment{TaskID: task.ID, UserID: employee.ID, Content: "done soon"}))
	require.NoError(t, db.LogTaskCreated(task.ID, manager.ID))

	ticket := &models.Ticket{Title: "Bug", ProjectID: &project.ID, CreatedByID: client.ID, Status: models.TicketStatusOpen}
	require.NoError(t, db.CreateTicket(ticket))

	require.NoError(t, db.DeleteProject(project.ID))

	_, err = db.GetTaskIncludingArchived(task.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	var count int64
	db.Model(&models.TaskAssignment{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.TaskComment{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.ProjectTeam{}).Count(&count)
	assert.Zero(t, count)

	got, err := db.GetTicket(ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ProjectID)

	_, err = db.GetUserByID(employee.ID)
	assert.NoError(t, err, "users are never cascaded")

	assert.ErrorIs(t, db.DeleteProject(project.ID), apperr.ErrNotFound)
}

func TestInTxRollsBack(t *testing.T) {
	db := setupTestDB(t)
	client := createUser(t, db, "client", models.RoleClient)
	manager := createUser(t, db, "manager", models.RoleProjectManager)

	err := db.InTx(func(tx *Database) error {
		createProject(t, tx, client, manager)
		return fmt.Errorf("boom")
	})
	require.Error(t, err)

	projects, err := db.ListProjects(ProjectFilter{IncludeArchived: true})
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestNotificationsAndMessages(t *testing.T) {
	db := setupTestDB(t)
	a := createUser(t, db, "alice", models.RoleClient)
	b := createUser(t, db, "bob", models.RoleProjectManager)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.CreateNotification(&models.Notification{
			UserID: a.ID, Type: models.NotificationProjectStatus, Title: fmt.Sprintf("n%d", i),
		}))
	}

	count, err := db.CountUnreadNotifications(a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	list, err := db.ListNotifications(a.ID, true, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	found, err := db.MarkNotificationRead(list[0].ID, b.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, found, "cannot mark another user's notification")

	found, err = db.MarkNotificationRead(list[0].ID, a.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, found)

	n, err := db.MarkAllNotificationsRead(a.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, db.CreateMessage(&models.Message{SenderID: a.ID, ReceiverID: b.ID, Content: "hi"}))
	require.NoError(t, db.CreateMessage(&models.Message{SenderID: b.ID, ReceiverID: a.ID, Content: "hello"}))

	conversation, err := db.ListConversation(a.ID, b.ID, nil)
	require.NoError(t, err)
	assert.Len(t, conversation, 2)

	inbox, err := db.ListInbox(b.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "hi", inbox[0].Content)
}
