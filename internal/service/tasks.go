package service

import (
	"fmt"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/headless-pm/taskflow/internal/apperr"
	"github.com/headless-pm/taskflow/internal/database"
	"github.com/headless-pm/taskflow/internal/models"
	"github.com/headless-pm/taskflow/internal/policy"
	"github.com/headless-pm/taskflow/internal/storage"
	"github.com/headless-pm/taskflow/internal/timeline"
)

const dateLayout = "2006-01-02"

type TaskService struct {
	db           *database.Database
	files        *storage.FileStorage
	notifier     *Notifier
	reviewStatus models.TaskStatus
	now          func() time.Time
}

// NewTaskService builds the task lifecycle manager. reviewStatus is the
// status a task enters on proof submission and must be For Review or
// Pending Approval; anything else falls back to For Review.
func NewTaskService(db *database.Database, files *storage.FileStorage, notifier *Notifier, reviewStatus models.TaskStatus) *TaskService {
	if !reviewStatus.AwaitingApproval() {
		reviewStatus = models.TaskStatusForReview
	}
	return &TaskService{
		db:           db,
		files:        files,
		notifier:     notifier,
		reviewStatus: reviewStatus,
		now:          time.Now,
	}
}

type TaskInput struct {
	ProjectID   uint                `json:"project_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	StartDate   time.Time           `json:"start_date"`
	DueDate     time.Time           `json:"due_date"`
	Remarks     string              `json:"remarks"`
	AssigneeIDs []uint              `json:"assignee_ids"`
}

type TaskDetail struct {
	Task        models.Task          `json:"task"`
	AssigneeIDs []uint               `json:"assignee_ids"`
	Comments    []models.TaskComment `json:"comments,omitempty"`
	Activities  []models.Activity    `json:"activities,omitempty"`
}

// ApprovalResult carries the approved task and any sibling tasks whose
// dates were shifted because the approval came late.
type ApprovalResult struct {
	Task   models.Task      `json:"task"`
	Shifts []timeline.Shift `json:"shifts,omitempty"`
}

func (s *TaskService) Create(actor *models.User, in TaskInput) (*TaskDetail, error) {
	project, err := s.db.GetProject(in.ProjectID)
	if err != nil {
		return nil, err
	}
	res, err := projectResource(s.db, project)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ActionCreate, policy.TaskResource{Project: res}, "create tasks in this project"); err != nil {
		return nil, err
	}
	if err := s.validate(project, &in); err != nil {
		return nil, err
	}

	now := s.now()
	task := models.Task{
		ProjectID:   project.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      models.TaskStatusNotStarted,
		Priority:    in.Priority,
		StartDate:   in.StartDate,
		DueDate:     in.DueDate,
		Remarks:     in.Remarks,
		CreatedBy:   actor.ID,
	}

	var deliveries []Delivery
	err = s.db.InTx(func(tx *database.Database) error {
		if err := tx.CreateTask(&task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		if err := tx.LogTaskCreated(task.ID, actor.ID); err != nil {
			return err
		}
		if len(in.AssigneeIDs) == 0 {
			return nil
		}
		if err := s.assign(tx, &task, actor, nil, in.AssigneeIDs, now); err != nil {
			return err
		}
		deliveries = s.notifyAssigned(tx, &task, nil, in.AssigneeIDs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Dispatch(deliveries)

	log.Printf("Task %d created in project %d by user %d", task.ID, project.ID, actor.ID)
	return &TaskDetail{Task: task, AssigneeIDs: dedupe(in.AssigneeIDs)}, nil
}

// Edit replaces the task's fields and its full assignment set.
func (s *TaskService) Edit(actor *models.User, taskID uint, in TaskInput) (*TaskDetail, error) {
	task, err := s.db.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	res, project, err := taskResource(s.db, task)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ActionEdit, res, "edit this task"); err != nil {
		return nil, err
	}
	if project.IsArchived {
		return nil, apperr.NotFound("project", project.ID)
	}
	in.ProjectID = task.ProjectID
	if err := s.validate(project, &in); err != nil {
		return nil, err
	}

	now := s.now()
	task.Title = strings.TrimSpace(in.Title)
	task.Description = in.Description
	task.Priority = in.Priority
	task.StartDate = in.StartDate
	task.DueDate = in.DueDate
	task.Remarks = in.Remarks
	task.UpdatedAt = now

	var deliveries []Delivery
	err = s.db.InTx(func(tx *database.Database) error {
		if err := tx.UpdateTask(task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if err := s.assign(tx, task, actor, res.AssigneeIDs, in.AssigneeIDs, now); err != nil {
			return err
		}
		deliveries = s.notifyAssigned(tx, task, res.AssigneeIDs, in.AssigneeIDs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Dispatch(deliveries)
	return &TaskDetail{Task: *task, AssigneeIDs: dedupe(in.AssigneeIDs)}, nil
}

func (s *TaskService) validate(project *models.Project, in *TaskInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.Validation("title", "title is required", in.Title)
	}
	if in.Priority == "" {
		in.Priority = models.TaskPriorityMedium
	}
	if !in.Priority.Valid() {
		return apperr.Validation("priority", "priority must be Low, Medium or High", in.Priority)
	}
	if in.StartDate.IsZero() {
		return apperr.Validation("start_date", "start date is required", in.StartDate)
	}
	if in.DueDate.IsZero() {
		return apperr.Validation("due_date", "due date is required", in.DueDate)
	}
	if in.StartDate.Before(project.StartDate) {
		return apperr.Validation("start_date",
			"start date is before the project start "+project.StartDate.Format(dateLayout), in.StartDate)
	}
	if project.EndDate != nil && in.DueDate.After(*project.EndDate) {
		return apperr.Validation("due_date",
			"due date is after the project end "+project.EndDate.Format(dateLayout), in.DueDate)
	}
	if in.StartDate.After(in.DueDate) {
		return apperr.Validation("due_date", "due date is before the start date", in.DueDate)
	}
	for _, id := range in.AssigneeIDs {
		if _, err := requireRole(s.db, id, models.RoleEmployee, "assignee_ids"); err != nil {
			return err
		}
	}
	return nil
}

// assign enrolls every assignee into the project team and then replaces the
// task's assignment set.
func (s *TaskService) assign(tx *database.Database, task *models.Task, actor *models.User, previous, next []uint, now time.Time) error {
	next = dedupe(next)
	for _, id := range next {
		if _, err := tx.AddTeamMember(task.ProjectID, id, models.TeamRoleMember, now); err != nil {
			return fmt.Errorf("failed to enroll user %d in project %d: %w", id, task.ProjectID, err)
		}
	}
	if err := tx.ReplaceTaskAssignments(task.ID, next, now); err != nil {
		return fmt.Errorf("failed to assign task %d: %w", task.ID, err)
	}
	if slices.Equal(sorted(previous), sorted(next)) {
		return nil
	}
	return tx.LogTaskAssigned(task.ID, actor.ID, previous, next)
}

func (s *TaskService) notifyAssigned(tx *database.Database, task *models.Task, previous, next []uint) []Delivery {
	var deliveries []Delivery
	for _, id := range dedupe(next) {
		if slices.Contains(previous, id) {
			continue
		}
		deliveries = append(deliveries, s.notifier.Notify(tx, Event{
			Kind:        EventTaskStatusChangedFor,
			TaskID:      task.ID,
			RecipientID: id,
			Title:       "New task assigned",
			Message:     fmt.Sprintf("You have been assigned to %q", task.Title),
			Link:        taskLink(task.ID),
		})...)
	}
	return deliveries
}

// SubmitProof stores the proof file and moves the task into review.
func (s *TaskService) SubmitProof(actor *models.User, taskID uint, proof io.Reader, fileName string) (*models.Task, error) {
	task, err := s.db.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	res, project, err := taskResource(s.db, task)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ActionSubmitProof, res, "submit proof for this task"); err != nil {
		return nil, err
	}
	if proof == nil || strings.TrimSpace(fileName) == "" {
		return nil, apperr.InvalidInput("a proof file is required")
	}
	if !canSubmitFrom(task.Status) {
		return nil, apperr.InvalidTransition(string(task.Status), string(s.reviewStatus))
	}

	path, err := s.files.Write(proof, "proofs", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to store proof: %w", err)
	}

	now := s.now()
	oldStatus := task.Status
	oldProof := task.ProofFilePath
	task.ProofFilePath = &path
	task.Status = s.reviewStatus
	task.DisapprovalRemark = nil
	task.SubmittedByID = &actor.ID
	task.UpdatedAt = now

	var deliveries []Delivery
	err = s.db.InTx(func(tx *database.Database) error {
		if err := tx.UpdateTask(task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if err := tx.LogTaskStatusChanged(task.ID, actor.ID, oldStatus, task.Status); err != nil {
			return err
		}
		if project.ProjectManagerID != nil {
			deliveries = s.notifier.Notify(tx, Event{
				Kind:        EventTaskStatusChangedFor,
				TaskID:      task.ID,
				RecipientID: *project.ProjectManagerID,
				Title:       "Proof submitted",
				Message:     fmt.Sprintf("%s submitted proof for %q", actor.FullName(), task.Title),
				Link:        taskLink(task.ID),
			})
		}
		return nil
	})
	if err != nil {
		s.removeBlob(path)
		return nil, err
	}
	if oldProof != nil {
		s.removeBlob(*oldProof)
	}
	s.notifier.Dispatch(deliveries)

	log.Printf("Proof submitted for task %d by user %d", task.ID, actor.ID)
	return task, nil
}

// Start moves an assigned task from Not Started to In Progress.
func (s *TaskService) Start(actor *models.User, taskID uint) (*models.Task, error) {
	task, err := s.db.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	res, _, err := taskResource(s.db, task)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ActionStart, res, "start this task"); err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusNotStarted {
		return nil, apperr.InvalidTransition(string(task.Status), string(models.TaskStatusInProgress))
	}

	task.Status = models.TaskStatusInProgress
	task.UpdatedAt = s.now()
	err = s.db.InTx(func(tx *database.Database) error {
		if err := tx.UpdateTask(task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return tx.LogTaskStatusChanged(task.ID, actor.ID, models.TaskStatusNotStarted, task.Status)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Approve completes a task that is awaiting approval. When the approval
// lands after the due date the rest of the project's timeline is adjusted.
func (s *TaskService) Approve(actor *models.User, taskID uint) (*ApprovalResult, error) {
	task, err := s.db.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	res, _, err := taskResource(s.db, task)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ActionApprove, res, "approve this task"); err != nil {
		return nil, err
	}
	if !task.Status.AwaitingApproval() {
		return nil, apperr.InvalidTransition(string(task.Status), string(models.TaskStatusCompleted))
	}

	now := s.now()
	late := task.DueDate.Before(now)
	oldStatus := task.Status
	task.Status = models.TaskStatusCompleted
	task.IsConfirmed = true
	task.CompletedAt = &now
	task.UpdatedAt = now

	result := &ApprovalResult{}
	var deliveries []Delivery
	err = s.db.InTx(func(tx *database.Database) error {
		if err := tx.UpdateTask(task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if err := tx.LogTaskStatusChanged(task.ID, actor.ID, oldStatus, task.Status); err != nil {
			return err
		}
		deliveries = s.notifier.Notify(tx, Event{
			Kind:    EventTaskApproved,
			TaskID:  task.ID,
			Title:   "Task approved",
			Message: fmt.Sprintf("%q was approved by %s", task.Title, actor.FullName()),
			Link:    taskLink(task.ID),
		})
		if !late {
			return nil
		}
		shifts, err := s.adjustTimeline(tx, task.ProjectID, now)
		if err != nil {
			return err
		}
		result.Shifts = shifts
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Dispatch(deliveries)

	result.Task = *task
	log.Printf("Task %d approved by user %d (%d tasks rescheduled)", task.ID, actor.ID, len(result.Shifts))
	return result, nil
}

func (s *TaskService) adjustTimeline(tx *database.Database, projectID uint, now time.Time) ([]timeline.Shift, error) {
	tasks, err := tx.ListProjectTasks(projectID)
	if err != nil {
		return nil, err
	}
	_, shifts := timeline.Adjust(tasks, now)
	for _, shift := range shifts {
		if err := tx.UpdateTaskDates(shift.TaskID, shift.NewStartDate, shift.NewDueDate, now); err != nil {
			return nil, fmt.Errorf("failed to reschedule task %d: %w", shift.TaskID, err)
		}
		if err := tx.LogTaskRescheduled(shift.TaskID, shift.OldDueDate.Format(dateLayout), shift.NewDueDate.Format(dateLayout)); err != nil {
			return nil, err
		}
	}
	return shifts, nil
}

// Disapprove sends a task under review back to In Progress with a remark.
func (s *TaskService) Disapprove(actor *models.User, taskID uint, remark string) (*models.Task, error) {
	remark = strings.TrimSpace(remark)
	if remark == "" {
		return nil, apperr.Validation("disapproval_remark", "a remark is required", remark)
	}
	task, err := s.db.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	res, _, err := taskResource(s.db, task)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ActionApprove, res, "disapprove this task"); err != nil {
		return nil, err
	}
	if !task.Status.AwaitingApproval() {
		return nil, apperr.InvalidTransition(string(task.Status), string(models.TaskStatusInProgress))
	}

	now := s.now()
	oldStatus := task.Status
	oldProof := task.ProofFilePath
	task.Status = models.TaskStatusInProgress
	task.ProofFilePath = nil
	task.DisapprovalRemark = &remark
	task.DisapprovedAt = &now
	task.IsConfirmed = false
	task.UpdatedAt = now

	var deliveries []Delivery
	err = s.db.InTx(func(tx *database.Database) error {
		if err := tx.UpdateTask(task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if err := tx.LogActivity(task.ID, &actor.ID, "disapproved", "status", string(oldStatus), string(task.Status), remark); err != nil {
			return err
		}
		deliveries = s.notifier.Notify(tx, Event{
			Kind:    EventTaskStatusChanged,
			TaskID:  task.ID,
			Title:   "Task disapproved",
			Message: fmt.Sprintf("%q was sent back: %s", task.Title, remark),
			Link:    taskLink(task.ID),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if oldProof != nil {
		s.removeBlob(*oldProof)
	}
	s.notifier.Dispatch(deliveries)
	return task, nil
}

// ChangeStatus applies a manual status change from the transition table.
func (s *TaskService) ChangeStatus(actor *models.User, taskID uint, status models.TaskStatus) (*models.Task, error) {
	if !status.Valid() {
		return nil, apperr.Validation("status", "unknown task status", status)
	}
	task, err := s.db.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	res, _, err := taskResource(s.db, task)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ActionUpdateStatus, res, "change the status of this task"); err != nil {
		return nil, err
	}
	if !canTransition(task.Status, status) {
		return nil, apperr.InvalidTransition(string(task.Status), string(status))
	}

	oldStatus := task.Status
	task.Status = status
	task.UpdatedAt = s.now()

	var deliveries []Delivery
	err = s.db.InTx(func(tx *database.Database) error {
		if err := tx.UpdateTask(task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if err := tx.LogTaskStatusChanged(task.ID, actor.ID, oldStatus, status); err != nil {
			return err
		}
		deliveries = s.notifier.Notify(tx, Event{
			Kind:    EventTaskStatusChanged,
			TaskID:  task.ID,
			Title:   "Task status changed",
			Message: fmt.Sprintf("%q moved from %s to %s", task.Title, oldStatus, status),
			Link:    taskLink(task.ID),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Dispatch(deliveries)
	return task, nil
}

func (s *TaskService) AddComment(actor *models.User, taskID uint, content string) (*models.TaskComment, error) {
	task, err := s.db.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	res, _, err := taskResource(s.db, task)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ActionComment, res, "comment on this task"); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.InvalidInput("comment text is empty")
	}

	comment := &models.TaskComment{TaskID: task.ID, UserID: actor.ID, Content: content}
	if err := s.db.AddTaskComment(comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return comment, nil
}

func (s *TaskService) Archive(actor *models.User, taskID uint) (*models.Task, error) {
	return s.setArchived(actor, taskID, true)
}

func (s *TaskService) Unarchive(actor *models.User, taskID uint) (*models.Task, error) {
	return s.setArchived(actor, taskID, false)
}

func (s *TaskService) setArchived(actor *models.User, taskID uint, archived bool) (*models.Task, error) {
	task, err := s.db.GetTaskIncludingArchived(taskID)
	if err != nil {
		return nil, err
	}
	res, _, err := taskResource(s.db, task)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ActionArchive, res, "archive this task"); err != nil {
		return nil, err
	}
	if task.IsArchived == archived {
		return task, nil
	}

	task.IsArchived = archived
	task.UpdatedAt = s.now()
	verb := "archived"
	if !archived {
		verb = "restored"
	}

	var deliveries []Delivery
	err = s.db.InTx(func(tx *database.Database) error {
		if err := tx.UpdateTask(task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if err := tx.LogActivity(task.ID, &actor.ID, verb, "is_archived", fmt.Sprint(!archived), fmt.Sprint(archived), "Task "+verb); err != nil {
			return err
		}
		deliveries = s.notifier.Notify(tx, Event{
			Kind:     EventTaskStatusChanged,
			TaskID:   task.ID,
			Archival: true,
			Title:    "Task " + verb,
			Message:  fmt.Sprintf("%q was %s", task.Title, verb),
			Link:     taskLink(task.ID),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Dispatch(deliveries)
	return task, nil
}

func (s *TaskService) Delete(actor *models.User, taskID uint) error {
	task, err := s.db.GetTaskIncludingArchived(taskID)
	if err != nil {
		return err
	}
	res, _, err := taskResource(s.db, task)
	if err != nil {
		return err
	}
	if err := authorize(actor, policy.ActionDelete, res, "delete this task"); err != nil {
		return err
	}
	if err := s.db.DeleteTask(task.ID); err != nil {
		return err
	}
	if task.ProofFilePath != nil {
		s.removeBlob(*task.ProofFilePath)
	}
	log.Printf("Task %d deleted by user %d", task.ID, actor.ID)
	return nil
}

func (s *TaskService) Get(actor *models.User, taskID uint) (*TaskDetail, error) {
	task, err := s.db.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	res, _, err := taskResource(s.db, task)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, policy.ActionView, res, "view this task"); err != nil {
		return nil, err
	}
	comments, err := s.db.ListTaskComments(task.ID)
	if err != nil {
		return nil, err
	}
	activities, err := s.db.GetTaskActivities(task.ID)
	if err != nil {
		return nil, err
	}
	return &TaskDetail{Task: *task, AssigneeIDs: res.AssigneeIDs, Comments: comments, Activities: activities}, nil
}

// ListForProject returns the project's active tasks the actor may view.
func (s *TaskService) ListForProject(actor *models.User, projectID uint) ([]models.Task, error) {
	project, err := s.db.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	pres, err := projectResource(s.db, project)
	if err != nil {
		return nil, err
	}
	tasks, err := s.db.ListProjectTasks(projectID)
	if err != nil {
		return nil, err
	}
	visible := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		assignees, err := s.db.GetAssigneeIDs(task.ID)
		if err != nil {
			return nil, err
		}
		res := policy.TaskResource{Project: pres, AssigneeIDs: assignees}
		if policy.Can(policy.SubjectOf(actor), policy.ActionView, res) {
			visible = append(visible, task)
		}
	}
	return visible, nil
}

func (s *TaskService) ListAssigned(actor *models.User) ([]models.Task, error) {
	return s.db.ListTasksForAssignee(actor.ID)
}

// OpenProof returns a reader for the task's proof file. The caller closes it.
func (s *TaskService) OpenProof(actor *models.User, taskID uint) (io.ReadCloser, string, error) {
	task, err := s.db.GetTask(taskID)
	if err != nil {
		return nil, "", err
	}
	res, _, err := taskResource(s.db, task)
	if err != nil {
		return nil, "", err
	}
	if err := authorize(actor, policy.ActionView, res, "view this task"); err != nil {
		return nil, "", err
	}
	if task.ProofFilePath == nil {
		return nil, "", apperr.NotFound("proof for task", task.ID)
	}
	f, err := s.files.Open(*task.ProofFilePath)
	if err != nil {
		return nil, "", apperr.NotFound("proof for task", task.ID)
	}
	return f, *task.ProofFilePath, nil
}

func (s *TaskService) removeBlob(path string) {
	if err := s.files.Delete(path); err != nil {
		log.Printf("Failed to remove file %s: %v", path, err)
	}
}

func taskLink(taskID uint) func(models.Role) string {
	return func(role models.Role) string {
		switch role {
		case models.RoleClient:
			return fmt.Sprintf("/client/tasks/%d", taskID)
		case models.RoleEmployee:
			return fmt.Sprintf("/employee/tasks/%d", taskID)
		default:
			return fmt.Sprintf("/tasks/%d", taskID)
		}
	}
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func sorted(ids []uint) []uint {
	out := dedupe(ids)
	slices.Sort(out)
	return out
}
