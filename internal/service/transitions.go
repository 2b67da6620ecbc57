package service

import "github.com/headless-pm/taskflow/internal/models"

// manualTransitions lists the moves an approver may make directly with
// ChangeStatus. Proof submission, approval and disapproval have their own
// operations, and Completed is only reachable through approval.
var manualTransitions = map[models.TaskStatus][]models.TaskStatus{
	models.TaskStatusNotStarted:      {models.TaskStatusInProgress},
	models.TaskStatusInProgress:      {models.TaskStatusNotStarted},
	models.TaskStatusForReview:       {models.TaskStatusPendingApproval},
	models.TaskStatusPendingApproval: {models.TaskStatusForReview},
}

func canTransition(from, to models.TaskStatus) bool {
	for _, next := range manualTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// canSubmitFrom reports whether proof may be (re)submitted for a task in
// the given status.
func canSubmitFrom(status models.TaskStatus) bool {
	return status != models.TaskStatusCompleted
}
