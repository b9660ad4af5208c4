package main

import (
	"errors"
	"math"
	"time"
)

// errCompletedTaskLocked guards completed tasks: everything except the
// description is read-only until the task is reopened via change_status.
var errCompletedTaskLocked = errors.New("completed tasks are read-only except for the description")

// statusTransitions is a flat bidirectional graph, not a pipeline:
// completed tasks may be reopened to either other state.
var statusTransitions = map[string][]string{
	statusPending:    {statusInProgress, statusCompleted},
	statusInProgress: {statusPending, statusCompleted},
	statusCompleted:  {statusPending, statusInProgress},
}

func isValidStatus(status string) bool {
	switch status {
	case statusPending, statusInProgress, statusCompleted:
		return true
	}
	return false
}

// validTransition reports whether current may change to next.
// A same-value change is always a no-op, never an error.
func validTransition(current, next string) bool {
	if current == next {
		return true
	}
	for _, s := range statusTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// taskPatch is a validated set of field changes assembled from an
// update request. Nil fields are left untouched; descriptionSet
// distinguishes "clear the description" from "don't change it".
type taskPatch struct {
	title          *string
	description    *string
	descriptionSet bool
	status         *string
}

// checkCompletedRestriction rejects any change besides the description
// while the task is completed. Reopening goes through change_status.
func checkCompletedRestriction(t *task, p taskPatch) error {
	if t.Status != statusCompleted {
		return nil
	}
	if p.title != nil || p.status != nil {
		return errCompletedTaskLocked
	}
	return nil
}

// applyStatus changes the status and keeps completed_at in sync:
// set on the transition into completed, cleared on the way out.
func (t *task) applyStatus(next string, now time.Time) {
	if t.Status != statusCompleted && next == statusCompleted {
		t.CompletedAt = &now
	} else if t.Status == statusCompleted && next != statusCompleted {
		t.CompletedAt = nil
	}
	t.Status = next
}

// applyPatch applies an already validated patch and refreshes
// updated_at, even when the patch changes nothing else. Transition and
// completed-task checks happen before this.
func (t *task) applyPatch(p taskPatch, now time.Time) {
	if p.title != nil {
		t.Title = *p.title
	}
	if p.descriptionSet {
		t.Description = p.description
	}
	if p.status != nil {
		t.applyStatus(*p.status, now)
	}
	t.UpdatedAt = now
}

// completionRate is completed/total as a percentage rounded to two
// decimals, 0 when there are no tasks.
func completionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*100*100) / 100
}
