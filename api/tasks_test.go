package main

import (
	"testing"
	"time"
)

func TestValidTransition(t *testing.T) {
	statuses := []string{statusPending, statusInProgress, statusCompleted}

	// Every pair of distinct statuses is reachable in both directions,
	// and a same-value change is always allowed.
	for _, from := range statuses {
		for _, to := range statuses {
			if !validTransition(from, to) {
				t.Errorf("validTransition(%q, %q) = false, want true", from, to)
			}
		}
	}

	if validTransition(statusPending, "done") {
		t.Error("transition to unknown status should not be allowed")
	}
	if validTransition("done", statusPending) {
		t.Error("transition from unknown status should not be allowed")
	}
}

func TestApplyStatusCompletedAt(t *testing.T) {
	now := time.Now()
	created := now.Add(-time.Hour)
	tk := &task{Status: statusPending, CreatedAt: created}

	tk.applyStatus(statusCompleted, now)
	if tk.Status != statusCompleted {
		t.Fatalf("status = %q, want %q", tk.Status, statusCompleted)
	}
	if tk.CompletedAt == nil {
		t.Fatal("completed_at not set on transition into completed")
	}
	if tk.CompletedAt.Before(tk.CreatedAt) {
		t.Error("completed_at is before created_at")
	}

	later := now.Add(time.Minute)
	tk.applyStatus(statusPending, later)
	if tk.Status != statusPending {
		t.Fatalf("status = %q, want %q", tk.Status, statusPending)
	}
	if tk.CompletedAt != nil {
		t.Error("completed_at not cleared on transition out of completed")
	}
}

func TestApplyStatusBetweenOpenStates(t *testing.T) {
	now := time.Now()
	tk := &task{Status: statusPending}
	tk.applyStatus(statusInProgress, now)
	if tk.CompletedAt != nil {
		t.Error("completed_at set on a transition that never touched completed")
	}
}

func TestApplyPatch(t *testing.T) {
	now := time.Now()
	desc := "old description"
	tk := &task{
		Status:      statusPending,
		Title:       "Old title",
		Description: &desc,
		UpdatedAt:   now.Add(-time.Hour),
	}

	newTitle := "New title"
	newStatus := statusInProgress
	tk.applyPatch(taskPatch{title: &newTitle, status: &newStatus}, now)
	if tk.Title != "New title" {
		t.Errorf("title = %q, want %q", tk.Title, "New title")
	}
	if tk.Status != statusInProgress {
		t.Errorf("status = %q, want %q", tk.Status, statusInProgress)
	}
	if tk.Description == nil || *tk.Description != "old description" {
		t.Error("description changed by a patch that didn't touch it")
	}
	if !tk.UpdatedAt.Equal(now) {
		t.Error("updated_at not refreshed")
	}

	// descriptionSet with a nil value clears the description.
	tk.applyPatch(taskPatch{descriptionSet: true}, now.Add(time.Minute))
	if tk.Description != nil {
		t.Error("description not cleared")
	}

	// An empty patch still refreshes updated_at.
	later := now.Add(2 * time.Minute)
	tk.applyPatch(taskPatch{}, later)
	if !tk.UpdatedAt.Equal(later) {
		t.Error("updated_at not refreshed by an empty patch")
	}
	if tk.Title != "New title" || tk.Status != statusInProgress {
		t.Error("empty patch changed other fields")
	}
}

func TestCheckCompletedRestriction(t *testing.T) {
	title := "New title"
	desc := "new description"
	status := statusPending

	completed := &task{Status: statusCompleted}
	open := &task{Status: statusInProgress}

	tests := []struct {
		name    string
		task    *task
		patch   taskPatch
		wantErr bool
	}{
		{"completed task title change", completed, taskPatch{title: &title}, true},
		{"completed task status change", completed, taskPatch{status: &status}, true},
		{"completed task description change", completed, taskPatch{description: &desc, descriptionSet: true}, false},
		{"completed task description clear", completed, taskPatch{descriptionSet: true}, false},
		{"open task title change", open, taskPatch{title: &title}, false},
		{"open task status change", open, taskPatch{status: &status}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkCompletedRestriction(tt.task, tt.patch)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkCompletedRestriction: err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		completed int
		total     int
		want      float64
	}{
		{0, 0, 0},
		{0, 10, 0},
		{10, 10, 100},
		{1, 2, 50},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{1, 8, 12.5},
		{7, 9, 77.78},
	}
	for _, tt := range tests {
		got := completionRate(tt.completed, tt.total)
		if got != tt.want {
			t.Errorf("completionRate(%d, %d) = %v, want %v", tt.completed, tt.total, got, tt.want)
		}
	}
}

