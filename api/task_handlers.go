package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"
)

const taskPageSize = 20

func (app *application) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	var input struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
	}
	err := readJSON(w, r, &input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	v := newValidator()
	title := v.checkTitle(input.Title)
	var description *string
	if input.Description != nil {
		description = v.checkDescription(*input.Description, false)
	}
	status := statusPending
	if input.Status != nil {
		v.checkStatus(*input.Status, true)
		status = *input.Status
	}
	if !v.hasErrors() {
		taken, err := app.storage.userHasTaskTitled(u.ID, title, 0)
		if err != nil {
			writeServerError(w, err)
			return
		}
		v.checkCond(!taken, "title", "you already have a task with this title")
	}
	if v.hasErrors() {
		writeValidationErrors(w, v)
		return
	}

	t := &task{
		UserID:      u.ID,
		Title:       title,
		Description: description,
		Status:      status,
	}
	err = app.storage.insertTask(t)
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "you already have a task with this title")
			return
		}
		writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (app *application) listTasksHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = n
	}
	tasks, total, err := app.storage.getTasksForUser(u.ID, "", taskPageSize, (page-1)*taskPageSize)
	if err != nil {
		writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": total,
		"page":  page,
		"tasks": tasks,
	})
}

func (app *application) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	t, ok := app.fetchTask(w, r, u)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (app *application) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	t, ok := app.fetchTask(w, r, u)
	if !ok {
		return
	}
	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
	}
	err := readJSON(w, r, &input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	v := newValidator()
	if r.Method == http.MethodPut {
		v.checkCond(input.Title != nil, "title", "must be provided")
	}
	var patch taskPatch
	if input.Title != nil {
		title := v.checkTitle(*input.Title)
		patch.title = &title
	}
	if input.Description != nil {
		patch.description = v.checkDescription(*input.Description, false)
		patch.descriptionSet = true
	}
	if input.Status != nil {
		v.checkStatus(*input.Status, false)
		patch.status = input.Status
	}
	if patch.title != nil && !v.hasErrors() {
		taken, err := app.storage.userHasTaskTitled(u.ID, *patch.title, t.ID)
		if err != nil {
			writeServerError(w, err)
			return
		}
		v.checkCond(!taken, "title", "you already have a task with this title")
	}
	if v.hasErrors() {
		writeValidationErrors(w, v)
		return
	}

	err = checkCompletedRestriction(t, patch)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	if patch.status != nil && !validTransition(t.Status, *patch.status) {
		writeError(w, http.StatusBadRequest, "cannot change status from "+t.Status+" to "+*patch.status)
		return
	}
	t.applyPatch(patch, time.Now())
	app.persistTask(w, t)
}

func (app *application) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	id, ok := taskIDFromRequest(w, r)
	if !ok {
		return
	}
	deleted, err := app.storage.deleteTaskForUser(id, u.ID)
	if err != nil {
		writeServerError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "task deleted successfully"})
}

func (app *application) markTaskCompletedHandler(w http.ResponseWriter, r *http.Request) {
	app.changeStatus(w, r, statusCompleted)
}

func (app *application) changeTaskStatusHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status string `json:"status"`
	}
	err := readJSON(w, r, &input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	app.changeStatus(w, r, input.Status)
}

// changeStatus is the status-only update path. Unlike the generic
// update it may reopen a completed task, subject to the transition
// table.
func (app *application) changeStatus(w http.ResponseWriter, r *http.Request, newStatus string) {
	u := getUserFromRequest(r)
	t, ok := app.fetchTask(w, r, u)
	if !ok {
		return
	}
	v := newValidator()
	v.checkCond(newStatus != "", "status", "must be provided")
	if newStatus != "" {
		v.checkStatus(newStatus, false)
	}
	if v.hasErrors() {
		writeValidationErrors(w, v)
		return
	}
	if !validTransition(t.Status, newStatus) {
		writeError(w, http.StatusBadRequest, "cannot change status from "+t.Status+" to "+newStatus)
		return
	}
	if t.Status == newStatus {
		writeJSON(w, http.StatusOK, t)
		return
	}
	now := time.Now()
	t.applyStatus(newStatus, now)
	t.UpdatedAt = now
	app.persistTask(w, t)
}

func (app *application) tasksByStatusHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	status := r.URL.Query().Get("status")
	v := newValidator()
	v.checkCond(status != "", "status", "must be provided")
	if status != "" {
		v.checkStatus(status, false)
	}
	if v.hasErrors() {
		writeValidationErrors(w, v)
		return
	}
	tasks, _, err := app.storage.getTasksForUser(u.ID, status, 0, 0)
	if err != nil {
		writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (app *application) tasksCompletedTodayHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	tasks, err := app.storage.getTasksCompletedToday(u.ID)
	if err != nil {
		writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(tasks),
		"tasks": tasks,
	})
}

func (app *application) taskStatsHandler(w http.ResponseWriter, r *http.Request) {
	u := getUserFromRequest(r)
	stats, err := app.storage.getTaskStats(u.ID)
	if err != nil {
		writeServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func taskIDFromRequest(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		writeError(w, http.StatusNotFound, "task not found")
		return 0, false
	}
	return id, true
}

// fetchTask resolves {id} scoped to the owner. Missing tasks and other
// users' tasks both read as 404 so existence isn't leaked.
func (app *application) fetchTask(w http.ResponseWriter, r *http.Request, u *user) (*task, bool) {
	id, ok := taskIDFromRequest(w, r)
	if !ok {
		return nil, false
	}
	t, err := app.storage.getTaskForUser(id, u.ID)
	if err != nil {
		writeServerError(w, err)
		return nil, false
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return nil, false
	}
	return t, true
}

func (app *application) persistTask(w http.ResponseWriter, t *task) {
	err := app.storage.updateTask(t)
	if err != nil {
		switch {
		case errors.Is(err, errEditConflict):
			writeError(w, http.StatusConflict, err.Error())
		case isUniqueViolation(err):
			writeError(w, http.StatusConflict, "you already have a task with this title")
		default:
			writeServerError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, t)
}
