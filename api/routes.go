package main

import (
	"net/http"
)

func composeRoutes(app *application) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/healthcheck", app.healthCheckHandler)

	mux.HandleFunc("POST /v1/auth/register", app.registerUserHandler)
	mux.HandleFunc("POST /v1/auth/login", app.loginUserHandler)
	mux.HandleFunc("POST /v1/auth/refresh", app.refreshTokenHandler)
	mux.HandleFunc("POST /v1/auth/change-password", app.requireAuth(app.changePasswordHandler))

	mux.HandleFunc("GET /v1/tasks", app.requireAuth(app.listTasksHandler))
	mux.HandleFunc("POST /v1/tasks", app.requireAuth(app.createTaskHandler))
	mux.HandleFunc("GET /v1/tasks/by_status", app.requireAuth(app.tasksByStatusHandler))
	mux.HandleFunc("GET /v1/tasks/completed_today", app.requireAuth(app.tasksCompletedTodayHandler))
	mux.HandleFunc("GET /v1/tasks/stats", app.requireAuth(app.taskStatsHandler))
	mux.HandleFunc("GET /v1/tasks/{id}", app.requireAuth(app.getTaskHandler))
	mux.HandleFunc("PUT /v1/tasks/{id}", app.requireAuth(app.updateTaskHandler))
	mux.HandleFunc("PATCH /v1/tasks/{id}", app.requireAuth(app.updateTaskHandler))
	mux.HandleFunc("DELETE /v1/tasks/{id}", app.requireAuth(app.deleteTaskHandler))
	mux.HandleFunc("PATCH /v1/tasks/{id}/mark_completed", app.requireAuth(app.markTaskCompletedHandler))
	mux.HandleFunc("PATCH /v1/tasks/{id}/change_status", app.requireAuth(app.changeTaskStatusHandler))

	var handler http.Handler = mux
	if len(app.config.cors.trustedOrigins) > 0 {
		handler = app.enableCORS(handler)
	}
	if app.config.limiter.enabled {
		handler = app.rateLimit(handler)
	}
	return handler
}
