package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

var errEditConflict = errors.New("unable to update the record due to an edit conflict, please try again")

func openDB(cfg config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.db.maxOpenConnections)
	db.SetMaxIdleConns(cfg.db.maxIdleConnections)
	db.SetConnMaxIdleTime(cfg.db.maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation. The unique indexes are the authoritative guard against the
// check-then-insert race on usernames, emails and per-user titles.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

type storage struct {
	db *sql.DB
}

func newStorage(db *sql.DB) (*storage, error) {
	s := &storage{db: db}
	err := s.createTables()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *storage) createTables() error {
	query := `CREATE TABLE IF NOT EXISTS users (
			  	id BIGSERIAL PRIMARY KEY,
			  	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			  	username TEXT UNIQUE NOT NULL,
			  	email TEXT UNIQUE NOT NULL,
			  	first_name TEXT NOT NULL DEFAULT '',
			  	last_name TEXT NOT NULL DEFAULT '',
			  	password_hash BYTEA NOT NULL,
			  	is_active BOOL NOT NULL DEFAULT true,
			  	version INT NOT NULL DEFAULT 1
			  );
			  CREATE TABLE IF NOT EXISTS tasks (
			  	id BIGSERIAL PRIMARY KEY,
			  	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			  	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			  	completed_at TIMESTAMPTZ,
			  	user_id BIGINT NOT NULL REFERENCES users ON DELETE CASCADE,
			  	title TEXT NOT NULL,
			  	description TEXT,
			  	status TEXT NOT NULL DEFAULT 'pending',
			  	version INT NOT NULL DEFAULT 1
			  );
			  CREATE UNIQUE INDEX IF NOT EXISTS tasks_user_title_idx ON tasks (user_id, lower(title));
			  CREATE INDEX IF NOT EXISTS tasks_user_status_idx ON tasks (user_id, status);
			  CREATE INDEX IF NOT EXISTS tasks_created_at_idx ON tasks (created_at);`

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *storage) getUserByID(id int) (*user, error) {
	query := `SELECT id, created_at, username, email, first_name, last_name, password_hash, is_active, version
			  FROM users
			  WHERE id = $1`
	return s.getUser(query, id)
}

func (s *storage) getUserByUsername(username string) (*user, error) {
	query := `SELECT id, created_at, username, email, first_name, last_name, password_hash, is_active, version
			  FROM users
			  WHERE username = $1`
	return s.getUser(query, username)
}

func (s *storage) getUserByEmail(email string) (*user, error) {
	query := `SELECT id, created_at, username, email, first_name, last_name, password_hash, is_active, version
			  FROM users
			  WHERE email = $1`
	return s.getUser(query, email)
}

func (s *storage) getUser(query string, arg any) (*user, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, arg)
	var u user
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.IsActive, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

func (s *storage) insertUser(u *user) error {
	query := `INSERT INTO users (username, email, first_name, last_name, password_hash, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id, created_at, version`

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.IsActive)
	return row.Scan(&u.ID, &u.CreatedAt, &u.Version)
}

func (s *storage) updateUser(u *user) error {
	query := `UPDATE users SET first_name = $1, last_name = $2, password_hash = $3, is_active = $4, version = version + 1
			  WHERE id = $5 AND version = $6
			  RETURNING version`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, u.FirstName, u.LastName, u.PasswordHash, u.IsActive, u.ID, u.Version)
	err := row.Scan(&u.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return errEditConflict
	}
	return err
}

func (s *storage) insertTask(t *task) error {
	query := `INSERT INTO tasks (user_id, title, description, status)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, created_at, updated_at, version`

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, t.UserID, t.Title, t.Description, t.Status)
	return row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.Version)
}

// getTaskForUser fetches a task scoped to its owner. Tasks of other
// users come back nil, indistinguishable from tasks that don't exist.
func (s *storage) getTaskForUser(id, userID int) (*task, error) {
	query := `SELECT id, created_at, updated_at, completed_at, user_id, title, description, status, version
			  FROM tasks
			  WHERE id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id, userID)
	var t task
	err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &t, nil
}

// updateTask persists every mutable field plus timestamps in a single
// version-guarded statement so a mutation appears atomic to readers.
func (s *storage) updateTask(t *task) error {
	query := `UPDATE tasks SET title = $1, description = $2, status = $3, completed_at = $4, updated_at = $5, version = version + 1
			  WHERE id = $6 AND user_id = $7 AND version = $8
			  RETURNING version`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, query, t.Title, t.Description, t.Status, t.CompletedAt, t.UpdatedAt, t.ID, t.UserID, t.Version)
	err := row.Scan(&t.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return errEditConflict
	}
	return err
}

func (s *storage) deleteTaskForUser(id, userID int) (bool, error) {
	query := `DELETE FROM tasks
			  WHERE id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// getTasksForUser lists the owner's tasks newest-first, optionally
// filtered by status. limit <= 0 disables pagination. The second return
// value is the total count before pagination.
func (s *storage) getTasksForUser(userID int, status string, limit, offset int) ([]task, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The total is counted separately so a page past the end still
	// reports the owner's true count.
	countQuery := `SELECT count(*)
			  FROM tasks
			  WHERE user_id = $1 AND ($2 = '' OR status = $2)`
	total := 0
	err := s.db.QueryRowContext(ctx, countQuery, userID, status).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT id, created_at, updated_at, completed_at, user_id, title, description, status, version
			  FROM tasks
			  WHERE user_id = $1 AND ($2 = '' OR status = $2)
			  ORDER BY created_at DESC, id DESC
			  LIMIT NULLIF($3, -1) OFFSET $4`
	if limit <= 0 {
		limit = -1
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, query, userID, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tasks := []task{}
	for rows.Next() {
		var t task
		err := rows.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Version)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// getTasksCompletedToday lists the owner's tasks completed on the
// current calendar date, server timezone.
func (s *storage) getTasksCompletedToday(userID int) ([]task, error) {
	query := `SELECT id, created_at, updated_at, completed_at, user_id, title, description, status, version
			  FROM tasks
			  WHERE user_id = $1 AND status = $2 AND completed_at::date = CURRENT_DATE
			  ORDER BY completed_at DESC`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query, userID, statusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []task{}
	for rows.Next() {
		var t task
		err := rows.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Version)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// userHasTaskTitled is the fast-path uniqueness probe; the unique index
// on (user_id, lower(title)) remains the authoritative guard.
func (s *storage) userHasTaskTitled(userID int, title string, excludeID int) (bool, error) {
	query := `SELECT EXISTS (
			  	SELECT 1 FROM tasks
			  	WHERE user_id = $1 AND lower(title) = lower($2) AND id <> $3
			  )`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var exists bool
	err := s.db.QueryRowContext(ctx, query, userID, title, excludeID).Scan(&exists)
	return exists, err
}

func (s *storage) getTaskStats(userID int) (*taskStats, error) {
	query := `SELECT count(*),
			  	count(*) FILTER (WHERE status = $2),
			  	count(*) FILTER (WHERE status = $3),
			  	count(*) FILTER (WHERE status = $4),
			  	count(*) FILTER (WHERE status = $4 AND completed_at::date = CURRENT_DATE)
			  FROM tasks
			  WHERE user_id = $1`
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var stats taskStats
	row := s.db.QueryRowContext(ctx, query, userID, statusPending, statusInProgress, statusCompleted)
	err := row.Scan(&stats.Total, &stats.Pending, &stats.InProgress, &stats.Completed, &stats.CompletedToday)
	if err != nil {
		return nil, err
	}
	stats.CompletionRate = completionRate(stats.Completed, stats.Total)
	return &stats, nil
}
