package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/taskhive/taskhive-api/internal/database"
	"github.com/taskhive/taskhive-api/internal/models"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidPriority = errors.New("invalid priority value")
)

// CreateTaskInput carries the fields a caller may set when creating a task.
type CreateTaskInput struct {
	Title          string
	Description    string
	Completed      bool
	DueDate        *time.Time
	Priority       string
	AssignedUserID *uuid.UUID
}

// TaskPatch is a partial update. Nil fields are left untouched. The assignment
// field is tri-state: AssignedUserIDSet false means "not mentioned", true with
// a nil AssignedUserID means "clear the assignment".
type TaskPatch struct {
	Title             *string
	Description       *string
	Completed         *bool
	DueDate           *time.Time
	Priority          *string
	AssignedUserID    *uuid.UUID
	AssignedUserIDSet bool
	AssignedUserName  *string
}

type TaskService struct {
	db    *database.DB
	authz *AuthzService
}

func NewTaskService(db *database.DB, authz *AuthzService) *TaskService {
	return &TaskService{db: db, authz: authz}
}

const taskColumns = `id, title, description, completed, due_date, priority,
	owner_id, team_id, assigned_user_id, assigned_user_name, created_at, updated_at`

func scanTask(row pgx.Row) (*models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &task.Completed,
		&task.DueDate, &task.Priority, &task.OwnerID, &task.TeamID,
		&task.AssignedUserID, &task.AssignedUserName, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

// ListUserTasks returns every task the caller owns or is assigned to,
// with the owning team's name joined in for display.
func (s *TaskService) ListUserTasks(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT t.id, t.title, t.description, t.completed, t.due_date, t.priority,
		       t.owner_id, t.team_id, t.assigned_user_id, t.assigned_user_name,
		       t.created_at, t.updated_at, tm.name
		FROM tasks t
		LEFT JOIN teams tm ON t.team_id = tm.id
		WHERE t.owner_id = $1 OR t.assigned_user_id = $1
		ORDER BY t.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(
			&task.ID, &task.Title, &task.Description, &task.Completed,
			&task.DueDate, &task.Priority, &task.OwnerID, &task.TeamID,
			&task.AssignedUserID, &task.AssignedUserName,
			&task.CreatedAt, &task.UpdatedAt, &task.TeamName,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// ListTeamTasks returns the board of a team the caller is a member of.
func (s *TaskService) ListTeamTasks(ctx context.Context, callerID, teamID uuid.UUID) ([]models.Task, error) {
	var teamExists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1)
	`, teamID).Scan(&teamExists)
	if err != nil {
		return nil, err
	}
	if !teamExists {
		return nil, ErrTeamNotFound
	}

	if err := s.authz.RequireTeamMember(ctx, teamID, callerID); err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE team_id = $1
		ORDER BY created_at DESC
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(
			&task.ID, &task.Title, &task.Description, &task.Completed,
			&task.DueDate, &task.Priority, &task.OwnerID, &task.TeamID,
			&task.AssignedUserID, &task.AssignedUserName, &task.CreatedAt, &task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// CreatePersonal creates a task owned by the caller with no team context.
func (s *TaskService) CreatePersonal(ctx context.Context, callerID uuid.UUID, input CreateTaskInput) (*models.Task, error) {
	priority, err := normalizePriority(input.Priority)
	if err != nil {
		return nil, err
	}

	var assignedUserName *string
	if input.AssignedUserID != nil {
		name, err := s.lookupUsername(ctx, *input.AssignedUserID)
		if err != nil {
			return nil, err
		}
		assignedUserName = &name
	}

	return scanTask(s.db.Pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, completed, due_date, priority, owner_id, assigned_user_id, assigned_user_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+taskColumns+`
	`, input.Title, input.Description, input.Completed, input.DueDate, priority,
		callerID, input.AssignedUserID, assignedUserName))
}

// CreateTeamTask creates a task on a team board. Any member may create;
// owner_id records the creating member but carries no authority for team
// tasks. A supplied assignee must itself be a member.
func (s *TaskService) CreateTeamTask(ctx context.Context, callerID, teamID uuid.UUID, input CreateTaskInput) (*models.Task, error) {
	priority, err := normalizePriority(input.Priority)
	if err != nil {
		return nil, err
	}

	var teamExists bool
	err = s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1)
	`, teamID).Scan(&teamExists)
	if err != nil {
		return nil, err
	}
	if !teamExists {
		return nil, ErrTeamNotFound
	}

	if err := s.authz.RequireTeamMember(ctx, teamID, callerID); err != nil {
		return nil, err
	}

	var assignedUserName *string
	if input.AssignedUserID != nil {
		if err := s.authz.RequireAssigneeInTeam(ctx, teamID, *input.AssignedUserID); err != nil {
			return nil, err
		}
		name, err := s.lookupUsername(ctx, *input.AssignedUserID)
		if err != nil {
			return nil, err
		}
		assignedUserName = &name
	}

	return scanTask(s.db.Pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, completed, due_date, priority, owner_id, team_id, assigned_user_id, assigned_user_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+taskColumns+`
	`, input.Title, input.Description, input.Completed, input.DueDate, priority,
		callerID, teamID, input.AssignedUserID, assignedUserName))
}

// Update applies a partial patch under a row lock, so two concurrent
// ownership transfers on the same task cannot interleave.
//
// The assignment rules for a present, non-nil AssignedUserID:
//   - personal task assigned to someone else: ownership transfers to the
//     assignee and the assignment fields are cleared, the new owner holds
//     the task outright;
//   - self-assign, or team task: only the assignment fields change, with
//     the username looked up when not supplied.
//
// An explicit null clears the assignment and never moves ownership.
func (s *TaskService) Update(ctx context.Context, callerID, taskID uuid.UUID, patch TaskPatch) (*models.Task, error) {
	if patch.Priority != nil && !models.ValidPriority(*patch.Priority) {
		return nil, ErrInvalidPriority
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	task, err := scanTask(tx.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE id = $1
		FOR UPDATE
	`, taskID))
	if err != nil {
		return nil, err
	}

	if err := s.authz.CanMutateTask(ctx, task, callerID); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}

	if patch.AssignedUserIDSet {
		switch {
		case patch.AssignedUserID == nil:
			task.AssignedUserID = nil
			task.AssignedUserName = nil

		case task.IsPersonal() && *patch.AssignedUserID != callerID:
			// Ownership transfer: the assignee becomes the owner and is
			// not "assigned to themselves".
			task.OwnerID = *patch.AssignedUserID
			task.AssignedUserID = nil
			task.AssignedUserName = nil

		default:
			if !task.IsPersonal() {
				if err := s.authz.RequireAssigneeInTeam(ctx, *task.TeamID, *patch.AssignedUserID); err != nil {
					return nil, err
				}
			}
			task.AssignedUserID = patch.AssignedUserID
			if patch.AssignedUserName != nil {
				task.AssignedUserName = patch.AssignedUserName
			} else {
				name, err := s.lookupUsernameTx(ctx, tx, *patch.AssignedUserID)
				if err != nil {
					return nil, err
				}
				task.AssignedUserName = &name
			}
		}
	}

	updated, err := scanTask(tx.QueryRow(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, completed = $3, due_date = $4, priority = $5,
		    owner_id = $6, assigned_user_id = $7, assigned_user_name = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING `+taskColumns+`
	`, task.Title, task.Description, task.Completed, task.DueDate, task.Priority,
		task.OwnerID, task.AssignedUserID, task.AssignedUserName, task.ID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

// Delete removes the task row outright; there is no soft delete.
func (s *TaskService) Delete(ctx context.Context, callerID, taskID uuid.UUID) error {
	task, err := scanTask(s.db.Pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE id = $1
	`, taskID))
	if err != nil {
		return err
	}

	if err := s.authz.CanMutateTask(ctx, task, callerID); err != nil {
		return err
	}

	_, err = s.db.Pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	return err
}

func (s *TaskService) lookupUsername(ctx context.Context, userID uuid.UUID) (string, error) {
	var username string
	err := s.db.Pool.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, userID).Scan(&username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return username, nil
}

func (s *TaskService) lookupUsernameTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (string, error) {
	var username string
	err := tx.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, userID).Scan(&username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return username, nil
}

func normalizePriority(p string) (string, error) {
	if p == "" {
		return models.PriorityMedium, nil
	}
	if !models.ValidPriority(p) {
		return "", ErrInvalidPriority
	}
	return p, nil
}
