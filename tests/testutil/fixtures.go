package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/taskhive/taskhive-api/internal/database"
	"github.com/taskhive/taskhive-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

func (f *Fixtures) hash(t *testing.T, plain string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash %q: %v", plain, err)
	}
	return string(h)
}

// CreateUser creates a test user. The password is always "password123".
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Username: fmt.Sprintf("user%d", f.counter),
	}
	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, created_at, updated_at
	`, user.Username, f.hash(t, "password123")).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithUsername sets the user's username
func WithUsername(username string) UserOption {
	return func(u *models.User) {
		u.Username = username
	}
}

// CreateTeam creates a test team with the given creator as its owner member.
// The team secret is always "team-secret".
func (f *Fixtures) CreateTeam(t *testing.T, creator *models.User, opts ...TeamOption) *models.Team {
	t.Helper()
	f.counter++

	team := &models.Team{
		Name:      fmt.Sprintf("Test Team %d", f.counter),
		JoinCode:  fmt.Sprintf("T%05d", f.counter),
		CreatorID: creator.ID,
	}
	for _, opt := range opts {
		opt(team)
	}

	ctx := context.Background()
	tx, err := f.db.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO teams (name, join_code, secret_hash, creator_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, join_code, secret_hash, creator_id, created_at, updated_at
	`, team.Name, team.JoinCode, f.hash(t, "team-secret"), team.CreatorID).Scan(
		&team.ID, &team.Name, &team.JoinCode, &team.SecretHash,
		&team.CreatorID, &team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create team: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
	`, team.ID, team.CreatorID, models.RoleOwner)
	if err != nil {
		t.Fatalf("failed to add team creator: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit fixture transaction: %v", err)
	}

	return team
}

// TeamOption configures a test team
type TeamOption func(*models.Team)

// WithTeamName sets the team's name
func WithTeamName(name string) TeamOption {
	return func(tm *models.Team) {
		tm.Name = name
	}
}

// WithJoinCode sets the team's join code
func WithJoinCode(code string) TeamOption {
	return func(tm *models.Team) {
		tm.JoinCode = code
	}
}

// AddMember adds a user to a team with the given role
func (f *Fixtures) AddMember(t *testing.T, team *models.Team, user *models.User, role string) {
	t.Helper()
	_, err := f.db.Pool.Exec(context.Background(), `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
	`, team.ID, user.ID, role)
	if err != nil {
		t.Fatalf("failed to add team member: %v", err)
	}
}

// CreateTask creates a test task owned by the given user
func (f *Fixtures) CreateTask(t *testing.T, owner *models.User, opts ...TaskOption) *models.Task {
	t.Helper()
	f.counter++

	task := &models.Task{
		Title:    fmt.Sprintf("Test Task %d", f.counter),
		Priority: models.PriorityMedium,
		OwnerID:  owner.ID,
	}
	for _, opt := range opts {
		opt(task)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, completed, due_date, priority, owner_id, team_id, assigned_user_id, assigned_user_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, task.Title, task.Description, task.Completed, task.DueDate, task.Priority,
		task.OwnerID, task.TeamID, task.AssignedUserID, task.AssignedUserName).Scan(
		&task.ID, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	return task
}

// TaskOption configures a test task
type TaskOption func(*models.Task)

// WithTitle sets the task's title
func WithTitle(title string) TaskOption {
	return func(task *models.Task) {
		task.Title = title
	}
}

// OnTeam places the task on a team board
func OnTeam(team *models.Team) TaskOption {
	return func(task *models.Task) {
		task.TeamID = &team.ID
	}
}

// AssignedTo assigns the task to a user
func AssignedTo(user *models.User) TaskOption {
	return func(task *models.Task) {
		id := user.ID
		name := user.Username
		task.AssignedUserID = &id
		task.AssignedUserName = &name
	}
}

// WithPriority sets the task's priority
func WithPriority(priority string) TaskOption {
	return func(task *models.Task) {
		task.Priority = priority
	}
}
