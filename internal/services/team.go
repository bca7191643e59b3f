package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/taskhive/taskhive-api/internal/database"
	"github.com/taskhive/taskhive-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrTeamNotFound   = errors.New("team not found")
	ErrWrongSecret    = errors.New("wrong team secret")
	ErrAlreadyMember  = errors.New("user is already a team member")
	ErrMemberNotFound = errors.New("team member not found")
	ErrInvalidRole    = errors.New("invalid role value")
)

const (
	joinCodeLength   = 6
	joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	joinCodeRetries  = 5
)

type TeamService struct {
	db    *database.DB
	authz *AuthzService
}

func NewTeamService(db *database.DB, authz *AuthzService) *TeamService {
	return &TeamService{db: db, authz: authz}
}

func generateJoinCode() (string, error) {
	buf := make([]byte, joinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate join code: %w", err)
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf), nil
}

// Create persists the team and its owner membership in one transaction.
// The join code has a unique index; on the unlikely collision the whole
// transaction is retried with a fresh code.
func (s *TeamService) Create(ctx context.Context, callerID uuid.UUID, name, secret string) (*models.Team, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash team secret: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < joinCodeRetries; attempt++ {
		code, err := generateJoinCode()
		if err != nil {
			return nil, err
		}

		team, err := s.createWithCode(ctx, callerID, name, code, string(hash))
		if err == nil {
			return team, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed to create team after %d join code attempts: %w", joinCodeRetries, lastErr)
}

func (s *TeamService) createWithCode(ctx context.Context, callerID uuid.UUID, name, code, secretHash string) (*models.Team, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var team models.Team
	err = tx.QueryRow(ctx, `
		INSERT INTO teams (name, join_code, secret_hash, creator_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, join_code, secret_hash, creator_id, created_at, updated_at
	`, name, code, secretHash, callerID).Scan(
		&team.ID, &team.Name, &team.JoinCode, &team.SecretHash,
		&team.CreatorID, &team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
	`, team.ID, callerID, models.RoleOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to add creator as owner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &team, nil
}

// Join locates the team by its public join code and verifies the secret.
// A failed join never writes a membership row.
func (s *TeamService) Join(ctx context.Context, callerID uuid.UUID, joinCode, secret string) (*models.Team, error) {
	var team models.Team
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, name, join_code, secret_hash, creator_id, created_at, updated_at
		FROM teams WHERE join_code = $1
	`, joinCode).Scan(
		&team.ID, &team.Name, &team.JoinCode, &team.SecretHash,
		&team.CreatorID, &team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(team.SecretHash), []byte(secret)); err != nil {
		return nil, ErrWrongSecret
	}

	role, err := s.authz.MembershipRole(ctx, team.ID, callerID)
	if err != nil {
		return nil, err
	}
	if role != "" {
		return nil, ErrAlreadyMember
	}

	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
	`, team.ID, callerID, models.RoleMember)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}

	return &team, nil
}

func (s *TeamService) GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	var team models.Team
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, name, join_code, secret_hash, creator_id, created_at, updated_at
		FROM teams WHERE id = $1
	`, teamID).Scan(
		&team.ID, &team.Name, &team.JoinCode, &team.SecretHash,
		&team.CreatorID, &team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}

func (s *TeamService) GetUserTeams(ctx context.Context, userID uuid.UUID) ([]models.Team, []string, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT t.id, t.name, t.join_code, t.secret_hash, t.creator_id, t.created_at, t.updated_at, tm.role
		FROM teams t
		JOIN team_members tm ON t.id = tm.team_id
		WHERE tm.user_id = $1
		ORDER BY t.created_at DESC
	`, userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var teams []models.Team
	var roles []string
	for rows.Next() {
		var team models.Team
		var role string
		if err := rows.Scan(
			&team.ID, &team.Name, &team.JoinCode, &team.SecretHash,
			&team.CreatorID, &team.CreatedAt, &team.UpdatedAt, &role,
		); err != nil {
			return nil, nil, err
		}
		teams = append(teams, team)
		roles = append(roles, role)
	}
	return teams, roles, nil
}

func (s *TeamService) GetMembers(ctx context.Context, callerID, teamID uuid.UUID) ([]models.TeamMember, error) {
	if _, err := s.GetByID(ctx, teamID); err != nil {
		return nil, err
	}
	if err := s.authz.RequireTeamMember(ctx, teamID, callerID); err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT tm.id, tm.team_id, tm.user_id, tm.role, tm.created_at,
		       u.id, u.username, u.created_at, u.updated_at
		FROM team_members tm
		JOIN users u ON tm.user_id = u.id
		WHERE tm.team_id = $1
		ORDER BY tm.created_at
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.TeamMember
	for rows.Next() {
		var member models.TeamMember
		var user models.User
		if err := rows.Scan(
			&member.ID, &member.TeamID, &member.UserID, &member.Role, &member.CreatedAt,
			&user.ID, &user.Username, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		member.User = &user
		members = append(members, member)
	}
	return members, nil
}

// AddMember lets a team owner add a user directly, bypassing the join
// code flow. Role defaults to member.
func (s *TeamService) AddMember(ctx context.Context, callerID, teamID, targetID uuid.UUID, role string) error {
	if role == "" {
		role = models.RoleMember
	}
	if !models.ValidRole(role) {
		return ErrInvalidRole
	}

	if err := s.authz.RequireTeamOwner(ctx, teamID, callerID); err != nil {
		return err
	}

	var userExists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)
	`, targetID).Scan(&userExists)
	if err != nil {
		return err
	}
	if !userExists {
		return ErrUserNotFound
	}

	existing, err := s.authz.MembershipRole(ctx, teamID, targetID)
	if err != nil {
		return err
	}
	if existing != "" {
		return ErrAlreadyMember
	}

	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
	`, teamID, targetID, role)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

func (s *TeamService) ChangeRole(ctx context.Context, callerID, teamID, targetID uuid.UUID, role string) error {
	if !models.ValidRole(role) {
		return ErrInvalidRole
	}

	if err := s.authz.RequireTeamOwner(ctx, teamID, callerID); err != nil {
		return err
	}

	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE team_members SET role = $1
		WHERE team_id = $2 AND user_id = $3
	`, role, teamID, targetID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// Update applies a partial update; a nil field is left untouched. A new
// secret is re-hashed before it is stored.
func (s *TeamService) Update(ctx context.Context, callerID, teamID uuid.UUID, name, secret *string) (*models.Team, error) {
	team, err := s.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireTeamOwner(ctx, teamID, callerID); err != nil {
		return nil, err
	}

	newName := team.Name
	if name != nil {
		newName = *name
	}

	newHash := team.SecretHash
	if secret != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*secret), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash team secret: %w", err)
		}
		newHash = string(hash)
	}

	var updated models.Team
	err = s.db.Pool.QueryRow(ctx, `
		UPDATE teams SET name = $1, secret_hash = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, name, join_code, secret_hash, creator_id, created_at, updated_at
	`, newName, newHash, teamID).Scan(
		&updated.ID, &updated.Name, &updated.JoinCode, &updated.SecretHash,
		&updated.CreatorID, &updated.CreatedAt, &updated.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// RemoveMember deletes the membership and unassigns the removed user from
// every task of the team, in one transaction. Tasks themselves survive.
func (s *TeamService) RemoveMember(ctx context.Context, callerID, teamID, targetID uuid.UUID) error {
	if err := s.authz.CanRemoveMember(ctx, teamID, callerID, targetID); err != nil {
		return err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		DELETE FROM team_members WHERE team_id = $1 AND user_id = $2
	`, teamID, targetID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}

	_, err = tx.Exec(ctx, `
		UPDATE tasks SET assigned_user_id = NULL, assigned_user_name = NULL, updated_at = NOW()
		WHERE team_id = $1 AND assigned_user_id = $2
	`, teamID, targetID)
	if err != nil {
		return fmt.Errorf("failed to unassign removed member: %w", err)
	}

	return tx.Commit(ctx)
}

// Delete cascades explicitly in dependency order: tasks, memberships, then
// the team itself, all in one transaction. The schema's ON DELETE CASCADE
// would catch stragglers, but the ordering here does not depend on it.
func (s *TeamService) Delete(ctx context.Context, callerID, teamID uuid.UUID) error {
	if _, err := s.GetByID(ctx, teamID); err != nil {
		return err
	}
	if err := s.authz.RequireTeamOwner(ctx, teamID, callerID); err != nil {
		return err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to delete team tasks: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM team_members WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to delete team members: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM teams WHERE id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	return tx.Commit(ctx)
}
