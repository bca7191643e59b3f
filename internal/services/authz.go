package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/taskhive/taskhive-api/internal/database"
	"github.com/taskhive/taskhive-api/internal/models"
)

var (
	ErrNotTeamMember     = errors.New("not a member of this team")
	ErrNotTeamOwner      = errors.New("only a team owner may do this")
	ErrTaskAccessDenied  = errors.New("no access to this task")
	ErrAssigneeNotInTeam = errors.New("assigned user is not in this team")
)

// AuthzService is the single place where access decisions are made. Every
// method returns nil to allow or a sentinel error naming the deny reason;
// the coordinators call in here before touching any row.
type AuthzService struct {
	db *database.DB
}

func NewAuthzService(db *database.DB) *AuthzService {
	return &AuthzService{db: db}
}

// MembershipRole returns the caller's role in the team, or "" when the caller
// is not a member.
func (s *AuthzService) MembershipRole(ctx context.Context, teamID, userID uuid.UUID) (string, error) {
	var role string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT role FROM team_members WHERE team_id = $1 AND user_id = $2
	`, teamID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return role, nil
}

func (s *AuthzService) RequireTeamMember(ctx context.Context, teamID, userID uuid.UUID) error {
	role, err := s.MembershipRole(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if role == "" {
		return ErrNotTeamMember
	}
	return nil
}

func (s *AuthzService) RequireTeamOwner(ctx context.Context, teamID, userID uuid.UUID) error {
	role, err := s.MembershipRole(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if role != models.RoleOwner {
		return ErrNotTeamOwner
	}
	return nil
}

// CanReadTask: personal tasks are visible to the owner and the assignee;
// team tasks to any member of the team.
func (s *AuthzService) CanReadTask(ctx context.Context, task *models.Task, userID uuid.UUID) error {
	if task.IsPersonal() {
		if task.OwnerID == userID {
			return nil
		}
		if task.AssignedUserID != nil && *task.AssignedUserID == userID {
			return nil
		}
		return ErrTaskAccessDenied
	}
	return s.RequireTeamMember(ctx, *task.TeamID, userID)
}

// CanMutateTask: personal tasks may only be edited or deleted by the current
// owner; team tasks only by a holder of the owner role in that team.
func (s *AuthzService) CanMutateTask(ctx context.Context, task *models.Task, userID uuid.UUID) error {
	if task.IsPersonal() {
		if task.OwnerID != userID {
			return ErrTaskAccessDenied
		}
		return nil
	}
	return s.RequireTeamOwner(ctx, *task.TeamID, userID)
}

// RequireAssigneeInTeam enforces the assignment-time invariant: a team task's
// assignee must hold a membership in that team.
func (s *AuthzService) RequireAssigneeInTeam(ctx context.Context, teamID, assigneeID uuid.UUID) error {
	role, err := s.MembershipRole(ctx, teamID, assigneeID)
	if err != nil {
		return err
	}
	if role == "" {
		return ErrAssigneeNotInTeam
	}
	return nil
}

// CanRemoveMember: self-removal is always allowed, removing anyone else
// requires the owner role.
func (s *AuthzService) CanRemoveMember(ctx context.Context, teamID, callerID, targetID uuid.UUID) error {
	if callerID == targetID {
		return nil
	}
	return s.RequireTeamOwner(ctx, teamID, callerID)
}
