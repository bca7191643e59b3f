package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/services"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, username, password *string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// TeamServiceInterface defines the methods used by handlers from TeamService
type TeamServiceInterface interface {
	Create(ctx context.Context, callerID uuid.UUID, name, secret string) (*models.Team, error)
	Join(ctx context.Context, callerID uuid.UUID, joinCode, secret string) (*models.Team, error)
	GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error)
	GetUserTeams(ctx context.Context, userID uuid.UUID) ([]models.Team, []string, error)
	GetMembers(ctx context.Context, callerID, teamID uuid.UUID) ([]models.TeamMember, error)
	AddMember(ctx context.Context, callerID, teamID, targetID uuid.UUID, role string) error
	ChangeRole(ctx context.Context, callerID, teamID, targetID uuid.UUID, role string) error
	Update(ctx context.Context, callerID, teamID uuid.UUID, name, secret *string) (*models.Team, error)
	RemoveMember(ctx context.Context, callerID, teamID, targetID uuid.UUID) error
	Delete(ctx context.Context, callerID, teamID uuid.UUID) error
}

// TaskServiceInterface defines the methods used by handlers from TaskService
type TaskServiceInterface interface {
	ListUserTasks(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	ListTeamTasks(ctx context.Context, callerID, teamID uuid.UUID) ([]models.Task, error)
	CreatePersonal(ctx context.Context, callerID uuid.UUID, input services.CreateTaskInput) (*models.Task, error)
	CreateTeamTask(ctx context.Context, callerID, teamID uuid.UUID, input services.CreateTaskInput) (*models.Task, error)
	Update(ctx context.Context, callerID, taskID uuid.UUID, patch services.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, callerID, taskID uuid.UUID) error
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, username string) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}
