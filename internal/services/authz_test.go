package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-api/internal/database"
	"github.com/taskhive/taskhive-api/internal/models"
)

func setupAuthzService(t *testing.T) (*AuthzService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewAuthzService(db), mock
}

func expectMembershipRole(mock pgxmock.PgxPoolIface, teamID, userID uuid.UUID, role string) {
	rows := pgxmock.NewRows([]string{"role"})
	if role != "" {
		rows.AddRow(role)
	}
	q := mock.ExpectQuery(`SELECT role FROM team_members`).
		WithArgs(teamID, userID)
	if role == "" {
		q.WillReturnError(pgx.ErrNoRows)
	} else {
		q.WillReturnRows(rows)
	}
}

func TestAuthzService_MembershipRole_NonMember(t *testing.T) {
	svc, mock := setupAuthzService(t)
	teamID, userID := uuid.New(), uuid.New()

	expectMembershipRole(mock, teamID, userID, "")

	role, err := svc.MembershipRole(context.Background(), teamID, userID)

	require.NoError(t, err)
	assert.Equal(t, "", role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_RequireTeamMember(t *testing.T) {
	svc, mock := setupAuthzService(t)
	teamID, userID := uuid.New(), uuid.New()

	expectMembershipRole(mock, teamID, userID, models.RoleMember)

	err := svc.RequireTeamMember(context.Background(), teamID, userID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_RequireTeamMember_Denied(t *testing.T) {
	svc, mock := setupAuthzService(t)
	teamID, userID := uuid.New(), uuid.New()

	expectMembershipRole(mock, teamID, userID, "")

	err := svc.RequireTeamMember(context.Background(), teamID, userID)

	assert.ErrorIs(t, err, ErrNotTeamMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_RequireTeamOwner_MemberDenied(t *testing.T) {
	svc, mock := setupAuthzService(t)
	teamID, userID := uuid.New(), uuid.New()

	expectMembershipRole(mock, teamID, userID, models.RoleMember)

	err := svc.RequireTeamOwner(context.Background(), teamID, userID)

	assert.ErrorIs(t, err, ErrNotTeamOwner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_CanReadTask_PersonalOwner(t *testing.T) {
	svc, _ := setupAuthzService(t)
	ownerID := uuid.New()
	task := &models.Task{ID: uuid.New(), OwnerID: ownerID}

	assert.NoError(t, svc.CanReadTask(context.Background(), task, ownerID))
}

func TestAuthzService_CanReadTask_PersonalAssignee(t *testing.T) {
	svc, _ := setupAuthzService(t)
	assigneeID := uuid.New()
	task := &models.Task{ID: uuid.New(), OwnerID: uuid.New(), AssignedUserID: &assigneeID}

	assert.NoError(t, svc.CanReadTask(context.Background(), task, assigneeID))
}

func TestAuthzService_CanReadTask_PersonalStrangerDenied(t *testing.T) {
	svc, _ := setupAuthzService(t)
	task := &models.Task{ID: uuid.New(), OwnerID: uuid.New()}

	err := svc.CanReadTask(context.Background(), task, uuid.New())

	assert.ErrorIs(t, err, ErrTaskAccessDenied)
}

func TestAuthzService_CanReadTask_TeamMember(t *testing.T) {
	svc, mock := setupAuthzService(t)
	teamID, userID := uuid.New(), uuid.New()
	task := &models.Task{ID: uuid.New(), OwnerID: uuid.New(), TeamID: &teamID}

	expectMembershipRole(mock, teamID, userID, models.RoleMember)

	assert.NoError(t, svc.CanReadTask(context.Background(), task, userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_CanMutateTask_PersonalNonOwnerDenied(t *testing.T) {
	svc, _ := setupAuthzService(t)
	task := &models.Task{ID: uuid.New(), OwnerID: uuid.New()}

	err := svc.CanMutateTask(context.Background(), task, uuid.New())

	assert.ErrorIs(t, err, ErrTaskAccessDenied)
}

func TestAuthzService_CanMutateTask_TeamMemberDenied(t *testing.T) {
	svc, mock := setupAuthzService(t)
	teamID, userID := uuid.New(), uuid.New()
	task := &models.Task{ID: uuid.New(), OwnerID: userID, TeamID: &teamID}

	// Creating a team task grants no authority over it; the member role
	// is still not enough to mutate.
	expectMembershipRole(mock, teamID, userID, models.RoleMember)

	err := svc.CanMutateTask(context.Background(), task, userID)

	assert.ErrorIs(t, err, ErrNotTeamOwner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_CanMutateTask_TeamOwner(t *testing.T) {
	svc, mock := setupAuthzService(t)
	teamID, userID := uuid.New(), uuid.New()
	task := &models.Task{ID: uuid.New(), OwnerID: uuid.New(), TeamID: &teamID}

	expectMembershipRole(mock, teamID, userID, models.RoleOwner)

	assert.NoError(t, svc.CanMutateTask(context.Background(), task, userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_RequireAssigneeInTeam_NotMember(t *testing.T) {
	svc, mock := setupAuthzService(t)
	teamID, assigneeID := uuid.New(), uuid.New()

	expectMembershipRole(mock, teamID, assigneeID, "")

	err := svc.RequireAssigneeInTeam(context.Background(), teamID, assigneeID)

	assert.ErrorIs(t, err, ErrAssigneeNotInTeam)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_CanRemoveMember_Self(t *testing.T) {
	svc, _ := setupAuthzService(t)
	userID := uuid.New()

	assert.NoError(t, svc.CanRemoveMember(context.Background(), uuid.New(), userID, userID))
}

func TestAuthzService_CanRemoveMember_OtherRequiresOwner(t *testing.T) {
	svc, mock := setupAuthzService(t)
	teamID, callerID, targetID := uuid.New(), uuid.New(), uuid.New()

	expectMembershipRole(mock, teamID, callerID, models.RoleMember)

	err := svc.CanRemoveMember(context.Background(), teamID, callerID, targetID)

	assert.ErrorIs(t, err, ErrNotTeamOwner)
	assert.NoError(t, mock.ExpectationsWereMet())
}
