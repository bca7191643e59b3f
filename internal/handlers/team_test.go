package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-api/internal/middleware"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/services"
	"github.com/taskhive/taskhive-api/pkg/dto"
	"github.com/taskhive/taskhive-api/tests/testutil"
)

func setupTeamTest(t *testing.T) (*testutil.MockTeamService, http.Handler, string, uuid.UUID) {
	t.Helper()
	mockTeamService := new(testutil.MockTeamService)
	handler := NewTeamHandler(mockTeamService)
	jwtSvc := newTestJWTService()

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Get("/teams", handler.List)
	app.Post("/teams", handler.Create)
	app.Post("/teams/join", handler.Join)
	app.Patch("/teams/:id", handler.Update)
	app.Delete("/teams/:id", handler.Delete)
	app.Get("/teams/:id/members", handler.GetMembers)
	app.Post("/teams/:id/members", handler.AddMember)
	app.Patch("/teams/:id/members/:userId", handler.ChangeRole)
	app.Delete("/teams/:id/members/:userId", handler.RemoveMember)

	userID := uuid.New()
	token := generateTestToken(t, jwtSvc, userID, "alice")
	return mockTeamService, app, token, userID
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestTeamHandler_Create_Success(t *testing.T) {
	mockTeamService, app, token, userID := setupTeamTest(t)

	team := &models.Team{
		ID:        uuid.New(),
		Name:      "Eng",
		JoinCode:  "AB12CD",
		CreatorID: userID,
	}

	mockTeamService.On("Create", mock.Anything, userID, "Eng", "sekret123").Return(team, nil)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/teams", dto.CreateTeamRequest{Name: "Eng", Secret: "sekret123"}, authHeaders(token))

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response dto.TeamResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, team.ID, response.ID)
	assert.Equal(t, "AB12CD", response.JoinCode)
	assert.Equal(t, models.RoleOwner, response.Role)

	mockTeamService.AssertExpectations(t)
}

func TestTeamHandler_Create_MissingSecret(t *testing.T) {
	_, app, token, _ := setupTeamTest(t)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/teams", dto.CreateTeamRequest{Name: "Eng"}, authHeaders(token))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "secret")
}

func TestTeamHandler_Join_WrongSecret(t *testing.T) {
	mockTeamService, app, token, userID := setupTeamTest(t)

	mockTeamService.On("Join", mock.Anything, userID, "AB12CD", "bad-secret").
		Return(nil, services.ErrWrongSecret)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/teams/join", dto.JoinTeamRequest{JoinCode: "AB12CD", Secret: "bad-secret"}, authHeaders(token))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	mockTeamService.AssertExpectations(t)
}

func TestTeamHandler_Join_AlreadyMember(t *testing.T) {
	mockTeamService, app, token, userID := setupTeamTest(t)

	mockTeamService.On("Join", mock.Anything, userID, "AB12CD", "sekret123").
		Return(nil, services.ErrAlreadyMember)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/teams/join", dto.JoinTeamRequest{JoinCode: "AB12CD", Secret: "sekret123"}, authHeaders(token))

	assert.Equal(t, http.StatusConflict, rec.Code)
	mockTeamService.AssertExpectations(t)
}

func TestTeamHandler_Join_UnknownCode(t *testing.T) {
	mockTeamService, app, token, userID := setupTeamTest(t)

	mockTeamService.On("Join", mock.Anything, userID, "ZZZZZZ", "sekret123").
		Return(nil, services.ErrTeamNotFound)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/teams/join", dto.JoinTeamRequest{JoinCode: "ZZZZZZ", Secret: "sekret123"}, authHeaders(token))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	mockTeamService.AssertExpectations(t)
}

func TestTeamHandler_List_Success(t *testing.T) {
	mockTeamService, app, token, userID := setupTeamTest(t)

	teams := []models.Team{
		{ID: uuid.New(), Name: "Eng", JoinCode: "AB12CD", CreatorID: userID},
		{ID: uuid.New(), Name: "Ops", JoinCode: "XY34ZW", CreatorID: uuid.New()},
	}
	roles := []string{models.RoleOwner, models.RoleMember}

	mockTeamService.On("GetUserTeams", mock.Anything, userID).Return(teams, roles, nil)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.GET("/teams", authHeaders(token))

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []dto.TeamResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 2)
	assert.Equal(t, models.RoleOwner, response[0].Role)
	assert.Equal(t, models.RoleMember, response[1].Role)

	mockTeamService.AssertExpectations(t)
}

func TestTeamHandler_Delete_NotOwner(t *testing.T) {
	mockTeamService, app, token, userID := setupTeamTest(t)

	teamID := uuid.New()
	mockTeamService.On("Delete", mock.Anything, userID, teamID).Return(services.ErrNotTeamOwner)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.DELETE("/teams/"+teamID.String(), authHeaders(token))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	mockTeamService.AssertExpectations(t)
}

func TestTeamHandler_Delete_InvalidID(t *testing.T) {
	_, app, token, _ := setupTeamTest(t)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.DELETE("/teams/not-a-uuid", authHeaders(token))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeamHandler_GetMembers_Success(t *testing.T) {
	mockTeamService, app, token, userID := setupTeamTest(t)

	teamID := uuid.New()
	bobID := uuid.New()
	members := []models.TeamMember{
		{ID: uuid.New(), TeamID: teamID, UserID: userID, Role: models.RoleOwner, User: &models.User{ID: userID, Username: "alice"}},
		{ID: uuid.New(), TeamID: teamID, UserID: bobID, Role: models.RoleMember, User: &models.User{ID: bobID, Username: "bob"}},
	}

	mockTeamService.On("GetMembers", mock.Anything, userID, teamID).Return(members, nil)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.GET("/teams/"+teamID.String()+"/members", authHeaders(token))

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []dto.TeamMemberResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 2)
	assert.Equal(t, "alice", response[0].Username)
	assert.Equal(t, models.RoleMember, response[1].Role)

	mockTeamService.AssertExpectations(t)
}

func TestTeamHandler_GetMembers_NotMember(t *testing.T) {
	mockTeamService, app, token, userID := setupTeamTest(t)

	teamID := uuid.New()
	mockTeamService.On("GetMembers", mock.Anything, userID, teamID).
		Return(nil, services.ErrNotTeamMember)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.GET("/teams/"+teamID.String()+"/members", authHeaders(token))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	mockTeamService.AssertExpectations(t)
}

func TestTeamHandler_AddMember_DefaultsToMemberRole(t *testing.T) {
	mockTeamService, app, token, userID := setupTeamTest(t)

	teamID := uuid.New()
	targetID := uuid.New()

	mockTeamService.On("AddMember", mock.Anything, userID, teamID, targetID, "").Return(nil)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/teams/"+teamID.String()+"/members", dto.AddMemberRequest{UserID: targetID}, authHeaders(token))

	assert.Equal(t, http.StatusCreated, rec.Code)
	mockTeamService.AssertExpectations(t)
}

func TestTeamHandler_AddMember_InvalidRole(t *testing.T) {
	_, app, token, _ := setupTeamTest(t)

	teamID := uuid.New()
	body := dto.AddMemberRequest{UserID: uuid.New(), Role: "admin"}

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/teams/"+teamID.String()+"/members", body, authHeaders(token))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeamHandler_ChangeRole_MemberNotFound(t *testing.T) {
	mockTeamService, app, token, userID := setupTeamTest(t)

	teamID := uuid.New()
	targetID := uuid.New()

	mockTeamService.On("ChangeRole", mock.Anything, userID, teamID, targetID, models.RoleOwner).
		Return(services.ErrMemberNotFound)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.PATCH("/teams/"+teamID.String()+"/members/"+targetID.String(),
		dto.ChangeRoleRequest{Role: models.RoleOwner}, authHeaders(token))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	mockTeamService.AssertExpectations(t)
}

func TestTeamHandler_RemoveMember_Self(t *testing.T) {
	mockTeamService, app, token, userID := setupTeamTest(t)

	teamID := uuid.New()
	mockTeamService.On("RemoveMember", mock.Anything, userID, teamID, userID).Return(nil)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.DELETE("/teams/"+teamID.String()+"/members/"+userID.String(), authHeaders(token))

	assert.Equal(t, http.StatusOK, rec.Code)
	mockTeamService.AssertExpectations(t)
}

func TestTeamHandler_RemoveMember_NotOwner(t *testing.T) {
	mockTeamService, app, token, userID := setupTeamTest(t)

	teamID := uuid.New()
	targetID := uuid.New()
	mockTeamService.On("RemoveMember", mock.Anything, userID, teamID, targetID).
		Return(services.ErrNotTeamOwner)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.DELETE("/teams/"+teamID.String()+"/members/"+targetID.String(), authHeaders(token))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	mockTeamService.AssertExpectations(t)
}
