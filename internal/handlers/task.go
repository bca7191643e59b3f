package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/taskhive/taskhive-api/internal/middleware"
	"github.com/taskhive/taskhive-api/internal/models"
	"github.com/taskhive/taskhive-api/internal/services"
	"github.com/taskhive/taskhive-api/internal/validation"
	"github.com/taskhive/taskhive-api/pkg/dto"
)

type TaskHandler struct {
	taskService TaskServiceInterface
}

func NewTaskHandler(taskService TaskServiceInterface) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func taskResponse(task *models.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:               task.ID,
		Title:            task.Title,
		Description:      task.Description,
		Completed:        task.Completed,
		DueDate:          task.DueDate,
		Priority:         task.Priority,
		OwnerID:          task.OwnerID,
		TeamID:           task.TeamID,
		TeamName:         task.TeamName,
		AssignedUserID:   task.AssignedUserID,
		AssignedUserName: task.AssignedUserName,
		CreatedAt:        task.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        task.UpdatedAt.Format(time.RFC3339),
	}
}

func taskListResponse(tasks []models.Task) []dto.TaskResponse {
	response := make([]dto.TaskResponse, len(tasks))
	for i := range tasks {
		response[i] = taskResponse(&tasks[i])
	}
	return response
}

// List returns every task the caller owns or is assigned to.
func (h *TaskHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	tasks, err := h.taskService.ListUserTasks(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to get tasks")
		return
	}

	_ = c.JSON(200, taskListResponse(tasks))
}

func (h *TaskHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	task, err := h.taskService.CreatePersonal(context.Background(), userID, services.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Completed:      req.Completed,
		DueDate:        req.DueDate,
		Priority:       req.Priority,
		AssignedUserID: req.AssignedUserID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPriority):
			c.BadRequest("priority must be high, medium or low")
		case errors.Is(err, services.ErrUserNotFound):
			c.NotFound("assigned user not found")
		default:
			c.InternalServerError("failed to create task")
		}
		return
	}

	_ = c.JSON(201, taskResponse(task))
}

func (h *TaskHandler) Update(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	task, err := h.taskService.Update(context.Background(), userID, taskID, services.TaskPatch{
		Title:             req.Title,
		Description:       req.Description,
		Completed:         req.Completed,
		DueDate:           req.DueDate,
		Priority:          req.Priority,
		AssignedUserID:    req.AssignedUserID.Value,
		AssignedUserIDSet: req.AssignedUserID.Set,
		AssignedUserName:  req.AssignedUserName,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPriority):
			c.BadRequest("priority must be high, medium or low")
		case errors.Is(err, services.ErrTaskNotFound):
			c.NotFound("task not found")
		case errors.Is(err, services.ErrTaskAccessDenied):
			c.Forbidden("no access to this task")
		case errors.Is(err, services.ErrNotTeamOwner):
			c.Forbidden("only a team owner may edit team tasks")
		case errors.Is(err, services.ErrAssigneeNotInTeam):
			c.BadRequest("assigned user is not in this team")
		case errors.Is(err, services.ErrUserNotFound):
			c.NotFound("assigned user not found")
		default:
			c.InternalServerError("failed to update task")
		}
		return
	}

	_ = c.JSON(200, taskResponse(task))
}

func (h *TaskHandler) Delete(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid task id")
		return
	}

	if err := h.taskService.Delete(context.Background(), userID, taskID); err != nil {
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			c.NotFound("task not found")
		case errors.Is(err, services.ErrTaskAccessDenied):
			c.Forbidden("no access to this task")
		case errors.Is(err, services.ErrNotTeamOwner):
			c.Forbidden("only a team owner may delete team tasks")
		default:
			c.InternalServerError("failed to delete task")
		}
		return
	}

	_ = c.JSON(200, map[string]string{"message": "task deleted"})
}

// ListTeamTasks returns the board of a single team.
func (h *TaskHandler) ListTeamTasks(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid team id")
		return
	}

	tasks, err := h.taskService.ListTeamTasks(context.Background(), userID, teamID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTeamNotFound):
			c.NotFound("team not found")
		case errors.Is(err, services.ErrNotTeamMember):
			c.Forbidden("not a member of this team")
		default:
			c.InternalServerError("failed to get team tasks")
		}
		return
	}

	_ = c.JSON(200, taskListResponse(tasks))
}

func (h *TaskHandler) CreateTeamTask(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid team id")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	task, err := h.taskService.CreateTeamTask(context.Background(), userID, teamID, services.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		Completed:      req.Completed,
		DueDate:        req.DueDate,
		Priority:       req.Priority,
		AssignedUserID: req.AssignedUserID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPriority):
			c.BadRequest("priority must be high, medium or low")
		case errors.Is(err, services.ErrTeamNotFound):
			c.NotFound("team not found")
		case errors.Is(err, services.ErrNotTeamMember):
			c.Forbidden("not a member of this team")
		case errors.Is(err, services.ErrAssigneeNotInTeam):
			c.BadRequest("assigned user is not in this team")
		case errors.Is(err, services.ErrUserNotFound):
			c.NotFound("assigned user not found")
		default:
			c.InternalServerError("failed to create team task")
		}
		return
	}

	_ = c.JSON(201, taskResponse(task))
}
