package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OptionalUUID distinguishes an absent JSON field from an explicit null.
// Set is true whenever the field appeared in the payload at all.
type OptionalUUID struct {
	Set   bool
	Value *uuid.UUID
}

func (o *OptionalUUID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

type CreateTaskRequest struct {
	Title          string     `json:"title" validate:"required,min=1,max=200"`
	Description    string     `json:"description,omitempty"`
	Completed      bool       `json:"completed,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Priority       string     `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	AssignedUserID *uuid.UUID `json:"assigned_user_id,omitempty"`
}

type UpdateTaskRequest struct {
	Title            *string      `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description      *string      `json:"description,omitempty"`
	Completed        *bool        `json:"completed,omitempty"`
	DueDate          *time.Time   `json:"due_date,omitempty"`
	Priority         *string      `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	AssignedUserID   OptionalUUID `json:"assigned_user_id,omitempty"`
	AssignedUserName *string      `json:"assigned_user_name,omitempty"`
}

type TaskResponse struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Completed        bool       `json:"completed"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	Priority         string     `json:"priority"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	TeamID           *uuid.UUID `json:"team_id,omitempty"`
	TeamName         *string    `json:"team_name,omitempty"`
	AssignedUserID   *uuid.UUID `json:"assigned_user_id,omitempty"`
	AssignedUserName *string    `json:"assigned_user_name,omitempty"`
	CreatedAt        string     `json:"created_at"`
	UpdatedAt        string     `json:"updated_at"`
}
