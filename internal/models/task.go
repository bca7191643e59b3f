package models

import (
	"time"

	"github.com/google/uuid"
)

// Task is either personal (TeamID nil, OwnerID authoritative) or team-scoped
// (TeamID set, access gated by team membership; OwnerID records the creator).
type Task struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Completed        bool       `json:"completed"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	Priority         string     `json:"priority"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	TeamID           *uuid.UUID `json:"team_id,omitempty"`
	AssignedUserID   *uuid.UUID `json:"assigned_user_id,omitempty"`
	AssignedUserName *string    `json:"assigned_user_name,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// TeamName is joined in for list responses, never written.
	TeamName *string `json:"team_name,omitempty"`
}

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

func ValidPriority(p string) bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

func (t *Task) IsPersonal() bool {
	return t.TeamID == nil
}
