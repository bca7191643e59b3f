package dto

import "github.com/google/uuid"

type CreateTeamRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=100"`
	Secret string `json:"secret" validate:"required,min=6,max=72"`
}

type JoinTeamRequest struct {
	JoinCode string `json:"join_code" validate:"required,len=6"`
	Secret   string `json:"secret" validate:"required"`
}

type UpdateTeamRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Secret *string `json:"secret,omitempty" validate:"omitempty,min=6,max=72"`
}

type AddMemberRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Role   string    `json:"role,omitempty" validate:"omitempty,oneof=owner member"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=owner member"`
}

type TeamResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	JoinCode  string    `json:"join_code"`
	CreatorID uuid.UUID `json:"creator_id"`
	Role      string    `json:"role,omitempty"`
	CreatedAt string    `json:"created_at"`
}

type TeamMemberResponse struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
}
