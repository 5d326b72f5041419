package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianvossen/gatherly-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Nickname      string     `json:"nickname"`
	Phone         *string    `json:"phone,omitempty"`
	RefundAccount *string    `json:"refund_account,omitempty"`
	IsActive      bool       `json:"is_active"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email         string
	PasswordHash  string
	Nickname      string
	Phone         *string
	RefundAccount *string
	IsActive      *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		Nickname:      u.Nickname,
		Phone:         u.Phone,
		RefundAccount: u.RefundAccount,
		IsActive:      u.IsActive,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	return &models.User{
		Email:         c.Email,
		PasswordHash:  c.PasswordHash,
		Nickname:      c.Nickname,
		Phone:         c.Phone,
		RefundAccount: c.RefundAccount,
		IsActive:      isActive,
	}
}
