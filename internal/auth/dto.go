// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

// Website on each form is a honeypot. The field is hidden from people, so
// any value means a bot filled it in.
type RegisterRequest struct {
	Username        string `json:"username"         validate:"required,min=1,max=64"`
	Email           string `json:"email"            validate:"required,email,max=255"`
	Password        string `json:"password"         validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	Website         string `json:"website"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
	Website  string `json:"website"`
}

type ForgotRequest struct {
	Email   string `json:"email"   validate:"required,email,max=255"`
	Website string `json:"website"`
}

type ResetRequest struct {
	Password        string `json:"password"         validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	Website         string `json:"website"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type ForgotResponse struct {
	Message  string `json:"message"`
	ResetURL string `json:"reset_url,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func ToUserResponse(u *UserInfo) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
