package handler

import "github.com/connectify/social-api/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// messageResponse acknowledges an operation that has no resource to return.
type messageResponse struct {
	Message string `json:"message"`
}

type updatedResponse struct {
	Updated int64 `json:"updated"`
}

// --- Auth ---

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string          `json:"token"`
	User  *domain.Account `json:"user"`
}

// --- Accounts ---

type updateProfileRequest struct {
	Name   *string `json:"name"   validate:"omitempty,max=100"`
	Bio    *string `json:"bio"    validate:"omitempty,max=500"`
	Avatar *string `json:"avatar" validate:"omitempty,max=2048"`
}

// --- Posts ---

type createPostRequest struct {
	Text  string `json:"text"  validate:"max=5000"`
	Image string `json:"image" validate:"omitempty,max=2048"`
}

type updatePostRequest struct {
	Text  *string `json:"text"  validate:"omitempty,max=5000"`
	Image *string `json:"image" validate:"omitempty,max=2048"`
}

type createCommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// --- Messages ---

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Text       string `json:"text"        validate:"required,max=5000"`
	TempID     string `json:"temp_id"     validate:"max=100"`
}
