package auth

import "github.com/newsstandhq/newsstand/pkg/models"

// LoginPayload represents the login request body.
type LoginPayload struct {
	Username string `json:"username" mod:"trim" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the bearer token alongside the logged in user.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}
