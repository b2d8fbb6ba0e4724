package dto

type RegisterRequest struct {
	Email    string `json:"email" example:"ada@example.com"`
	Name     string `json:"name" example:"Ada Lovelace"`
	Password string `json:"password" example:"correct horse battery staple"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID         string `json:"id"`
	IdentityID string `json:"identityId"`
	Email      string `json:"email"`
	Name       string `json:"name"`
}

// GenerateTokenResponse carries a desktop companion credential.
type GenerateTokenResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	ExpiresIn string `json:"expiresIn" example:"30 days"`
	ExpiresAt string `json:"expiresAt" example:"2025-04-13T10:00:00Z"`
}

type TokenStatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
