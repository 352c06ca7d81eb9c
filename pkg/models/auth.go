package models

import "time"

// UploadToken authorizes a camera producer to push frames
type UploadToken struct {
	Token     string    // The actual token string
	CreatedAt time.Time // When token was created
	ExpiresAt time.Time // When token expires
	IssuedTo  string    // IP address that requested the token
}

// IsValid checks if the token is still valid at the given time
func (t *UploadToken) IsValid(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}

// TokenRequest represents a request to create an upload token
type TokenRequest struct {
	ExpiresIn int `json:"expiresIn"` // Seconds until expiration (default from config)
}

// TokenResponse represents the response to a token request
type TokenResponse struct {
	Token     string `json:"token"`
	UploadURL string `json:"uploadUrl"`
	ExpiresAt string `json:"expiresAt"`
}
