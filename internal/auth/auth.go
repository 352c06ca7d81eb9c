package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"rovercam/pkg/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Manager issues and checks upload tokens for the camera producer
type Manager struct {
	tokens map[string]*models.UploadToken // token -> UploadToken
	mu     sync.RWMutex

	// Config
	defaultExpiration time.Duration
	maxExpiration     time.Duration
	now               func() time.Time
}

// New creates a new auth manager
func New(defaultExpiration, maxExpiration time.Duration) *Manager {
	return &Manager{
		tokens:            make(map[string]*models.UploadToken),
		defaultExpiration: defaultExpiration,
		maxExpiration:     maxExpiration,
		now:               time.Now,
	}
}

// GenerateUploadToken creates a new token valid for expiresIn seconds
func (m *Manager) GenerateUploadToken(expiresIn int, issuedTo string) (*models.UploadToken, error) {
	// Generate secure random token
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	tokenString := hex.EncodeToString(tokenBytes)

	// Calculate expiration
	var expiration time.Duration
	if expiresIn > 0 {
		expiration = time.Duration(expiresIn) * time.Second
	} else {
		expiration = m.defaultExpiration
	}

	// Cap at max expiration
	if expiration > m.maxExpiration {
		expiration = m.maxExpiration
	}

	now := m.now()
	token := &models.UploadToken{
		Token:     tokenString,
		CreatedAt: now,
		ExpiresAt: now.Add(expiration),
		IssuedTo:  issuedTo,
	}

	m.mu.Lock()
	m.tokens[tokenString] = token
	m.mu.Unlock()

	return token, nil
}

// ValidateToken checks if a token may be used to upload frames
func (m *Manager) ValidateToken(tokenString string) error {
	if tokenString == "" {
		return ErrInvalidToken
	}

	m.mu.RLock()
	token, exists := m.tokens[tokenString]
	m.mu.RUnlock()

	if !exists {
		return ErrInvalidToken
	}
	if !token.IsValid(m.now()) {
		return ErrTokenExpired
	}
	return nil
}

// RevokeToken revokes a token, reporting whether it existed
func (m *Manager) RevokeToken(tokenString string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.tokens[tokenString]
	delete(m.tokens, tokenString)
	return exists
}

// CleanupExpiredTokens removes all expired tokens and returns how many were removed
func (m *Manager) CleanupExpiredTokens() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for tokenString, token := range m.tokens {
		if !token.IsValid(now) {
			delete(m.tokens, tokenString)
			removed++
		}
	}
	return removed
}

// Run sweeps expired tokens every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupExpiredTokens()
		}
	}
}

// GetTokenCount returns the number of stored tokens
func (m *Manager) GetTokenCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tokens)
}
