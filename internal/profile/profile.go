// Package profile manages sign-in sessions and the user profile stored in
// the backend-as-a-service.
package profile

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotAuthenticated is returned for a missing, signed-out or expired session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrProfileNotFound is returned when the user has not saved a profile yet.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidAvatar is returned for empty, oversized or non-image avatars.
	ErrInvalidAvatar = errors.New("invalid avatar")
)

// User is the authenticated account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Tokens is what the auth backend returns on sign-in.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// Profile is the key-value row kept per user.
type Profile struct {
	UserID    string    `json:"id" validate:"required"`
	FullName  string    `json:"full_name" validate:"required,max=100"`
	Grade     string    `json:"grade,omitempty" validate:"omitempty,max=50"`
	School    string    `json:"school,omitempty" validate:"omitempty,max=120"`
	AvatarURL string    `json:"avatar_url,omitempty" validate:"omitempty,url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Complete reports whether the profile has the fields required to use the app.
func (p Profile) Complete() bool {
	return strings.TrimSpace(p.FullName) != ""
}

// Session is the state of one signed-in user. It is created by
// Service.SignIn or Service.SessionFromToken and ends with Service.SignOut.
// A Session is not safe for concurrent use.
type Session struct {
	AccessToken     string
	RefreshToken    string
	User            User
	ExpiresAt       time.Time
	ProfileComplete bool

	signedOut bool
}

// Active reports whether the session can still be used at now.
func (s *Session) Active(now time.Time) bool {
	if s == nil || s.signedOut || s.AccessToken == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Backend is the auth, row and object storage collaborator.
type Backend interface {
	SignIn(ctx context.Context, email, password string) (Tokens, error)
	SignOut(ctx context.Context, accessToken string) error
	User(ctx context.Context, accessToken string) (User, error)
	FetchProfile(ctx context.Context, userID string) (Profile, error)
	UpsertProfile(ctx context.Context, p Profile) error
	UploadObject(ctx context.Context, path string, data []byte, contentType string) (string, error)
}
