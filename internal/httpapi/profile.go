package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mathly/internal/profile"
)

// SignInRequest represents the request body for signing in
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse is returned after a successful sign-in.
type SessionResponse struct {
	AccessToken     string       `json:"accessToken"`
	RefreshToken    string       `json:"refreshToken"`
	ExpiresAt       *time.Time   `json:"expiresAt,omitempty"`
	User            profile.User `json:"user"`
	ProfileComplete bool         `json:"profileComplete"`
}

// SaveProfileRequest represents the editable profile fields
type SaveProfileRequest struct {
	FullName string `json:"full_name"`
	Grade    string `json:"grade"`
	School   string `json:"school"`
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !s.decode(w, r, &req) {
		return
	}

	session, err := s.profiles.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Info("sign in rejected", zap.Error(err))
		s.respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	resp := SessionResponse{
		AccessToken:     session.AccessToken,
		RefreshToken:    session.RefreshToken,
		User:            session.User,
		ProfileComplete: session.ProfileComplete,
	}
	if !session.ExpiresAt.IsZero() {
		resp.ExpiresAt = &session.ExpiresAt
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	if err := s.profiles.SignOut(r.Context(), sessionFrom(r.Context())); err != nil {
		// the token is already unusable locally
		s.logger.Warn("sign out failed at backend", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.GetProfile(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) saveProfile(w http.ResponseWriter, r *http.Request) {
	var req SaveProfileRequest
	if !s.decode(w, r, &req) {
		return
	}

	session := sessionFrom(r.Context())
	current, err := s.profiles.GetProfile(r.Context(), session)
	if err != nil && !errors.Is(err, profile.ErrProfileNotFound) {
		s.respondFailure(w, r, err)
		return
	}
	current.FullName = req.FullName
	current.Grade = req.Grade
	current.School = req.School

	saved, err := s.profiles.SaveProfile(r.Context(), session, current)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, saved)
}

func (s *Server) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := readUpload(w, r, "avatar", profile.MaxAvatarSize)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	url, err := s.profiles.UploadAvatar(r.Context(), sessionFrom(r.Context()), data, contentType)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}
