package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxAvatarSize bounds uploaded avatar images.
const MaxAvatarSize = 5 << 20

var avatarExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// Service implements sign-in, sign-out and profile operations.
type Service struct {
	backend   Backend
	jwtSecret string
	validate  *validator.Validate
	now       func() time.Time
	logger    *zap.Logger
}

// NewService creates a Service. jwtSecret may be empty, in which case access
// tokens are confirmed with the backend.
func NewService(backend Backend, jwtSecret string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend:   backend,
		jwtSecret: jwtSecret,
		validate:  validator.New(),
		now:       time.Now,
		logger:    logger,
	}
}

// SignIn authenticates with email and password and starts a Session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := s.validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}

	tokens, err := s.backend.SignIn(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	session := &Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         tokens.User,
		ExpiresAt:    tokens.ExpiresAt,
	}
	s.loadProfileState(ctx, session)

	s.logger.Info("user signed in", zap.String("user_id", session.User.ID))
	return session, nil
}

// SessionFromToken rebuilds a Session from a bearer access token.
func (s *Service) SessionFromToken(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	claims, err := ParseAccessToken(token, s.jwtSecret, s.now())
	if err != nil {
		return nil, err
	}

	user := User{ID: claims.Subject, Email: claims.Email}
	if s.jwtSecret == "" {
		// Unverified token: the backend has the final word.
		user, err = s.backend.User(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
		}
	}

	session := &Session{AccessToken: token, User: user}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	s.loadProfileState(ctx, session)
	return session, nil
}

func (s *Service) loadProfileState(ctx context.Context, session *Session) {
	p, err := s.backend.FetchProfile(ctx, session.User.ID)
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			s.logger.Warn("failed to load profile", zap.String("user_id", session.User.ID), zap.Error(err))
		}
		return
	}
	session.ProfileComplete = p.Complete()
}

// SignOut ends session. The session is unusable afterwards even when the
// backend call fails.
func (s *Service) SignOut(ctx context.Context, session *Session) error {
	if !session.Active(s.now()) {
		return ErrNotAuthenticated
	}

	token := session.AccessToken
	session.signedOut = true
	session.AccessToken = ""
	session.RefreshToken = ""
	session.ProfileComplete = false

	if err := s.backend.SignOut(ctx, token); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// CurrentUser returns the user of an active session.
func (s *Service) CurrentUser(session *Session) (User, error) {
	if !session.Active(s.now()) {
		return User{}, ErrNotAuthenticated
	}
	return session.User, nil
}

// GetProfile returns the profile of the session's user.
func (s *Service) GetProfile(ctx context.Context, session *Session) (Profile, error) {
	user, err := s.CurrentUser(session)
	if err != nil {
		return Profile{}, err
	}
	return s.backend.FetchProfile(ctx, user.ID)
}

// SaveProfile validates and upserts p for the session's user. The user id
// always comes from the session.
func (s *Service) SaveProfile(ctx context.Context, session *Session, p Profile) (Profile, error) {
	user, err := s.CurrentUser(session)
	if err != nil {
		return Profile{}, err
	}

	p.UserID = user.ID
	p.UpdatedAt = s.now().UTC()
	if err := s.validate.Struct(p); err != nil {
		return Profile{}, fmt.Errorf("invalid profile: %w", err)
	}

	if err := s.backend.UpsertProfile(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("failed to save profile: %w", err)
	}
	session.ProfileComplete = p.Complete()
	return p, nil
}

// UploadAvatar stores an image and records its public URL in the profile.
// contentType is sniffed from data when empty.
func (s *Service) UploadAvatar(ctx context.Context, session *Session, data []byte, contentType string) (string, error) {
	user, err := s.CurrentUser(session)
	if err != nil {
		return "", err
	}
	if len(data) == 0 || len(data) > MaxAvatarSize {
		return "", fmt.Errorf("%w: size must be between 1 byte and %d bytes", ErrInvalidAvatar, MaxAvatarSize)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported type %q", ErrInvalidAvatar, contentType)
	}

	path := fmt.Sprintf("%s/avatar-%s.%s", user.ID, uuid.NewString(), ext)
	url, err := s.backend.UploadObject(ctx, path, data, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	p, err := s.backend.FetchProfile(ctx, user.ID)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return "", err
	}
	p.UserID = user.ID
	p.AvatarURL = url
	p.UpdatedAt = s.now().UTC()
	if err := s.backend.UpsertProfile(ctx, p); err != nil {
		return "", fmt.Errorf("failed to save avatar url: %w", err)
	}
	return url, nil
}
