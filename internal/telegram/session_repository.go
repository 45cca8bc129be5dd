package telegram

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mathly/internal/storage/storagedb"
)

// Session is a chat waiting for the argument of a command, e.g. the
// equation after a bare /solve.
type Session struct {
	ChatID         int64
	UserID         int64
	PendingCommand string
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// SessionRepository provides access to session persistence operations
type SessionRepository struct {
	queries *storagedb.Queries
	now     func() time.Time
}

// NewSessionRepository creates a new SessionRepository instance
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{
		queries: storagedb.New(db),
		now:     time.Now,
	}
}

// Begin records that chatID awaits input for command. An existing session
// for the chat is replaced.
func (sr *SessionRepository) Begin(ctx context.Context, chatID, userID int64, command string, ttl time.Duration) error {
	now := sr.now()
	return sr.queries.UpsertChatSession(ctx, storagedb.UpsertChatSessionParams{
		ChatID:         chatID,
		UserID:         userID,
		PendingCommand: command,
		ExpiresAt:      now.Add(ttl).UnixMilli(),
		CreatedAt:      now.UnixMilli(),
	})
}

// Active returns the unexpired session of chatID, or nil when there is none.
func (sr *SessionRepository) Active(ctx context.Context, chatID int64) (*Session, error) {
	row, err := sr.queries.GetActiveChatSession(ctx, storagedb.GetActiveChatSessionParams{
		ChatID:    chatID,
		ExpiresAt: sr.now().UnixMilli(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &Session{
		ChatID:         row.ChatID,
		UserID:         row.UserID,
		PendingCommand: row.PendingCommand,
		ExpiresAt:      time.UnixMilli(row.ExpiresAt).UTC(),
		CreatedAt:      time.UnixMilli(row.CreatedAt).UTC(),
	}, nil
}

// End removes the session of chatID.
func (sr *SessionRepository) End(ctx context.Context, chatID int64) error {
	return sr.queries.DeleteChatSession(ctx, chatID)
}

// CleanupExpired removes all expired sessions (optional maintenance task)
func (sr *SessionRepository) CleanupExpired(ctx context.Context) (int64, error) {
	return sr.queries.CleanupExpiredChatSessions(ctx, sr.now().UnixMilli())
}
