package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"

	"mathly/internal/config"
)

// SupabaseBackend implements Backend with Supabase auth, PostgREST and storage.
type SupabaseBackend struct {
	client        *supabase.Client
	profilesTable string
	avatarBucket  string
}

var _ Backend = (*SupabaseBackend)(nil)

// NewSupabaseBackend connects to the project configured in cfg.
func NewSupabaseBackend(cfg config.SupabaseConfig) (*SupabaseBackend, error) {
	if !cfg.Enabled() {
		return nil, errors.New("supabase is not configured")
	}
	client, err := supabase.NewClient(cfg.URL, cfg.Key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseBackend{
		client:        client,
		profilesTable: cfg.ProfilesTable,
		avatarBucket:  cfg.AvatarBucket,
	}, nil
}

// SignIn uses the password grant.
func (b *SupabaseBackend) SignIn(ctx context.Context, email, password string) (Tokens, error) {
	if err := ctx.Err(); err != nil {
		return Tokens{}, err
	}

	resp, err := b.client.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return Tokens{}, err
	}

	expiresAt := time.Unix(resp.ExpiresAt, 0).UTC()
	if resp.ExpiresAt == 0 {
		expiresAt = time.Now().UTC().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	return Tokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiresAt,
		User:         User{ID: resp.User.ID.String(), Email: resp.User.Email},
	}, nil
}

// SignOut revokes the session of accessToken.
func (b *SupabaseBackend) SignOut(ctx context.Context, accessToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.client.Auth.WithToken(accessToken).Logout()
}

// User looks up the owner of accessToken.
func (b *SupabaseBackend) User(ctx context.Context, accessToken string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	resp, err := b.client.Auth.WithToken(accessToken).GetUser()
	if err != nil {
		return User{}, err
	}
	return User{ID: resp.ID.String(), Email: resp.Email}, nil
}

// FetchProfile selects the profile row keyed by userID.
func (b *SupabaseBackend) FetchProfile(ctx context.Context, userID string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}

	var rows []Profile
	if _, err := b.client.From(b.profilesTable).Select("*", "", false).Eq("id", userID).ExecuteTo(&rows); err != nil {
		return Profile{}, fmt.Errorf("failed to query profile: %w", err)
	}
	if len(rows) == 0 {
		return Profile{}, ErrProfileNotFound
	}
	return rows[0], nil
}

// UpsertProfile inserts or replaces the profile row.
func (b *SupabaseBackend) UpsertProfile(ctx context.Context, p Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, _, err := b.client.From(b.profilesTable).Upsert(p, "id", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// UploadObject stores data in the avatar bucket and returns its public URL.
func (b *SupabaseBackend) UploadObject(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	upsert := true
	_, err := b.client.Storage.UploadFile(b.avatarBucket, path, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return b.client.Storage.GetPublicUrl(b.avatarBucket, path).SignedURL, nil
}
