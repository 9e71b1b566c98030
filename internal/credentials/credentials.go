// Package credentials stores the identity provider's auth token blob.
package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Prathap331/SB-Next/internal/constants"
	"github.com/Prathap331/SB-Next/internal/logging"
)

// ErrInvalidBlob is returned by Save for blobs without an access token.
var ErrInvalidBlob = errors.New("auth token blob must be a JSON object with an access_token")

// Session is the subset of the token blob storybit reads. The blob itself is
// stored verbatim.
type Session struct {
	User         *User  `json:"user,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Status describes the stored credential.
type Status struct {
	ExpiresAt *time.Time
	Email     string
	SignedIn  bool
	Expired   bool
}

// Store persists the blob in the state table under a project-scoped key.
type Store struct {
	db  *sql.DB
	now func() time.Time
	key string
}

// NewStore returns a store for the given identity project ref.
func NewStore(db *sql.DB, projectRef string) *Store {
	return &Store{
		db:  db,
		key: fmt.Sprintf(constants.AuthTokenKeyFormat, projectRef),
		now: time.Now,
	}
}

// Key returns the state key holding the blob.
func (s *Store) Key() string {
	return s.key
}

// Save stores blob after checking it carries an access token.
func (s *Store) Save(ctx context.Context, blob []byte) error {
	var session Session
	if err := json.Unmarshal(blob, &session); err != nil || session.AccessToken == "" {
		return ErrInvalidBlob
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO state (key, value, updated_at) VALUES (?, ?, ?)",
		s.key, blob, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save auth token: %w", err)
	}
	return nil
}

// Clear removes the stored blob.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM state WHERE key = ?", s.key); err != nil {
		return fmt.Errorf("failed to clear auth token: %w", err)
	}
	return nil
}

// session loads and parses the blob. A malformed blob is deleted and reported
// as absent.
func (s *Store) session(ctx context.Context) (*Session, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM state WHERE key = ?", s.key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absent credential is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read auth token: %w", err)
	}

	var session Session
	if err := json.Unmarshal(blob, &session); err != nil || session.AccessToken == "" {
		logging.Get(ctx).Warn().Str("key", s.key).Msg("discarding malformed auth token blob")
		if clearErr := s.Clear(ctx); clearErr != nil {
			return nil, clearErr
		}
		return nil, nil //nolint:nilnil // malformed is treated as absent
	}
	return &session, nil
}

// AccessToken returns the stored access token, or "" when there is none or it
// has expired.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	session, err := s.session(ctx)
	if err != nil || session == nil {
		return "", err
	}

	if exp := expiry(session.AccessToken); exp != nil && !s.now().Before(*exp) {
		logging.Get(ctx).Debug().Time("expires_at", *exp).Msg("stored access token has expired")
		return "", nil
	}
	return session.AccessToken, nil
}

// Status reports whether a credential is stored and when it expires.
func (s *Store) Status(ctx context.Context) (Status, error) {
	session, err := s.session(ctx)
	if err != nil || session == nil {
		return Status{}, err
	}

	status := Status{SignedIn: true, ExpiresAt: expiry(session.AccessToken)}
	if session.User != nil {
		status.Email = session.User.Email
	}
	if status.ExpiresAt != nil && !s.now().Before(*status.ExpiresAt) {
		status.Expired = true
	}
	return status, nil
}

// expiry reads the exp claim without verifying the signature; the backend
// verifies tokens, storybit only avoids sending ones that are known stale.
// Opaque (non-JWT) tokens have no known expiry.
func expiry(token string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}
