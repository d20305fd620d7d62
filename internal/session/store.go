// Package session tracks whether a user is authenticated on this client.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when there is no active session.
var ErrNotFound = errors.New("no active session")

// Session is one authenticated user context.
type Session struct {
	ID        string     `json:"id"`
	Handle    string     `json:"handle"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Store persists sessions in SQLite. At most one session is active.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a Store over a bootstrapped database.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With("component", "session"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Login starts a session for handle, revoking any previously active one.
func (s *Store) Login(ctx context.Context, handle string) (*Session, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("handle is empty")
	}

	now := s.now()
	nowS := now.Format(time.RFC3339Nano)
	sess := &Session{ID: uuid.NewString(), Handle: handle, CreatedAt: now}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin login: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET revoked_at = ? WHERE revoked_at IS NULL;`, nowS); err != nil {
		return nil, fmt.Errorf("revoke previous sessions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO sessions(id, handle, created_at)
VALUES(?, ?, ?);
`, sess.ID, sess.Handle, nowS); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit login: %w", err)
	}

	s.logger.Info("session started", "session_id", sess.ID, "handle", sess.Handle)
	return sess, nil
}

// Logout revokes the active session. It returns the number of sessions revoked.
func (s *Store) Logout(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET revoked_at = ? WHERE revoked_at IS NULL;`, s.now().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("session ended", "revoked", n)
	}
	return int(n), nil
}

// Active returns the active session or ErrNotFound.
func (s *Store) Active(ctx context.Context) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, handle, created_at
FROM sessions
WHERE revoked_at IS NULL
ORDER BY created_at DESC, rowid DESC
LIMIT 1;
`)

	var (
		sess       Session
		createdAtS string
	)
	if err := row.Scan(&sess.ID, &sess.Handle, &createdAtS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query active session: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAtS); err == nil {
		sess.CreatedAt = t
	}
	return &sess, nil
}

// HasSession reports whether a session is active. Storage errors count as
// no session.
func (s *Store) HasSession(ctx context.Context) bool {
	_, err := s.Active(ctx)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrNotFound) {
		s.logger.Warn("session lookup failed; treating as unauthenticated", "error", err)
	}
	return false
}
