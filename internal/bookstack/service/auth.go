package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
	"github.com/aussiebroadwan/bookstack/pkg/cryptox"
	"github.com/aussiebroadwan/bookstack/pkg/idx"
	"github.com/aussiebroadwan/bookstack/pkg/slogx"
	"github.com/aussiebroadwan/bookstack/pkg/tokenx"
)

// sessionCreateAttempts is how many times login retries session creation
// before giving up with ErrSessionCreation.
const sessionCreateAttempts = 3

// SessionBlacklist is the revocation registry. A blacklisted session id is
// dead even if its row still exists; lookups must NOT fail open.
type SessionBlacklist interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// AuthService owns the session lifecycle: login, token validation, refresh
// rotation, logout and session revocation.
type AuthService struct {
	Store      store.Store
	Codec      *tokenx.Codec
	Blacklist  SessionBlacklist
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// SingleSession purges a user's other sessions on login, restoring
	// one-device-at-a-time behavior. Off by default: people read on their
	// phone and their laptop.
	SingleSession bool
}

// Login verifies credentials and opens a new session, returning its token
// pair. The returned error distinguishes bad credentials from an unverified
// account; everything else is internal.
func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("login password verification failed", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if s.SingleSession {
		deleted, err := s.Store.Sessions().DeleteUserSessions(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		for _, sid := range deleted {
			if err := s.Blacklist.Revoke(ctx, sid, s.RefreshTTL); err != nil {
				l.Error("failed to blacklist purged session", "error", err, "session_id", sid)
			}
		}
	}

	session, err := s.createSession(ctx, user.ID, ip, userAgent, now)
	if err != nil {
		return nil, err
	}

	pair, err := s.mintPair(user, session.ID)
	if err != nil {
		return nil, err
	}

	// Best-effort; a missing last_login never blocks a login.
	if err := s.Store.Users().UpdateLastLogin(ctx, user.ID, now); err != nil {
		l.Error("failed to update last_login", "error", err, "user_id", user.ID)
	}

	l.Info("login succeeded", "user_id", user.ID, "session_id", session.ID)
	return pair, nil
}

// createSession inserts the session row and reads it back before any token
// referencing it is minted. Transient insert failures are retried with a
// fresh id; exhaustion means we must not hand out tokens.
func (s *AuthService) createSession(ctx context.Context, userID, ip, userAgent string, now time.Time) (domain.Session, error) {
	l := slogx.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= sessionCreateAttempts; attempt++ {
		session := domain.Session{
			ID:        idx.New().String(),
			UserID:    userID,
			IPAddress: ip,
			UserAgent: userAgent,
			ExpiresAt: now.Add(s.RefreshTTL),
		}

		if err := s.Store.Sessions().CreateSession(ctx, session); err != nil {
			lastErr = err
			l.Warn("session create failed", "error", err, "attempt", attempt)
			continue
		}

		// Read-back: the row must be visible before tokens referencing it
		// leave the building.
		stored, err := s.Store.Sessions().GetSession(ctx, session.ID)
		if err != nil {
			lastErr = err
			l.Warn("session read-back failed", "error", err, "attempt", attempt)
			continue
		}
		return stored, nil
	}

	l.Error("session creation exhausted retries", "error", lastErr, "user_id", userID)
	return domain.Session{}, ErrSessionCreation
}

func (s *AuthService) mintPair(user domain.User, sessionID string) (*domain.TokenPair, error) {
	access, err := s.Codec.Encode(user.ID, sessionID, tokenx.UseAccess, s.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Codec.Encode(user.ID, sessionID, tokenx.UseRefresh, s.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
		Username:     user.Username,
	}, nil
}

// Validate resolves an access token to an identity. Every failure collapses
// to ErrUnauthenticated so callers can't probe which check tripped; the real
// cause goes to the log.
func (s *AuthService) Validate(ctx context.Context, accessToken string) (domain.Identity, error) {
	l := slogx.FromContext(ctx)

	claims, err := s.Codec.Decode(accessToken)
	if err != nil {
		l.Debug("token decode failed", "error", err)
		return domain.Identity{}, ErrUnauthenticated
	}
	if claims.Use != tokenx.UseAccess {
		l.Debug("wrong token use presented", "use", claims.Use)
		return domain.Identity{}, ErrUnauthenticated
	}

	revoked, err := s.Blacklist.IsRevoked(ctx, claims.SessionID)
	if err != nil {
		// Registry down means we can't prove the session is alive.
		l.Error("revocation registry lookup failed", "error", err)
		return domain.Identity{}, ErrUnauthenticated
	}
	if revoked {
		l.Debug("revoked session presented", "session_id", claims.SessionID)
		return domain.Identity{}, ErrUnauthenticated
	}

	session, err := s.Store.Sessions().GetActiveSession(ctx, claims.SessionID)
	if err != nil {
		l.Debug("no active session for token", "session_id", claims.SessionID)
		return domain.Identity{}, ErrUnauthenticated
	}
	if session.UserID != claims.Subject {
		l.Warn("token subject does not own session", "session_id", claims.SessionID)
		return domain.Identity{}, ErrUnauthenticated
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil || !user.IsActive {
		l.Debug("token user missing or inactive", "user_id", claims.Subject)
		return domain.Identity{}, ErrUnauthenticated
	}

	return domain.Identity{User: user, SessionID: session.ID}, nil
}

// Refresh rotates a session: the old session is destroyed and blacklisted,
// a new one is created reusing the old connection metadata, and a fresh
// token pair is issued against it.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	claims, err := s.Codec.Decode(refreshToken)
	if err != nil {
		l.Debug("refresh token decode failed", "error", err)
		return nil, ErrUnauthenticated
	}
	if claims.Use != tokenx.UseRefresh {
		return nil, ErrUnauthenticated
	}

	revoked, err := s.Blacklist.IsRevoked(ctx, claims.SessionID)
	if err != nil {
		l.Error("revocation registry lookup failed", "error", err)
		return nil, ErrUnauthenticated
	}
	if revoked {
		return nil, ErrUnauthenticated
	}

	old, err := s.Store.Sessions().GetActiveSession(ctx, claims.SessionID)
	if err != nil {
		// Expired or deleted. Blacklist the id anyway so a racing request
		// can't slip through on a stale row.
		s.revokeSession(ctx, claims.SessionID)
		return nil, ErrUnauthenticated
	}

	user, err := s.Store.Users().GetUserByID(ctx, old.UserID)
	if err != nil || !user.IsActive {
		s.revokeSession(ctx, old.ID)
		return nil, ErrUnauthenticated
	}

	// Rotate: new session takes over the old one's connection metadata.
	newSession := domain.Session{
		ID:        idx.New().String(),
		UserID:    user.ID,
		IPAddress: old.IPAddress,
		UserAgent: old.UserAgent,
		ExpiresAt: now.Add(s.RefreshTTL),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Sessions().CreateSession(ctx, newSession); err != nil {
			return err
		}
		return tx.Sessions().DeleteSession(ctx, old.ID)
	})
	if err != nil {
		return nil, err
	}

	// The old session row is gone; the registry entry covers any token
	// minted against it that is still in flight.
	s.revokeSession(ctx, old.ID)

	l.Info("session rotated", "user_id", user.ID, "old_session_id", old.ID, "session_id", newSession.ID)
	return s.mintPair(user, newSession.ID)
}

// Logout kills the current session. Calling it twice is fine.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.Blacklist.Revoke(ctx, sessionID, s.RefreshTTL); err != nil {
		return err
	}
	return s.Store.Sessions().DeleteSession(ctx, sessionID)
}

// ListSessions returns the caller's active sessions, newest first.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	return s.Store.Sessions().ListActiveSessionsByUser(ctx, userID)
}

// RevokeSession kills one of the caller's sessions. Sessions owned by other
// users are reported as missing, not forbidden.
func (s *AuthService) RevokeSession(ctx context.Context, userID, sessionID string) error {
	session, err := s.Store.Sessions().GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if session.UserID != userID {
		return ErrNotFound
	}

	if err := s.Blacklist.Revoke(ctx, sessionID, s.RefreshTTL); err != nil {
		return err
	}
	return s.Store.Sessions().DeleteSession(ctx, sessionID)
}

// RevokeOtherSessions kills every session of the caller except the current
// one. Returns how many sessions were revoked.
func (s *AuthService) RevokeOtherSessions(ctx context.Context, userID, currentSessionID string) (int, error) {
	l := slogx.FromContext(ctx)

	deleted, err := s.Store.Sessions().DeleteUserSessions(ctx, userID, currentSessionID)
	if err != nil {
		return 0, err
	}
	for _, sid := range deleted {
		if err := s.Blacklist.Revoke(ctx, sid, s.RefreshTTL); err != nil {
			l.Error("failed to blacklist revoked session", "error", err, "session_id", sid)
		}
	}
	return len(deleted), nil
}

// revokeSession is the fire-and-forget pairing of registry write + row
// delete used on the failure paths of Refresh.
func (s *AuthService) revokeSession(ctx context.Context, sessionID string) {
	l := slogx.FromContext(ctx)
	if err := s.Blacklist.Revoke(ctx, sessionID, s.RefreshTTL); err != nil {
		l.Error("failed to blacklist session", "error", err, "session_id", sessionID)
	}
	if err := s.Store.Sessions().DeleteSession(ctx, sessionID); err != nil {
		l.Error("failed to delete session", "error", err, "session_id", sessionID)
	}
}
