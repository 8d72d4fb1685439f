package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
	"github.com/aussiebroadwan/bookstack/pkg/cryptox"
	"github.com/aussiebroadwan/bookstack/pkg/idx"
	"github.com/aussiebroadwan/bookstack/pkg/slogx"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 30
	minPasswordLen = 8

	mailSendTimeout = 10 * time.Second
)

// Mailer delivers transactional mail. Implementations must be safe for
// concurrent use; UserService calls them from goroutines.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, username, token string) error
}

// UserService handles registration and email verification.
type UserService struct {
	Store           store.Store
	Mailer          Mailer
	VerificationTTL time.Duration
}

// Register creates an inactive account and mails a verification token. Mail
// delivery is fire-and-forget: a broken SMTP server must not lose the
// registration.
func (s *UserService) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := validateUsername(username); err != nil {
		return domain.User{}, err
	}
	if err := validateEmail(email); err != nil {
		return domain.User{}, err
	}
	if len(password) < minPasswordLen {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidQuery, minPasswordLen)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     false,
	}

	token := domain.VerificationToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(s.VerificationTTL),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.VerificationTokens().CreateVerificationToken(ctx, token)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, fmt.Errorf("%w: email or username already in use", ErrConflict)
		}
		return domain.User{}, err
	}

	l.Info("user registered", "user_id", user.ID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailSendTimeout)
		defer cancel()
		if err := s.Mailer.SendVerificationEmail(ctx, user.Email, user.Username, token.Token); err != nil {
			l.Error("verification mail send failed", "error", err, "user_id", user.ID)
		}
	}()

	return user, nil
}

// VerifyEmail activates the account behind a verification token and
// consumes the token. Unknown and expired tokens are indistinguishable to
// the caller.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		vt, err := tx.VerificationTokens().GetVerificationToken(ctx, token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Users().ActivateUser(ctx, vt.UserID); err != nil {
			return err
		}
		return tx.VerificationTokens().DeleteVerificationToken(ctx, token)
	})
}

func validateUsername(username string) error {
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return fmt.Errorf("%w: username must be %d-%d characters", ErrInvalidQuery, minUsernameLen, maxUsernameLen)
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return fmt.Errorf("%w: username may only contain letters, digits and underscores", ErrInvalidQuery)
		}
	}
	return nil
}

func validateEmail(email string) error {
	at := strings.IndexByte(email, '@')
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at+1:], ".") {
		return fmt.Errorf("%w: invalid email address", ErrInvalidQuery)
	}
	return nil
}
