package postgres

import (
	"context"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
)

type verificationTokensRepo struct {
	db querier
}

func (r *verificationTokensRepo) CreateVerificationToken(ctx context.Context, t domain.VerificationToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO verification_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)`,
		t.Token, t.UserID, t.ExpiresAt)
	if err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (r *verificationTokensRepo) GetVerificationToken(ctx context.Context, token string) (domain.VerificationToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT token, user_id, expires_at, created_at
		FROM verification_tokens
		WHERE token = $1 AND expires_at > now()`, token)

	var t domain.VerificationToken
	err := row.Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.VerificationToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *verificationTokensRepo) DeleteVerificationToken(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM verification_tokens WHERE token = $1`, token)
	return err
}

func (r *verificationTokensRepo) DeleteExpiredVerificationTokens(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM verification_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
