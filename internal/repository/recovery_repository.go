package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streetburger/issuedesk/internal/domain"
)

// RecoveryRepository manages password recovery token persistence.
type RecoveryRepository interface {
	Create(ctx context.Context, token *domain.RecoveryToken) error
	GetByToken(ctx context.Context, token string) (*domain.RecoveryToken, error)
	MarkUsed(ctx context.Context, id string) error
}

type recoveryRepository struct {
	pool *pgxpool.Pool
}

// NewRecoveryRepository constructs repository.
func NewRecoveryRepository(pool *pgxpool.Pool) RecoveryRepository {
	return &recoveryRepository{pool: pool}
}

func (r *recoveryRepository) Create(ctx context.Context, token *domain.RecoveryToken) error {
	if err := requirePool(r.pool != nil); err != nil {
		return err
	}
	const query = `
        INSERT INTO recovery_tokens (user_id, token, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		token.UserID,
		token.Token,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
	return classify("create recovery token", err)
}

func (r *recoveryRepository) GetByToken(ctx context.Context, tokenStr string) (*domain.RecoveryToken, error) {
	if err := requirePool(r.pool != nil); err != nil {
		return nil, err
	}
	const query = `
        SELECT id, user_id, token, expires_at, used_at, created_at
        FROM recovery_tokens WHERE token=$1`
	var token domain.RecoveryToken
	if err := r.pool.QueryRow(ctx, query, tokenStr).Scan(
		&token.ID,
		&token.UserID,
		&token.Token,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, classify("get recovery token", err)
	}
	return &token, nil
}

// MarkUsed consumes the token; a token can be consumed once.
func (r *recoveryRepository) MarkUsed(ctx context.Context, id string) error {
	if err := requirePool(r.pool != nil); err != nil {
		return err
	}
	const query = `
        UPDATE recovery_tokens SET used_at=NOW()
        WHERE id=$1 AND used_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return classify("mark recovery token used", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
