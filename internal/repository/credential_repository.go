package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Credential is an auth provider account.
type Credential struct {
	ID           string
	Email        string
	PasswordHash string
	Metadata     CredentialMetadata
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CredentialMetadata is the free-form profile data stored with the account.
type CredentialMetadata struct {
	FullName  string `json:"full_name,omitempty"`
	Role      string `json:"role,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// CredentialRepository manages auth_users rows.
type CredentialRepository interface {
	Create(ctx context.Context, cred *Credential) error
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	GetByID(ctx context.Context, id string) (*Credential, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateMetadata(ctx context.Context, id string, metadata CredentialMetadata) error
}

type credentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository constructs repository.
func NewCredentialRepository(pool *pgxpool.Pool) CredentialRepository {
	return &credentialRepository{pool: pool}
}

func (r *credentialRepository) Create(ctx context.Context, cred *Credential) error {
	if err := requirePool(r.pool != nil); err != nil {
		return err
	}
	metadata, err := json.Marshal(cred.Metadata)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO auth_users (email, password_hash, metadata)
        VALUES ($1,$2,$3::jsonb)
        RETURNING id, created_at, updated_at`
	err = r.pool.QueryRow(ctx, query, cred.Email, cred.PasswordHash, string(metadata)).
		Scan(&cred.ID, &cred.CreatedAt, &cred.UpdatedAt)
	return classify("create credential", err)
}

func (r *credentialRepository) GetByEmail(ctx context.Context, email string) (*Credential, error) {
	const query = `
        SELECT id, email, password_hash, metadata, created_at, updated_at
        FROM auth_users WHERE lower(email)=lower($1)`
	return r.fetchSingle(ctx, "get credential by email", query, email)
}

func (r *credentialRepository) GetByID(ctx context.Context, id string) (*Credential, error) {
	const query = `
        SELECT id, email, password_hash, metadata, created_at, updated_at
        FROM auth_users WHERE id=$1`
	return r.fetchSingle(ctx, "get credential", query, id)
}

func (r *credentialRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if err := requirePool(r.pool != nil); err != nil {
		return err
	}
	const query = `UPDATE auth_users SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return classify("update password", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMetadata merges the non-empty metadata fields into the stored document.
func (r *credentialRepository) UpdateMetadata(ctx context.Context, id string, metadata CredentialMetadata) error {
	if err := requirePool(r.pool != nil); err != nil {
		return err
	}
	patch, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	const query = `UPDATE auth_users SET metadata = metadata || $1::jsonb, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, string(patch), id)
	if err != nil {
		return classify("update metadata", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *credentialRepository) fetchSingle(ctx context.Context, op, query string, arg any) (*Credential, error) {
	if err := requirePool(r.pool != nil); err != nil {
		return nil, err
	}
	var (
		cred     Credential
		metadata []byte
	)
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&cred.ID,
		&cred.Email,
		&cred.PasswordHash,
		&metadata,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	); err != nil {
		return nil, classify(op, err)
	}
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &cred.Metadata)
	}
	return &cred, nil
}
