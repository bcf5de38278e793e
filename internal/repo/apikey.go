package repo

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"pilot-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrAPIKeyNotFound indicates the key does not exist within the account
	ErrAPIKeyNotFound = errors.New("api key not found in account")

	// ErrAPIKeyRevoked indicates the key exists but has been revoked
	ErrAPIKeyRevoked = errors.New("api key has been revoked")
)

const apiKeyPrefix = "pk_live_"

// APIKeyRepository handles API key storage. Only SHA-256 hashes are persisted;
// plaintext leaves the process exactly once, in the create response.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// hashAPIKey hashes a plaintext key for storage and lookup
func hashAPIKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// generatePlaintext mints a new key: prefix + 32 random bytes hex-encoded
func generatePlaintext() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}

// List retrieves all keys for an account, revoked ones included
func (r *APIKeyRepository) List(ctx context.Context, accountID string) ([]domain.APIKey, error) {
	query := `
		SELECT id, user_id, name, key_prefix, last_used_at, revoked_at, created_by, created_at
		FROM api_keys
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("query api keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.APIKey
	for rows.Next() {
		var k domain.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyPrefix, &k.LastUsedAt, &k.RevokedAt, &k.CreatedBy, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api keys: %w", err)
	}

	return keys, nil
}

// Create mints a new key for the account. createdBy records the acting member.
func (r *APIKeyRepository) Create(ctx context.Context, accountID, createdBy string, req *domain.CreateAPIKeyRequest) (*domain.CreatedAPIKey, error) {
	plaintext, err := generatePlaintext()
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, name, key_prefix, last_used_at, revoked_at, created_by, created_at
	`

	var k domain.APIKey
	err = r.pool.QueryRow(ctx, query,
		uuid.NewString(), accountID, req.Name, hashAPIKey(plaintext), plaintext[:len(apiKeyPrefix)+8], createdBy,
	).Scan(&k.ID, &k.UserID, &k.Name, &k.KeyPrefix, &k.LastUsedAt, &k.RevokedAt, &k.CreatedBy, &k.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert api key: %w", err)
	}

	return &domain.CreatedAPIKey{APIKey: k, Plaintext: plaintext}, nil
}

// Revoke marks a key revoked, scoped to the account
func (r *APIKeyRepository) Revoke(ctx context.Context, accountID, keyID string) error {
	query := `
		UPDATE api_keys
		SET revoked_at = NOW()
		WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL
	`

	tag, err := r.pool.Exec(ctx, query, keyID, accountID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}

	return nil
}

// Authenticate resolves a plaintext key to its owning account id and updates
// last_used_at. Revoked keys fail closed.
func (r *APIKeyRepository) Authenticate(ctx context.Context, plaintext string) (string, error) {
	query := `
		UPDATE api_keys
		SET last_used_at = NOW()
		WHERE key_hash = $1 AND revoked_at IS NULL
		RETURNING user_id
	`

	var accountID string
	err := r.pool.QueryRow(ctx, query, hashAPIKey(plaintext)).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrAPIKeyNotFound
		}
		return "", fmt.Errorf("authenticate api key: %w", err)
	}

	return accountID, nil
}
