package database

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"payables_service/internal/config/connections/postgres"
	"payables_service/internal/models"

	"github.com/jackc/pgx/v5"
)

// TokensRepo resolves plain bearer tokens to acting users. Tokens are stored
// hashed; the authority level rides along for the approval policy.
type TokensRepo struct {
	pg *postgres.Postgres
}

func NewTokensRepo(pg *postgres.Postgres) *TokensRepo {
	return &TokensRepo{pg: pg}
}

const selectTokenQuery = `
	SELECT actor_id, actor_name, authority_level, expires_at
	FROM api_tokens
	WHERE token_hash = $1
`

func (r *TokensRepo) FindActorByToken(ctx context.Context, plainToken string) (*models.Actor, error) {
	plainToken = strings.TrimSpace(plainToken)
	if plainToken == "" {
		return nil, errors.New("empty token")
	}

	sum := sha256.Sum256([]byte(plainToken))
	hash := fmt.Sprintf("%x", sum)

	var actor models.Actor
	var expiresAt *time.Time
	err := r.pg.Pool.QueryRow(ctx, selectTokenQuery, hash).Scan(
		&actor.ID, &actor.Name, &actor.AuthorityLevel, &expiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New("token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("token lookup failed: %w", err)
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return nil, errors.New("token expired")
	}
	return &actor, nil
}
