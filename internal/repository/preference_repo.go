package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"textdesk-backend/internal/models"
)

// ErrNotFound is returned when a client has never saved preferences.
var ErrNotFound = errors.New("not found")

type PreferenceRepo struct {
	pool *pgxpool.Pool
}

func NewPreferenceRepo(pool *pgxpool.Pool) *PreferenceRepo {
	return &PreferenceRepo{pool: pool}
}

func (r *PreferenceRepo) Get(ctx context.Context, clientID uuid.UUID) (*models.Preferences, error) {
	p := &models.Preferences{}
	err := r.pool.QueryRow(ctx,
		`SELECT client_id, language, theme, updated_at FROM client_preferences WHERE client_id = $1`,
		clientID,
	).Scan(&p.ClientID, &p.Language, &p.Theme, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Upsert stores p and fills in UpdatedAt.
func (r *PreferenceRepo) Upsert(ctx context.Context, p *models.Preferences) error {
	query := `
		INSERT INTO client_preferences (client_id, language, theme)
		VALUES ($1, $2, $3)
		ON CONFLICT (client_id) DO UPDATE
		SET language = EXCLUDED.language, theme = EXCLUDED.theme, updated_at = NOW()
		RETURNING updated_at`

	return r.pool.QueryRow(ctx, query, p.ClientID, p.Language, p.Theme).Scan(&p.UpdatedAt)
}
