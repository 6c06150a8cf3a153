package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"nenegana-backend/internal/models"
)

type PlayerRepo struct {
	pool *pgxpool.Pool
}

func NewPlayerRepo(pool *pgxpool.Pool) *PlayerRepo {
	return &PlayerRepo{pool: pool}
}

func (r *PlayerRepo) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (id, display_name)
		VALUES ($1, $2)
		RETURNING created_at, last_seen_at`

	player.ID = uuid.New()

	return r.pool.QueryRow(ctx, query, player.ID, player.DisplayName).
		Scan(&player.CreatedAt, &player.LastSeenAt)
}

func (r *PlayerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	p := &models.Player{}
	query := `SELECT id, display_name, created_at, last_seen_at FROM players WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.DisplayName, &p.CreatedAt, &p.LastSeenAt)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *PlayerRepo) Touch(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "UPDATE players SET last_seen_at = NOW() WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
