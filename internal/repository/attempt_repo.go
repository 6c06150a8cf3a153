package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nenegana-backend/internal/models"
)

type AttemptRepo struct {
	pool *pgxpool.Pool
}

func NewAttemptRepo(pool *pgxpool.Pool) *AttemptRepo {
	return &AttemptRepo{pool: pool}
}

// Create stores a finished quiz. A second insert for the same session is a
// no-op: a.ID is set to the stored row and created is false.
func (r *AttemptRepo) Create(ctx context.Context, a *models.QuizAttempt) (bool, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	results := a.ResultsJSON
	if results == nil {
		results = []byte("[]")
	}
	missed := a.MissedJSON
	if missed == nil {
		missed = []byte("[]")
	}

	query := `INSERT INTO quiz_attempts (id, player_id, session_id, kana_types, kana_groups,
			correct_count, total_count, percentage, results_json, missed_json, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		a.ID, a.PlayerID, a.SessionID, nonNil(a.KanaTypes), nonNil(a.KanaGroups),
		a.CorrectCount, a.TotalCount, a.Percentage, results, missed, a.StartedAt, a.CompletedAt,
	).Scan(&a.ID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	if err := r.pool.QueryRow(ctx, "SELECT id FROM quiz_attempts WHERE session_id = $1", a.SessionID).Scan(&a.ID); err != nil {
		return false, notFound(err)
	}
	return false, nil
}

func (r *AttemptRepo) ListByPlayer(ctx context.Context, playerID uuid.UUID, limit int) ([]*models.QuizAttempt, error) {
	query := `SELECT id, player_id, session_id, kana_types, kana_groups, correct_count, total_count,
			percentage, results_json, missed_json, started_at, completed_at
		FROM quiz_attempts WHERE player_id = $1 ORDER BY completed_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := make([]*models.QuizAttempt, 0)
	for rows.Next() {
		a := &models.QuizAttempt{}
		if err := rows.Scan(
			&a.ID, &a.PlayerID, &a.SessionID, &a.KanaTypes, &a.KanaGroups, &a.CorrectCount, &a.TotalCount,
			&a.Percentage, &a.ResultsJSON, &a.MissedJSON, &a.StartedAt, &a.CompletedAt,
		); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// bestAttempts keeps one row per player: highest percentage, then most
// correct answers, then the earliest completion.
const bestAttempts = `
	SELECT DISTINCT ON (player_id) player_id, correct_count, total_count, percentage, completed_at
	FROM quiz_attempts
	WHERE total_count > 0
	ORDER BY player_id, percentage DESC, correct_count DESC, completed_at ASC`

func (r *AttemptRepo) Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	query := `SELECT b.player_id, p.display_name, b.correct_count, b.total_count, b.percentage, b.completed_at
		FROM (` + bestAttempts + `) b
		JOIN players p ON p.id = b.player_id
		ORDER BY b.percentage DESC, b.correct_count DESC, b.completed_at ASC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.LeaderboardEntry, 0)
	for rows.Next() {
		e := &models.LeaderboardEntry{}
		if err := rows.Scan(&e.PlayerID, &e.DisplayName, &e.CorrectCount, &e.TotalCount, &e.Percentage, &e.CompletedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	assignRanks(entries)
	return entries, nil
}

// PlayerPosition returns the player's own leaderboard row, or ErrNotFound
// when they have no scored attempt.
func (r *AttemptRepo) PlayerPosition(ctx context.Context, playerID uuid.UUID) (*models.LeaderboardEntry, error) {
	query := `SELECT rank, player_id, display_name, correct_count, total_count, percentage, completed_at
		FROM (
			SELECT ROW_NUMBER() OVER (ORDER BY b.percentage DESC, b.correct_count DESC, b.completed_at ASC) AS rank,
				b.player_id, p.display_name, b.correct_count, b.total_count, b.percentage, b.completed_at
			FROM (` + bestAttempts + `) b
			JOIN players p ON p.id = b.player_id
		) ranked
		WHERE player_id = $1`

	e := &models.LeaderboardEntry{}
	err := r.pool.QueryRow(ctx, query, playerID).Scan(
		&e.Rank, &e.PlayerID, &e.DisplayName, &e.CorrectCount, &e.TotalCount, &e.Percentage, &e.CompletedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

func assignRanks(entries []*models.LeaderboardEntry) {
	for i, e := range entries {
		e.Rank = i + 1
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
