package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/account-service/internal/domain"
)

// ActivityRepository persists the account activity log.
type ActivityRepository interface {
	Insert(ctx context.Context, entry *domain.ActivityLog) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.ActivityLog, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository returns a Postgres-backed implementation.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Insert(ctx context.Context, entry *domain.ActivityLog) error {
	const query = `
        INSERT INTO activity_logs (id, user_id, actor_id, action, details, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.ActorID,
		entry.Action,
		entry.Details,
		entry.CreatedAt,
	)
	return err
}

func (r *activityRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.ActivityLog, error) {
	const query = `
        SELECT id, user_id, actor_id, action, details, created_at
        FROM activity_logs
        WHERE user_id=$1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ActivityLog
	for rows.Next() {
		var entry domain.ActivityLog
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.ActorID,
			&entry.Action,
			&entry.Details,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *activityRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM activity_logs WHERE user_id=$1`, userID,
	).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
