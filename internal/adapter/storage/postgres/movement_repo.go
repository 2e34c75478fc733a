package postgres

import (
	"context"
	"fmt"

	"ledger-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// MovementRepo implements ports.MovementRepository. Movements are append-only:
// there is no update or delete path.
type MovementRepo struct {
	pool Pool
}

// NewMovementRepo creates a new MovementRepo.
func NewMovementRepo(pool Pool) *MovementRepo {
	return &MovementRepo{pool: pool}
}

// Create inserts a movement within a transaction and fills in the generated
// id and timestamp.
func (r *MovementRepo) Create(ctx context.Context, tx pgx.Tx, m *domain.Movement) error {
	query := `INSERT INTO movements (amount, from_id, to_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := tx.QueryRow(ctx, query, m.Amount, m.FromID, m.ToID).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListByAccount returns one page of movements where accountID is the source or
// the destination, newest first. Top-ups carry a nil FromHandle.
func (r *MovementRepo) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]domain.MovementView, error) {
	query := `SELECT m.id, m.amount, src.handle, dst.handle, m.created_at
		FROM movements m
		LEFT JOIN accounts src ON src.id = m.from_id
		JOIN accounts dst ON dst.id = m.to_id
		WHERE m.from_id = $1 OR m.to_id = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	views := make([]domain.MovementView, 0, limit)
	for rows.Next() {
		var v domain.MovementView
		if err := rows.Scan(&v.ID, &v.Amount, &v.FromHandle, &v.ToHandle, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement row: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movement rows: %w", err)
	}
	return views, nil
}
