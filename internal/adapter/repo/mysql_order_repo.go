package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

const orderColumns = `id,user_id,product_id,quantity,address,shipped,finished,created_at`

func scanOrder(s rowScanner) (*domain.Order, error) {
	var o domain.Order
	if err := s.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.Address,
		&o.Shipped, &o.Finished, &o.Created); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *MySQLOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO orders (id,user_id,product_id,quantity,address,shipped,finished,created_at)
VALUES (?,?,?,?,?,?,?,?)`,
		o.ID, o.UserID, o.ProductID, o.Quantity, o.Address, o.Shipped, o.Finished, o.Created)
	return err
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrNotFound
	}
	return o, err
}

func (r *MySQLOrderRepo) ListByUser(ctx context.Context, userID string, finished *bool) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE user_id=?`
	args := []any{userID}
	if finished != nil {
		q += ` AND finished=?`
		args = append(args, *finished)
	}
	q += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *MySQLOrderRepo) MarkFinished(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET finished = TRUE WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// already finished or unknown
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// MarkShipped only matches unshipped rows, so redelivered notices are no-ops.
func (r *MySQLOrderRepo) MarkShipped(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders
SET shipped = TRUE
WHERE id = ? AND shipped = FALSE`, id)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows > 0 {
		return true, nil
	}
	// rows == 0: either not found or already shipped
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
