package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

type MySQLProductRepo struct{ db *sql.DB }

func NewMySQLProductRepo(db *sql.DB) *MySQLProductRepo { return &MySQLProductRepo{db: db} }

const productColumns = `id,label,description,category,price,stock,rating,created_at,updated_at`

func (r *MySQLProductRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

func (r *MySQLProductRepo) List(ctx context.Context, f usecase.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.LabelContains != "" {
		where = append(where, "LOWER(label) LIKE ?")
		args = append(args, "%"+escapeLike(strings.ToLower(f.LabelContains))+"%")
	}

	q := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	if f.NewestFirst {
		q += ` ORDER BY created_at DESC, seq DESC`
	} else {
		q += ` ORDER BY seq`
	}
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachReviews(ctx, out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Product{}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (*domain.Product, error) {
	var (
		p       domain.Product
		rating  sql.NullInt64
		updated sql.NullTime
	)
	if err := s.Scan(&p.ID, &p.Label, &p.Description, &p.Category, &p.Price, &p.Stock,
		&rating, &p.Created, &updated); err != nil {
		return nil, err
	}
	if rating.Valid {
		v := int(rating.Int64)
		p.Rating = &v
	}
	if updated.Valid {
		t := updated.Time
		p.Updated = &t
	}
	p.Reviews = []domain.Review{}
	return &p, nil
}

// attachReviews loads the reviews of every product in one query.
func (r *MySQLProductRepo) attachReviews(ctx context.Context, prods []domain.Product) error {
	if len(prods) == 0 {
		return nil
	}
	idx := make(map[string]int, len(prods))
	args := make([]any, 0, len(prods))
	for i, p := range prods {
		idx[p.ID] = i
		args = append(args, p.ID)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id,id,body,rating,posted_by,created_at FROM reviews WHERE product_id IN (`+
			placeholders(len(args))+`) ORDER BY seq`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			pid string
			rv  domain.Review
		)
		if err := rows.Scan(&pid, &rv.ID, &rv.Text, &rv.Rating, &rv.PostedBy, &rv.Created); err != nil {
			return err
		}
		if i, ok := idx[pid]; ok {
			prods[i].Reviews = append(prods[i].Reviews, rv)
		}
	}
	return rows.Err()
}

func (r *MySQLProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id=?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	one := []domain.Product{*p}
	if err := r.attachReviews(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (r *MySQLProductRepo) Create(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	var (
		data        []byte
		contentType sql.NullString
	)
	if p.Image != nil {
		data = p.Image.Data
		contentType = sql.NullString{String: p.Image.ContentType, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO products (id,label,description,category,price,stock,rating,image_data,image_content_type,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Label, p.Description, p.Category, p.Price, p.Stock, p.Rating,
		data, contentType, p.Created, p.Updated)
	return err
}

func (r *MySQLProductRepo) AddReview(ctx context.Context, productID string, rv domain.Review) (*domain.Product, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET updated_at = ? WHERE id = ?`, time.Now().UTC(), productID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, usecase.ErrNotFound
	}
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO reviews (id,product_id,body,rating,posted_by,created_at)
VALUES (?,?,?,?,?,?)`, rv.ID, productID, rv.Text, rv.Rating, rv.PostedBy, rv.Created); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, productID)
}

// ReserveStock is a guarded update: zero rows affected means not enough stock.
func (r *MySQLProductRepo) ReserveStock(ctx context.Context, productID string, qty int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE products
SET stock = stock - ?, updated_at = ?
WHERE id = ? AND stock >= ?`,
		qty, time.Now().UTC(), productID, qty,
	)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *MySQLProductRepo) ReleaseStock(ctx context.Context, productID string, qty int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET stock = stock + ? WHERE id = ?`, qty, productID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return usecase.ErrNotFound
	}
	return nil
}

var _ usecase.ProductRepo = (*MySQLProductRepo)(nil)
