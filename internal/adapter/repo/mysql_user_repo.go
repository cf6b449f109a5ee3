package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

type MySQLUserRepo struct{ db *sql.DB }

func NewMySQLUserRepo(db *sql.DB) *MySQLUserRepo { return &MySQLUserRepo{db: db} }

func joinRoles(roles []string) string { return strings.Join(roles, ",") }

func splitRoles(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func (r *MySQLUserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id,username,password_hash,roles,created_at)
VALUES (?,?,?,?,?)`, u.ID, u.Username, u.PasswordHash, joinRoles(u.Roles), u.Created)
	if isDuplicateKey(err) {
		return usecase.ErrUsernameTaken
	}
	return err
}

func (r *MySQLUserRepo) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id,username,password_hash,roles,created_at FROM users WHERE `+column+`=?`, value)
	var (
		u     domain.User
		roles string
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &roles, &u.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Roles = splitRoles(roles)
	return &u, nil
}

func (r *MySQLUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *MySQLUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *MySQLUserRepo) Update(ctx context.Context, u *domain.User) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users SET username = ?, password_hash = ?, roles = ?
WHERE id = ?`, u.Username, u.PasswordHash, joinRoles(u.Roles), u.ID)
	if isDuplicateKey(err) {
		return usecase.ErrUsernameTaken
	}
	if err != nil {
		return err
	}
	if _, err := res.RowsAffected(); err != nil {
		return err
	}
	// RowsAffected is 0 for an unchanged row, so existence is checked separately.
	var one int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id=?`, u.ID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return usecase.ErrNotFound
	}
	return err
}

var _ usecase.UserRepo = (*MySQLUserRepo)(nil)
