package repo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

func TestMySQLProductRepoReserveStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := NewMySQLProductRepo(db)

	q := regexp.QuoteMeta("UPDATE products\nSET stock = stock - ?, updated_at = ?\nWHERE id = ? AND stock >= ?")
	mock.ExpectExec(q).WithArgs(3, sqlmock.AnyArg(), "p1", 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(3, sqlmock.AnyArg(), "p1", 3).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := r.ReserveStock(context.Background(), "p1", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.ReserveStock(context.Background(), "p1", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLProductRepoGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := NewMySQLProductRepo(db)
	created := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id=?")).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "label", "description", "category", "price", "stock", "rating", "created_at", "updated_at"}).
			AddRow("p1", "atari", "console", "electronics", 5, 50, nil, created, nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reviews WHERE product_id IN (?)")).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "id", "body", "rating", "posted_by", "created_at"}).
			AddRow("p1", "r1", "great", 5, "u1", created))

	p, err := r.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "atari", p.Label)
	assert.Nil(t, p.Rating)
	require.Len(t, p.Reviews, 1)
	assert.Equal(t, "u1", p.Reviews[0].PostedBy)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id=?")).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = r.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, usecase.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLProductRepoListEscapesLabel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := NewMySQLProductRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE category = ? AND LOWER(label) LIKE ? ORDER BY created_at DESC, seq DESC LIMIT ?")).
		WithArgs("books", `%50\%\_off%`, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "label", "description", "category", "price", "stock", "rating", "created_at", "updated_at"}))

	out, err := r.List(context.Background(), usecase.ProductFilter{
		Category: "books", LabelContains: "50%_OFF", NewestFirst: true, Limit: 5,
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLUserRepoCreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := NewMySQLUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'luke'"})

	err = r.Create(context.Background(), &domain.User{Username: "luke", PasswordHash: "h"})
	assert.ErrorIs(t, err, usecase.ErrUsernameTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLUserRepoRoles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := NewMySQLUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=?")).WithArgs("luke").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "roles", "created_at"}).
			AddRow("u1", "luke", "h", "fulfillment,admin", time.Now()))

	u, err := r.GetByUsername(context.Background(), "luke")
	require.NoError(t, err)
	assert.Equal(t, []string{"fulfillment", "admin"}, u.Roles)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLOrderRepoMarkShipped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := NewMySQLOrderRepo(db)
	ctx := context.Background()
	upd := regexp.QuoteMeta("WHERE id = ? AND shipped = FALSE")
	sel := regexp.QuoteMeta("FROM orders WHERE id=?")
	cols := []string{"id", "user_id", "product_id", "quantity", "address", "shipped", "finished", "created_at"}

	// first notice flips the flag
	mock.ExpectExec(upd).WithArgs("o1").WillReturnResult(sqlmock.NewResult(0, 1))
	changed, err := r.MarkShipped(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, changed)

	// redelivery is a no-op
	mock.ExpectExec(upd).WithArgs("o1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(sel).WithArgs("o1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("o1", "u1", "p1", 1, "a", true, false, time.Now()))
	changed, err = r.MarkShipped(ctx, "o1")
	require.NoError(t, err)
	assert.False(t, changed)

	// unknown order
	mock.ExpectExec(upd).WithArgs("o2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(sel).WithArgs("o2").WillReturnRows(sqlmock.NewRows(cols))
	_, err = r.MarkShipped(ctx, "o2")
	assert.ErrorIs(t, err, usecase.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLOrderRepoListByUserFiltersFinished(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id=? AND finished=? ORDER BY created_at, id")).
		WithArgs("u1", false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_id", "quantity", "address", "shipped", "finished", "created_at"}).
			AddRow("o1", "u1", "p1", 2, "Tatooine", false, false, time.Now()))

	no := false
	list, err := NewMySQLOrderRepo(db).ListByUser(context.Background(), "u1", &no)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Quantity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateMySQLRunsEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"users", "products", "reviews", "orders", "outbox"} {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS " + table)).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, MigrateMySQL(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLUsernameIsCaseSensitive(t *testing.T) {
	// matches the exact-match lookups of the mongo and memory stores
	assert.Regexp(t, `username\s+VARCHAR\(64\)\s+CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL`, mysqlSchema)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c\\d`, escapeLike(`c\d`))
	assert.Equal(t, "?,?,?", placeholders(3))
}
