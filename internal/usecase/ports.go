package usecase

import (
	"context"

	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
)

type ProductFilter struct {
	// LabelContains is matched case-insensitively as a literal substring.
	LabelContains string
	Category      string
	NewestFirst   bool
	Limit         int
}

type ProductRepo interface {
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
	// GetByID returns ErrNotFound for unknown or malformed ids.
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	AddReview(ctx context.Context, productID string, r domain.Review) (*domain.Product, error)
	// ReserveStock decrements stock by qty only if stock >= qty.
	ReserveStock(ctx context.Context, productID string, qty int) (bool, error)
	ReleaseStock(ctx context.Context, productID string, qty int) error
}

type UserRepo interface {
	// Create returns ErrUsernameTaken when the username is in use.
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}

type OrderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// ListByUser returns orders sorted by creation time ascending.
	ListByUser(ctx context.Context, userID string, finished *bool) ([]domain.Order, error)
	MarkFinished(ctx context.Context, id string) error
	// MarkShipped flips shipped false->true and reports whether it changed anything.
	MarkShipped(ctx context.Context, id string) (bool, error)
}

type ProductCache interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, bool, error)
	SetProduct(ctx context.Context, p *domain.Product) error
	InvalidateProduct(ctx context.Context, id string) error
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, msg OrderPlacedMsg) error
	PublishOrderReceived(ctx context.Context, msg OrderReceivedMsg) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// Identity is what a verified bearer token asserts about its holder.
type Identity struct {
	UserID   string
	Username string
}

type TokenService interface {
	Issue(u *domain.User) (string, error)
	Verify(token string) (*Identity, error)
}
