package usecase

import (
	"context"
	"errors"

	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
)

// ReviewView is a review with its poster resolved.
type ReviewView struct {
	domain.Review
	PostedBy *domain.User
}

// ProductView is a product as returned by the API: no image, posters resolved.
type ProductView struct {
	domain.Product
	Reviews []ReviewView
}

// OrderView is an order with its user and product resolved.
type OrderView struct {
	domain.Order
	User    *domain.User
	Product *ProductView
}

// populator resolves references, memoizing users for the lifetime of one call.
type populator struct {
	users    UserRepo
	products ProductRepo
	seen     map[string]*domain.User
}

func newPopulator(users UserRepo, products ProductRepo) *populator {
	return &populator{users: users, products: products, seen: map[string]*domain.User{}}
}

func (p *populator) user(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := p.seen[id]; ok {
		return u, nil
	}
	u, err := p.users.GetByID(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		// poster was removed; keep the reference visible
		u = &domain.User{ID: id}
	case err != nil:
		return nil, err
	}
	p.seen[id] = u
	return u, nil
}

func (p *populator) product(ctx context.Context, prod domain.Product) (*ProductView, error) {
	v := &ProductView{Product: prod.Clone()}
	v.Product.Reviews = nil
	v.Reviews = make([]ReviewView, 0, len(prod.Reviews))
	for _, r := range prod.Reviews {
		u, err := p.user(ctx, r.PostedBy)
		if err != nil {
			return nil, err
		}
		v.Reviews = append(v.Reviews, ReviewView{Review: r, PostedBy: u})
	}
	return v, nil
}

func (p *populator) productList(ctx context.Context, prods []domain.Product) ([]ProductView, error) {
	out := make([]ProductView, 0, len(prods))
	for _, prod := range prods {
		v, err := p.product(ctx, prod)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (p *populator) order(ctx context.Context, o domain.Order) (*OrderView, error) {
	v := &OrderView{Order: o}
	u, err := p.user(ctx, o.UserID)
	if err != nil {
		return nil, err
	}
	v.User = u

	prod, err := p.products.GetByID(ctx, o.ProductID)
	switch {
	case errors.Is(err, ErrNotFound):
		// product was removed after the order was placed
	case err != nil:
		return nil, err
	default:
		if v.Product, err = p.product(ctx, *prod); err != nil {
			return nil, err
		}
	}
	return v, nil
}
