package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/logging"
)

// NewestLimit is how many products getByCategory returns with limit=YES.
const NewestLimit = 5

type Catalog struct {
	products ProductRepo
	users    UserRepo
	cache    ProductCache // optional
	now      func() time.Time
}

func NewCatalog(products ProductRepo, users UserRepo, cache ProductCache) *Catalog {
	return &Catalog{products: products, users: users, cache: cache, now: time.Now}
}

func (c *Catalog) ProductCount(ctx context.Context) (int64, error) {
	n, err := c.products.Count(ctx)
	if err != nil {
		return 0, Internal("count products", err)
	}
	return n, nil
}

func (c *Catalog) AllProducts(ctx context.Context) ([]ProductView, error) {
	return c.list(ctx, ProductFilter{})
}

func (c *Catalog) FindProducts(ctx context.Context, label string) ([]ProductView, error) {
	return c.list(ctx, ProductFilter{LabelContains: label})
}

// GetByCategory returns the category's products; newest restricts the result
// to the NewestLimit most recently created ones.
func (c *Catalog) GetByCategory(ctx context.Context, category string, newest bool) ([]ProductView, error) {
	f := ProductFilter{Category: category}
	if newest {
		f.NewestFirst = true
		f.Limit = NewestLimit
	}
	return c.list(ctx, f)
}

func (c *Catalog) list(ctx context.Context, f ProductFilter) ([]ProductView, error) {
	prods, err := c.products.List(ctx, f)
	if err != nil {
		return nil, Internal("list products", err)
	}
	views, err := newPopulator(c.users, c.products).productList(ctx, prods)
	if err != nil {
		return nil, Internal("populate products", err)
	}
	return views, nil
}

// GetProductByID returns nil, nil when the id does not resolve.
func (c *Catalog) GetProductByID(ctx context.Context, id string) (*ProductView, error) {
	prod, err := c.loadProduct(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, Internal("get product", err)
	}
	v, err := newPopulator(c.users, c.products).product(ctx, *prod)
	if err != nil {
		return nil, Internal("populate product", err)
	}
	return v, nil
}

// loadProduct reads through the cache. Cache failures are logged and ignored.
func (c *Catalog) loadProduct(ctx context.Context, id string) (*domain.Product, error) {
	if c.cache != nil {
		p, ok, err := c.cache.GetProduct(ctx, id)
		if err != nil {
			logging.FromCtx(ctx).Warn("product cache read failed", "product_id", id, "err", err)
		} else if ok {
			return p, nil
		}
	}
	p, err := c.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.SetProduct(ctx, p); err != nil {
			logging.FromCtx(ctx).Warn("product cache write failed", "product_id", id, "err", err)
		}
	}
	return p, nil
}

func (c *Catalog) invalidate(ctx context.Context, id string) {
	invalidateProduct(ctx, c.cache, id)
}

func invalidateProduct(ctx context.Context, cache ProductCache, id string) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateProduct(ctx, id); err != nil {
		logging.FromCtx(ctx).Warn("product cache invalidate failed", "product_id", id, "err", err)
	}
}

type AddReviewInput struct {
	Body      string `json:"body"`
	Rating    int    `json:"rating"`
	ProductID string `json:"productId"`
}

func (c *Catalog) AddReview(ctx context.Context, in AddReviewInput) (*ProductView, error) {
	u, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if in.Body == "" || in.Rating == 0 {
		return nil, InvalidArgument("Rating or review not found", in)
	}

	r := domain.Review{
		ID:       uuid.NewString(),
		Text:     in.Body,
		Rating:   in.Rating,
		PostedBy: u.ID,
		Created:  c.now().UTC(),
	}
	prod, err := c.products.AddReview(ctx, in.ProductID, r)
	if errors.Is(err, ErrNotFound) {
		return nil, InvalidArgument("product not found", in.ProductID)
	}
	if err != nil {
		return nil, &Error{Kind: KindInvalidArgument, Message: err.Error(), Args: in, Err: err}
	}
	c.invalidate(ctx, in.ProductID)

	v, err := newPopulator(c.users, c.products).product(ctx, *prod)
	if err != nil {
		return nil, Internal("populate product", err)
	}
	return v, nil
}

// CreateProduct validates and stores a new product.
func (c *Catalog) CreateProduct(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return InvalidArgument(err.Error(), p.Label)
	}
	if p.Created.IsZero() {
		p.Created = c.now().UTC()
	}
	if p.Reviews == nil {
		p.Reviews = []domain.Review{}
	}
	if err := c.products.Create(ctx, p); err != nil {
		return Internal("create product", err)
	}
	return nil
}
