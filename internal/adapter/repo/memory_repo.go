package repo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

// Memory repositories back the "memory" store driver and the tests.
// Records are kept in insertion order.

type MemoryProductRepo struct {
	mu    sync.RWMutex
	items []*domain.Product
	byID  map[string]*domain.Product
}

func NewMemoryProductRepo() *MemoryProductRepo {
	return &MemoryProductRepo{byID: map[string]*domain.Product{}}
}

func (r *MemoryProductRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}

func (r *MemoryProductRepo) List(_ context.Context, f usecase.ProductFilter) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(f.LabelContains)
	out := make([]domain.Product, 0, len(r.items))
	for _, p := range r.items {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Label), needle) {
			continue
		}
		out = append(out, p.Clone())
	}
	if f.NewestFirst {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemoryProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, usecase.ErrNotFound
	}
	c := p.Clone()
	return &c, nil
}

func (r *MemoryProductRepo) Create(_ context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	stored := p.Clone()
	stored.Image = p.Image
	r.items = append(r.items, &stored)
	r.byID[stored.ID] = &stored
	return nil
}

func (r *MemoryProductRepo) AddReview(_ context.Context, productID string, rv domain.Review) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[productID]
	if !ok {
		return nil, usecase.ErrNotFound
	}
	now := time.Now().UTC()
	p.Reviews = append(p.Reviews, rv)
	p.Updated = &now
	c := p.Clone()
	return &c, nil
}

func (r *MemoryProductRepo) ReserveStock(_ context.Context, productID string, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (r *MemoryProductRepo) ReleaseStock(_ context.Context, productID string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[productID]
	if !ok {
		return usecase.ErrNotFound
	}
	p.Stock += qty
	return nil
}

type MemoryUserRepo struct {
	mu   sync.RWMutex
	byID map[string]*domain.User
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{byID: map[string]*domain.User{}}
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	return &c
}

// taken reports whether username belongs to someone other than exceptID.
func (r *MemoryUserRepo) taken(username, exceptID string) bool {
	for id, u := range r.byID {
		if id != exceptID && u.Username == username {
			return true
		}
	}
	return false
}

func (r *MemoryUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken(u.Username, "") {
		return usecase.ErrUsernameTaken
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	r.byID[u.ID] = copyUser(u)
	return nil
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, usecase.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *MemoryUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, usecase.ErrNotFound
}

func (r *MemoryUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; !ok {
		return usecase.ErrNotFound
	}
	if r.taken(u.Username, u.ID) {
		return usecase.ErrUsernameTaken
	}
	r.byID[u.ID] = copyUser(u)
	return nil
}

type MemoryOrderRepo struct {
	mu    sync.RWMutex
	items []*domain.Order
	byID  map[string]*domain.Order
}

func NewMemoryOrderRepo() *MemoryOrderRepo {
	return &MemoryOrderRepo{byID: map[string]*domain.Order{}}
}

func (r *MemoryOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	c := *o
	r.items = append(r.items, &c)
	r.byID[c.ID] = &c
	return nil
}

func (r *MemoryOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, usecase.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (r *MemoryOrderRepo) ListByUser(_ context.Context, userID string, finished *bool) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Order{}
	for _, o := range r.items {
		if o.UserID != userID {
			continue
		}
		if finished != nil && o.Finished != *finished {
			continue
		}
		out = append(out, *o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out, nil
}

func (r *MemoryOrderRepo) MarkFinished(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return usecase.ErrNotFound
	}
	o.Finished = true
	return nil
}

func (r *MemoryOrderRepo) MarkShipped(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.byID[id]
	if !ok {
		return false, usecase.ErrNotFound
	}
	if o.Shipped {
		return false, nil
	}
	o.Shipped = true
	return true, nil
}

var (
	_ usecase.ProductRepo = (*MemoryProductRepo)(nil)
	_ usecase.UserRepo    = (*MemoryUserRepo)(nil)
	_ usecase.OrderRepo   = (*MemoryOrderRepo)(nil)
)
