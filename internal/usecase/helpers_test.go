package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/repo"
	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

// plainHasher stands in for bcrypt; tests do not need the cost.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (plainHasher) Verify(p, h string) bool       { return h == "hashed:"+p }

// fakeTokens issues "tok:<id>:<username>".
type fakeTokens struct{}

func (fakeTokens) Issue(u *domain.User) (string, error) {
	return "tok:" + u.ID + ":" + u.Username, nil
}

func (fakeTokens) Verify(tok string) (*usecase.Identity, error) {
	parts := strings.Split(tok, ":")
	if len(parts) != 3 || parts[0] != "tok" {
		return nil, errors.New("malformed")
	}
	return &usecase.Identity{UserID: parts[1], Username: parts[2]}, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	placed   []usecase.OrderPlacedMsg
	received []usecase.OrderReceivedMsg
	err      error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, m usecase.OrderPlacedMsg) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, m)
	return p.err
}

func (p *recordingPublisher) PublishOrderReceived(_ context.Context, m usecase.OrderReceivedMsg) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.received = append(p.received, m)
	return p.err
}

// mapCache is an in-process ProductCache that counts invalidations.
type mapCache struct {
	mu          sync.Mutex
	items       map[string]domain.Product
	invalidated []string
}

func newMapCache() *mapCache { return &mapCache{items: map[string]domain.Product{}} }

func (c *mapCache) GetProduct(_ context.Context, id string) (*domain.Product, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.items[id]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (c *mapCache) SetProduct(_ context.Context, p *domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[p.ID] = p.Clone()
	return nil
}

func (c *mapCache) InvalidateProduct(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

// memIdem is an in-process IdempotencyStore.
type memIdem struct {
	mu     sync.Mutex
	locks  map[string]bool
	values map[string]string
}

func newMemIdem() *memIdem {
	return &memIdem{locks: map[string]bool{}, values: map[string]string{}}
}

func (m *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[scope+key] {
		return false, nil
	}
	m.locks[scope+key] = true
	return true, nil
}

func (m *memIdem) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, scope+key)
	return nil
}

func (m *memIdem) Remember(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[scope+key] = value
	return nil
}

func (m *memIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[scope+key]
	return v, ok, nil
}

// failingOrders fails every Create.
type failingOrders struct {
	*repo.MemoryOrderRepo
}

func (failingOrders) Create(context.Context, *domain.Order) error {
	return errors.New("insert order: connection reset")
}

type fixture struct {
	products *repo.MemoryProductRepo
	users    *repo.MemoryUserRepo
	orders   *repo.MemoryOrderRepo
	events   *recordingPublisher
	cache    *mapCache
	idem     *memIdem

	catalog *usecase.Catalog
	svc     *usecase.Orders
	accts   *usecase.Users
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		products: repo.NewMemoryProductRepo(),
		users:    repo.NewMemoryUserRepo(),
		orders:   repo.NewMemoryOrderRepo(),
		events:   &recordingPublisher{},
		cache:    newMapCache(),
		idem:     newMemIdem(),
	}
	f.catalog = usecase.NewCatalog(f.products, f.users, f.cache)
	f.svc = usecase.NewOrders(f.products, f.orders, f.users,
		usecase.WithProductCache(f.cache),
		usecase.WithIdempotency(f.idem),
		usecase.WithEvents(f.events),
	)
	f.accts = usecase.NewUsers(f.users, plainHasher{}, fakeTokens{})
	return f
}

func (f *fixture) product(t *testing.T, label, category string, stock int, created time.Time) *domain.Product {
	t.Helper()
	p := &domain.Product{Label: label, Description: label + " description", Category: category, Price: 10, Stock: stock, Created: created}
	require.NoError(t, f.catalog.CreateProduct(context.Background(), p))
	return p
}

func (f *fixture) user(t *testing.T, name string, roles ...string) (*domain.User, context.Context) {
	t.Helper()
	u, err := f.accts.CreateUser(context.Background(), usecase.Credentials{Username: name, Password: "password123"})
	require.NoError(t, err)
	for _, r := range roles {
		u, err = f.accts.GrantRole(context.Background(), name, r)
		require.NoError(t, err)
	}
	return u, usecase.WithCurrentUser(context.Background(), u)
}

func requireKind(t *testing.T, err error, kind usecase.Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, usecase.KindOf(err), "error: %v", err)
	if msg != "" {
		require.Equal(t, msg, err.Error())
	}
}
