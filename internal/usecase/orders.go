package usecase

import (
	"context"
	"errors"
	"time"

	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/logging"
)

// Orders owns the order lifecycle: placement, shipping and receipt.
type Orders struct {
	products ProductRepo
	orders   OrderRepo
	users    UserRepo
	cache    ProductCache
	idem     IdempotencyStore
	events   EventPublisher
	now      func() time.Time
}

type OrdersOption func(*Orders)

func WithProductCache(c ProductCache) OrdersOption  { return func(o *Orders) { o.cache = c } }
func WithIdempotency(s IdempotencyStore) OrdersOption { return func(o *Orders) { o.idem = s } }
func WithEvents(p EventPublisher) OrdersOption      { return func(o *Orders) { o.events = p } }
func WithClock(now func() time.Time) OrdersOption   { return func(o *Orders) { o.now = now } }

func NewOrders(products ProductRepo, orders OrderRepo, users UserRepo, opts ...OrdersOption) *Orders {
	o := &Orders{
		products: products,
		orders:   orders,
		users:    users,
		events:   nopPublisher{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type PlaceOrderInput struct {
	ProductID string `json:"orderedProductId"`
	Quantity  int    `json:"quantity"`
	Address   string `json:"address"`
}

func (uc *Orders) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*OrderView, error) {
	u, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	key := IdempotencyKey(ctx)
	if key != "" && uc.idem != nil {
		// Fast path: the same request was already served.
		if id, ok, err := uc.idem.Recall(ctx, u.ID, key); err != nil {
			logging.FromCtx(ctx).Warn("idempotency recall failed", "err", err)
		} else if ok {
			return uc.view(ctx, id)
		}
		locked, err := uc.idem.TryLock(ctx, u.ID, key)
		if err != nil {
			return nil, Internal("idempotency lock", err)
		}
		if !locked {
			return nil, InvalidArgument(ErrDuplicate.Error(), key)
		}
	}

	out, committed, err := uc.placeOrder(ctx, u, in)
	if key != "" && uc.idem != nil {
		// Once the order row exists the key must map to it, even if a later
		// step failed, or a retry would place a second order.
		if committed != "" {
			if rerr := uc.idem.Remember(ctx, u.ID, key, committed); rerr != nil {
				logging.FromCtx(ctx).Warn("idempotency remember failed", "err", rerr)
			}
		} else if rerr := uc.idem.Release(ctx, u.ID, key); rerr != nil {
			logging.FromCtx(ctx).Warn("idempotency release failed", "err", rerr)
		}
	}
	return out, err
}

// placeOrder returns the id of the stored order alongside any error, so the
// caller can tell failures before the insert from failures after it.
func (uc *Orders) placeOrder(ctx context.Context, u *domain.User, in PlaceOrderInput) (*OrderView, string, error) {
	prod, err := uc.products.GetByID(ctx, in.ProductID)
	if errors.Is(err, ErrNotFound) {
		return nil, "", InvalidArgument("product not found", in.ProductID)
	}
	if err != nil {
		return nil, "", Internal("get product", err)
	}
	if in.Quantity > prod.Stock {
		return nil, "", InvalidArgument("order quantity cannot exceed stock", in.Quantity)
	}

	o := &domain.Order{
		UserID:    u.ID,
		ProductID: prod.ID,
		Quantity:  in.Quantity,
		Address:   in.Address,
		Created:   uc.now().UTC(),
	}
	if err := o.Validate(); err != nil {
		return nil, "", InvalidArgument(err.Error(), in)
	}

	// The stock check above is advisory; this conditional update is what
	// keeps concurrent orders from overselling.
	ok, err := uc.products.ReserveStock(ctx, prod.ID, o.Quantity)
	if err != nil {
		return nil, "", Internal("reserve stock", err)
	}
	if !ok {
		return nil, "", InvalidArgument("order quantity cannot exceed stock", in.Quantity)
	}

	if err := uc.orders.Create(ctx, o); err != nil {
		if rerr := uc.products.ReleaseStock(ctx, prod.ID, o.Quantity); rerr != nil {
			logging.FromCtx(ctx).Error("stock compensation failed",
				"product_id", prod.ID, "qty", o.Quantity, "err", rerr)
		}
		return nil, "", &Error{Kind: KindInvalidArgument, Message: err.Error(), Args: in, Err: err}
	}
	invalidateProduct(ctx, uc.cache, prod.ID)

	if err := uc.events.PublishOrderPlaced(ctx, OrderPlacedMsg{
		OrderID:   o.ID,
		UserID:    o.UserID,
		ProductID: o.ProductID,
		Quantity:  o.Quantity,
		Address:   o.Address,
		Created:   o.Created,
	}); err != nil {
		logging.FromCtx(ctx).Warn("publish order.placed failed", "order_id", o.ID, "err", err)
	}

	v, err := newPopulator(uc.users, uc.products).order(ctx, *o)
	if err != nil {
		return nil, o.ID, Internal("populate order", err)
	}
	return v, o.ID, nil
}

func (uc *Orders) MarkAsReceived(ctx context.Context, orderID string) (*OrderView, error) {
	u, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	o, err := uc.orders.GetByID(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return nil, InvalidArgument("order not found", orderID)
	}
	if err != nil {
		return nil, Internal("get order", err)
	}
	if !o.OwnedBy(u.ID) && !u.HasRole(domain.RoleFulfillment) {
		return nil, PermissionDenied("not allowed to update this order")
	}
	if err := o.CanBeReceived(); err != nil {
		return nil, InvalidArgument(err.Error(), orderID)
	}

	if !o.Finished {
		if err := uc.orders.MarkFinished(ctx, o.ID); err != nil {
			return nil, Internal("mark finished", err)
		}
		o.Finished = true
		if err := uc.events.PublishOrderReceived(ctx, OrderReceivedMsg{
			OrderID: o.ID,
			UserID:  o.UserID,
			At:      uc.now().UTC(),
		}); err != nil {
			logging.FromCtx(ctx).Warn("publish order.received failed", "order_id", o.ID, "err", err)
		}
	}

	v, err := newPopulator(uc.users, uc.products).order(ctx, *o)
	if err != nil {
		return nil, Internal("populate order", err)
	}
	return v, nil
}

// OrdersByUser lists the caller's orders, optionally filtered by finished.
func (uc *Orders) OrdersByUser(ctx context.Context, finished *bool) ([]OrderView, error) {
	u, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	list, err := uc.orders.ListByUser(ctx, u.ID, finished)
	if err != nil {
		return nil, Internal("list orders", err)
	}

	p := newPopulator(uc.users, uc.products)
	out := make([]OrderView, 0, len(list))
	for _, o := range list {
		v, err := p.order(ctx, o)
		if err != nil {
			return nil, Internal("populate order", err)
		}
		out = append(out, *v)
	}
	return out, nil
}

// GetOrder loads a single populated order without an ownership check.
// It serves machine clients that were already authorized upstream.
func (uc *Orders) GetOrder(ctx context.Context, orderID string) (*OrderView, error) {
	return uc.view(ctx, orderID)
}

func (uc *Orders) view(ctx context.Context, orderID string) (*OrderView, error) {
	o, err := uc.orders.GetByID(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return nil, InvalidArgument("order not found", orderID)
	}
	if err != nil {
		return nil, Internal("get order", err)
	}
	v, err := newPopulator(uc.users, uc.products).order(ctx, *o)
	if err != nil {
		return nil, Internal("populate order", err)
	}
	return v, nil
}
