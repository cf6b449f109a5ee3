package gql

import (
	"context"

	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/observ"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

// Resolver is the root resolver for both Query and Mutation.
type Resolver struct {
	catalog *usecase.Catalog
	users   *usecase.Users
	orders  *usecase.Orders
}

func NewResolver(catalog *usecase.Catalog, users *usecase.Users, orders *usecase.Orders) *Resolver {
	return &Resolver{catalog: catalog, users: users, orders: orders}
}

// yesNo maps the optional YesNo enum onto a tri-state filter.
func yesNo(v *string) *bool {
	if v == nil {
		return nil
	}
	b := *v == "YES"
	return &b
}

// ---- Query ----

func (r *Resolver) ProductCount(ctx context.Context) (int32, error) {
	n, err := r.catalog.ProductCount(ctx)
	if err != nil {
		return 0, toGraphQLError(ctx, "productCount", err)
	}
	return int32(n), nil
}

func (r *Resolver) AllProducts(ctx context.Context) ([]*productResolver, error) {
	vs, err := r.catalog.AllProducts(ctx)
	if err != nil {
		return nil, toGraphQLError(ctx, "allProducts", err)
	}
	return newProducts(vs), nil
}

func (r *Resolver) FindProducts(ctx context.Context, args struct{ Label string }) ([]*productResolver, error) {
	vs, err := r.catalog.FindProducts(ctx, args.Label)
	if err != nil {
		return nil, toGraphQLError(ctx, "findProducts", err)
	}
	return newProducts(vs), nil
}

func (r *Resolver) GetByCategory(ctx context.Context, args struct {
	Category string
	Limit    *string
}) ([]*productResolver, error) {
	newest := yesNo(args.Limit)
	vs, err := r.catalog.GetByCategory(ctx, args.Category, newest != nil && *newest)
	if err != nil {
		return nil, toGraphQLError(ctx, "getByCategory", err)
	}
	return newProducts(vs), nil
}

func (r *Resolver) GetProductByID(ctx context.Context, args struct{ ProductID string }) (*productResolver, error) {
	v, err := r.catalog.GetProductByID(ctx, args.ProductID)
	if err != nil {
		return nil, toGraphQLError(ctx, "getProductById", err)
	}
	return newProduct(v), nil
}

func (r *Resolver) Me(ctx context.Context) *userResolver {
	return newUser(r.users.Me(ctx))
}

func (r *Resolver) GetOrdersByUser(ctx context.Context, args struct{ Finished *string }) ([]*orderResolver, error) {
	vs, err := r.orders.OrdersByUser(ctx, yesNo(args.Finished))
	if err != nil {
		return nil, toGraphQLError(ctx, "getOrdersByUser", err)
	}
	return newOrders(vs), nil
}

// ---- Mutation ----

func (r *Resolver) AddReview(ctx context.Context, args struct {
	Body      string
	Rating    int32
	ProductID string
}) (*productResolver, error) {
	v, err := r.catalog.AddReview(ctx, usecase.AddReviewInput{
		Body:      args.Body,
		Rating:    int(args.Rating),
		ProductID: args.ProductID,
	})
	if err != nil {
		return nil, toGraphQLError(ctx, "addReview", err)
	}
	return newProduct(v), nil
}

type credentialsArgs struct {
	Username string
	Password string
}

func (r *Resolver) CreateUser(ctx context.Context, args credentialsArgs) (*userResolver, error) {
	u, err := r.users.CreateUser(ctx, usecase.Credentials{Username: args.Username, Password: args.Password})
	if err != nil {
		return nil, toGraphQLError(ctx, "createUser", err)
	}
	return newUser(u), nil
}

func (r *Resolver) Login(ctx context.Context, args credentialsArgs) (*tokenResolver, error) {
	tok, err := r.users.Login(ctx, usecase.Credentials{Username: args.Username, Password: args.Password})
	if err != nil {
		return nil, toGraphQLError(ctx, "login", err)
	}
	return &tokenResolver{value: tok}, nil
}

func (r *Resolver) UpdateUsername(ctx context.Context, args struct{ NewUsername string }) (*userResolver, error) {
	u, err := r.users.UpdateUsername(ctx, args.NewUsername)
	if err != nil {
		return nil, toGraphQLError(ctx, "updateUsername", err)
	}
	return newUser(u), nil
}

func (r *Resolver) UpdatePassword(ctx context.Context, args struct {
	OldPassword string
	NewPassword string
}) (*userResolver, error) {
	u, err := r.users.UpdatePassword(ctx, args.OldPassword, args.NewPassword)
	if err != nil {
		return nil, toGraphQLError(ctx, "updatePassword", err)
	}
	return newUser(u), nil
}

func (r *Resolver) PlaceOrder(ctx context.Context, args struct {
	OrderedProductID string
	Quantity         int32
	Address          string
}) (*orderResolver, error) {
	v, err := r.orders.PlaceOrder(ctx, usecase.PlaceOrderInput{
		ProductID: args.OrderedProductID,
		Quantity:  int(args.Quantity),
		Address:   args.Address,
	})
	if err != nil {
		observ.OrderRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, toGraphQLError(ctx, "placeOrder", err)
	}
	observ.OrdersPlaced.Inc()
	return &orderResolver{v: v}, nil
}

func (r *Resolver) MarkAsReceived(ctx context.Context, args struct{ OrderID string }) (*orderResolver, error) {
	v, err := r.orders.MarkAsReceived(ctx, args.OrderID)
	if err != nil {
		return nil, toGraphQLError(ctx, "markAsReceived", err)
	}
	return &orderResolver{v: v}, nil
}

func rejectionReason(err error) string {
	kind := usecase.KindOf(err)
	if kind != usecase.KindInvalidArgument {
		return kind.String()
	}
	switch err.Error() {
	case "order quantity cannot exceed stock":
		return "out_of_stock"
	case "product not found":
		return "unknown_product"
	case usecase.ErrDuplicate.Error():
		return "duplicate"
	default:
		return "invalid_input"
	}
}
