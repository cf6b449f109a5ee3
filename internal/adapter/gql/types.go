package gql

import (
	"github.com/graph-gophers/graphql-go"

	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

type userResolver struct{ u *domain.User }

func (r *userResolver) ID() graphql.ID    { return graphql.ID(r.u.ID) }
func (r *userResolver) Username() string { return r.u.Username }

func newUser(u *domain.User) *userResolver {
	if u == nil {
		return nil
	}
	return &userResolver{u: u}
}

type tokenResolver struct{ value string }

func (r *tokenResolver) Value() string { return r.value }

type reviewResolver struct{ v usecase.ReviewView }

func (r *reviewResolver) ID() string      { return r.v.ID }
func (r *reviewResolver) Text() string    { return r.v.Text }
func (r *reviewResolver) Rating() int32   { return int32(r.v.Rating) }
func (r *reviewResolver) Created() Date   { return dateOf(r.v.Created) }
func (r *reviewResolver) PostedBy() *userResolver {
	if r.v.PostedBy == nil {
		return &userResolver{u: &domain.User{ID: r.v.Review.PostedBy}}
	}
	return &userResolver{u: r.v.PostedBy}
}

type productResolver struct{ v *usecase.ProductView }

func (r *productResolver) ID() graphql.ID      { return graphql.ID(r.v.ID) }
func (r *productResolver) Label() string       { return r.v.Label }
func (r *productResolver) Description() string { return r.v.Description }
func (r *productResolver) Category() string    { return r.v.Category }
func (r *productResolver) Price() int32        { return int32(r.v.Price) }
func (r *productResolver) Stock() int32        { return int32(r.v.Stock) }
func (r *productResolver) Created() Date       { return dateOf(r.v.Created) }
func (r *productResolver) Updated() *Date      { return optDate(r.v.Updated) }

func (r *productResolver) Rating() *int32 {
	if r.v.Rating == nil {
		return nil
	}
	n := int32(*r.v.Rating)
	return &n
}

func (r *productResolver) Reviews() []*reviewResolver {
	out := make([]*reviewResolver, 0, len(r.v.Reviews))
	for _, rv := range r.v.Reviews {
		out = append(out, &reviewResolver{v: rv})
	}
	return out
}

func newProduct(v *usecase.ProductView) *productResolver {
	if v == nil {
		return nil
	}
	return &productResolver{v: v}
}

func newProducts(vs []usecase.ProductView) []*productResolver {
	out := make([]*productResolver, 0, len(vs))
	for i := range vs {
		out = append(out, &productResolver{v: &vs[i]})
	}
	return out
}

type orderResolver struct{ v *usecase.OrderView }

func (r *orderResolver) ID() graphql.ID  { return graphql.ID(r.v.ID) }
func (r *orderResolver) Quantity() int32 { return int32(r.v.Quantity) }
func (r *orderResolver) Address() string { return r.v.Address }
func (r *orderResolver) Created() Date   { return dateOf(r.v.Created) }
func (r *orderResolver) Shipped() bool   { return r.v.Shipped }
func (r *orderResolver) Finished() bool  { return r.v.Finished }

func (r *orderResolver) User() *userResolver {
	if r.v.User == nil {
		return &userResolver{u: &domain.User{ID: r.v.UserID}}
	}
	return &userResolver{u: r.v.User}
}

func (r *orderResolver) OrderedProduct() *productResolver { return newProduct(r.v.Product) }

func newOrders(vs []usecase.OrderView) []*orderResolver {
	out := make([]*orderResolver, 0, len(vs))
	for i := range vs {
		out = append(out, &orderResolver{v: &vs[i]})
	}
	return out
}
