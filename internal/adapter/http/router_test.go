package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snake-eaterr/Snake-Way-Server/configs"
	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/gql"
	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/http/middleware"
	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/repo"
	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
	"github.com/snake-eaterr/Snake-Way-Server/internal/security"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

type server struct {
	router   *gin.Engine
	products *repo.MemoryProductRepo
	orders   *repo.MemoryOrderRepo
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	products := repo.NewMemoryProductRepo()
	users := repo.NewMemoryUserRepo()
	orders := repo.NewMemoryOrderRepo()
	tokens := security.NewTokens(security.KeyMaterial{Method: jwt.SigningMethodHS256, Secret: []byte("test")},
		"shop-api", "shop-clients", time.Hour)

	catalog := usecase.NewCatalog(products, users, nil)
	accts := usecase.NewUsers(users, security.BcryptHasher{Cost: 4}, tokens)
	svc := usecase.NewOrders(products, orders, users)
	schema := gql.MustNewSchema(gql.NewResolver(catalog, accts, svc), 12)

	clients := security.NewClientRegistry([]configs.Client{
		{ID: "warehouse", Secret: "ship-it", Perms: []string{security.PermOrdersRead, security.PermOrdersShip}, Enabled: true},
		{ID: "analytics", Secret: "read-only", Perms: []string{security.PermOrdersRead}, Enabled: true},
	})

	r := NewRouter(Handlers{
		GraphQL:     NewGraphQLHandler(schema),
		Token:       NewTokenHandler(clients, tokens),
		Fulfillment: NewFulfillmentHandler(svc),
	}, middleware.NewAuthz(tokens), usecase.NewAuthenticator(tokens, users), slog.Default())

	return &server{router: r, products: products, orders: orders}
}

func (s *server) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type gqlResp struct {
	Data   map[string]json.RawMessage
	Errors []struct {
		Message    string
		Extensions map[string]interface{}
	}
}

func (s *server) graphql(t *testing.T, bearer, query string, vars map[string]interface{}) gqlResp {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out gqlResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *server) userToken(t *testing.T, name string) string {
	t.Helper()
	vars := map[string]interface{}{"u": name, "p": "password123"}
	r := s.graphql(t, "", `mutation($u: String!, $p: String!) { createUser(username: $u, password: $p) { id } }`, vars)
	require.Empty(t, r.Errors)
	r = s.graphql(t, "", `mutation($u: String!, $p: String!) { login(username: $u, password: $p) { value } }`, vars)
	require.Empty(t, r.Errors)
	var tok struct{ Value string }
	require.NoError(t, json.Unmarshal(r.Data["login"], &tok))
	return tok.Value
}

func (s *server) clientToken(t *testing.T, id, secret string) string {
	t.Helper()
	form := url.Values{"client_id": {id}, "client_secret": {secret}}
	req := httptest.NewRequest(http.MethodPost, "/v1/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "Bearer", out.TokenType)
	assert.Equal(t, int64(3600), out.ExpiresIn)
	return out.AccessToken
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestGraphQLOverGET(t *testing.T) {
	s := newServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/graphql?query="+url.QueryEscape("{ productCount }"), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"productCount":0}}`, w.Body.String())
}

func TestGraphQLBadRequests(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader("{ productCount }"))
	req.Header.Set("Content-Type", "text/plain")
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/graphql?variables=oops&query=x", nil)
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)
}

func TestBearerResolution(t *testing.T) {
	s := newServer(t)
	tok := s.userToken(t, "luke")

	for _, h := range []string{"Bearer " + tok, "bearer " + tok, "BEARER " + tok} {
		r := s.graphql(t, h, `{ me { username } }`, nil)
		require.Empty(t, r.Errors)
		assert.JSONEq(t, `{"username":"luke"}`, string(r.Data["me"]))
	}

	r := s.graphql(t, "Bearer not-a-token", `{ me { username } }`, nil)
	require.Empty(t, r.Errors)
	assert.Equal(t, "null", string(r.Data["me"]))

	r = s.graphql(t, "Bearer not-a-token", `mutation { placeOrder(orderedProductId: "x", quantity: 1, address: "y") { id } }`, nil)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, "Not authenticated", r.Errors[0].Message)
	assert.Equal(t, "UNAUTHENTICATED", r.Errors[0].Extensions["code"])
}

func TestShippingEndpoints(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	p := &domain.Product{Label: "atari", Description: "console", Category: "electronics", Price: 5, Stock: 50, Created: time.Now()}
	require.NoError(t, s.products.Create(ctx, p))
	o := &domain.Order{UserID: "u1", ProductID: p.ID, Quantity: 1, Address: "x", Created: time.Now()}
	require.NoError(t, s.orders.Create(ctx, o))

	shipped := func(bearer, id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/orders/"+id+"/shipped", nil)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		return s.do(req)
	}

	assert.Equal(t, http.StatusUnauthorized, shipped("", o.ID).Code)

	// user tokens are not client tokens
	assert.Equal(t, http.StatusUnauthorized, shipped(s.userToken(t, "luke"), o.ID).Code)

	reader := s.clientToken(t, "analytics", "read-only")
	assert.Equal(t, http.StatusForbidden, shipped(reader, o.ID).Code)

	shipper := s.clientToken(t, "warehouse", "ship-it")
	w := shipped(shipper, o.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"orderId":"`+o.ID+`","shipped":true,"changed":true}`, w.Body.String())

	w = shipped(shipper, o.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"changed":false`)

	assert.Equal(t, http.StatusNotFound, shipped(shipper, "missing").Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/orders/"+o.ID, nil)
	req.Header.Set("Authorization", "Bearer "+reader)
	w = s.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	var got orderResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Shipped)
	assert.Equal(t, p.ID, got.ProductID)
}

func TestTokenRejectsBadClient(t *testing.T) {
	s := newServer(t)
	form := url.Values{"client_id": {"warehouse"}, "client_secret": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/v1/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/token", strings.NewReader(`{"client_id":"warehouse","client_secret":"ship-it"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusOK, s.do(req).Code)
}
