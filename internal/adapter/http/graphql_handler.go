package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/graphql-go"

	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/observ"
	"github.com/snake-eaterr/Snake-Way-Server/internal/logging"
)

const maxGraphQLBody = 1 << 20

type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

type GraphQLHandler struct {
	schema *graphql.Schema
}

func NewGraphQLHandler(schema *graphql.Schema) *GraphQLHandler {
	return &GraphQLHandler{schema: schema}
}

// Serve handles GET and POST /graphql. Resolver failures are reported in the
// response body with status 200; only malformed requests get a 400.
func (h *GraphQLHandler) Serve(c *gin.Context) {
	req, err := readGraphQLRequest(c.Writer, c.Request)
	if err != nil {
		logging.From(c).Warn("bad graphql request", "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"errors": []gin.H{{"message": err.Error()}}})
		return
	}

	resp := h.schema.Exec(c.Request.Context(), req.Query, req.OperationName, req.Variables)

	op := req.OperationName
	if op == "" {
		op = "anonymous"
	}
	outcome := observ.OutcomeOK
	if len(resp.Errors) > 0 {
		outcome = observ.OutcomeError
	}
	observ.GraphQLOperations.WithLabelValues(op, outcome).Inc()

	c.JSON(http.StatusOK, resp)
}

func readGraphQLRequest(w http.ResponseWriter, r *http.Request) (*graphqlRequest, error) {
	req := &graphqlRequest{}
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				return nil, fmt.Errorf("variables is not a JSON object: %w", err)
			}
		}

	case http.MethodPost:
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			return nil, fmt.Errorf("unable to parse media type: %w", err)
		}
		if mediaType != "application/json" {
			return nil, errors.New("unrecognised Content-Type, use application/json for GraphQL requests")
		}
		// variables are decoded as float64 on purpose: graphql-go coerces Int from float64
		d := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGraphQLBody))
		if err := d.Decode(req); err != nil {
			return nil, fmt.Errorf("not a valid GraphQL request body: %w", err)
		}

	default:
		return nil, errors.New("unrecognised request method, use GET or POST for GraphQL requests")
	}

	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.New("query is required")
	}
	return req, nil
}
