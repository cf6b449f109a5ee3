package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/snake-eaterr/Snake-Way-Server/internal/adapter/observ"
	"github.com/snake-eaterr/Snake-Way-Server/internal/logging"
	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

// FulfillmentHandler serves the warehouse-facing REST endpoints.
type FulfillmentHandler struct {
	orders *usecase.Orders
}

func NewFulfillmentHandler(orders *usecase.Orders) *FulfillmentHandler {
	return &FulfillmentHandler{orders: orders}
}

type orderResp struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"orderedProductId"`
	Quantity  int       `json:"quantity"`
	Address   string    `json:"address"`
	Created   time.Time `json:"created"`
	Shipped   bool      `json:"shipped"`
	Finished  bool      `json:"finished"`
}

func (h *FulfillmentHandler) MarkShipped(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	changed, err := h.orders.MarkShipped(ctx, id)
	if err != nil {
		observ.ShippingNotices.WithLabelValues("http", observ.OutcomeError).Inc()
		writeUsecaseError(c, err)
		return
	}
	observ.ShippingNotices.WithLabelValues("http", observ.OutcomeOK).Inc()
	logging.From(c).Info("order shipped", "order_id", id, "changed", changed)
	c.JSON(http.StatusOK, gin.H{"orderId": id, "shipped": true, "changed": changed})
}

func (h *FulfillmentHandler) GetOrderByID(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	v, err := h.orders.GetOrder(ctx, id)
	if err != nil {
		writeUsecaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResp{
		ID:        v.ID,
		UserID:    v.UserID,
		ProductID: v.ProductID,
		Quantity:  v.Quantity,
		Address:   v.Address,
		Created:   v.Created,
		Shipped:   v.Shipped,
		Finished:  v.Finished,
	})
}

func writeUsecaseError(c *gin.Context, err error) {
	switch usecase.KindOf(err) {
	case usecase.KindInvalidArgument:
		if err.Error() == "order not found" {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case usecase.KindPermissionDenied:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case usecase.KindUnauthenticated:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		logging.From(c).Error("request failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	}
}
