package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uncoverstore/api/internal/domain/order"
)

type orderResponse struct {
	ID              string           `json:"id"`
	Total           int64            `json:"total"`
	Items           []order.LineItem `json:"products"`
	Status          string           `json:"status"`
	CustomerName    string           `json:"customerName"`
	CustomerEmail   string           `json:"customerEmail"`
	CustomerAddress string           `json:"customerAddress"`
	TrackingURL     string           `json:"trackingUrl,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

func toOrderResponse(o order.Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		Total:           o.Total,
		Items:           o.Items,
		Status:          string(o.Status),
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerAddress: o.CustomerAddress,
		TrackingURL:     o.TrackingURL,
		CreatedAt:       o.CreatedAt,
	}
}

func (s *Server) listOrders(c *gin.Context) {
	orders, err := s.orders.ListByEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		writeInternalError(c, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	c.JSON(http.StatusOK, out)
}

type updateOrderRequest struct {
	OrderID     string `json:"orderId" binding:"required"`
	Status      string `json:"status" binding:"required"`
	TrackingURL string `json:"trackingUrl"`
}

// updateOrder applies a fulfillment update (status, tracking URL). Items and
// total are immutable here; this endpoint only moves an order through its
// post-payment lifecycle.
func (s *Server) updateOrder(c *gin.Context) {
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "missing order ID or status")
		return
	}

	status := order.Status(req.Status)
	if !status.Valid() {
		writeError(c, http.StatusBadRequest, "unknown order status")
		return
	}

	updated, err := s.orders.UpdateFulfillment(c.Request.Context(), req.OrderID, order.FulfillmentUpdate{
		Status:      status,
		TrackingURL: req.TrackingURL,
	})
	if err != nil {
		writeNotFoundOrInternal(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": toOrderResponse(*updated)})
}
