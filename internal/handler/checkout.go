package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uncoverstore/api/internal/domain/checkout"
	"github.com/uncoverstore/api/internal/domain/order"
)

// cartItemRequest carries a cart line from the client. Submitted prices are
// display-only and deliberately absent here; pricing is always re-derived
// from the catalog server-side.
type cartItemRequest struct {
	ProductID string `json:"id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gte=1"`
}

func toCartItems(items []cartItemRequest) []checkout.CartItem {
	out := make([]checkout.CartItem, len(items))
	for i, it := range items {
		out[i] = checkout.CartItem{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}

type paymentIntentRequest struct {
	Items   []cartItemRequest     `json:"items" binding:"required,min=1,dive"`
	Address order.ShippingAddress `json:"address" binding:"required"`
}

type paymentIntentResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// createPaymentIntent prices the cart server-side, validates stock, and
// registers a payment intent at the gateway. No order or stock rows are
// written at this stage.
func (s *Server) createPaymentIntent(c *gin.Context) {
	var req paymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid checkout payload")
		return
	}

	intent, err := s.checkout.Prepare(c.Request.Context(), toCartItems(req.Items), req.Address)
	if err != nil {
		writeCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, paymentIntentResponse{
		ID:       intent.ID,
		Amount:   intent.Amount,
		Currency: intent.Currency,
		Receipt:  intent.Receipt,
	})
}

// verifyPaymentRequest mirrors the gateway callback relayed by the client.
// Total is accepted for backwards compatibility but never trusted; the
// committed total is recomputed from the catalog. CustomerAddress accepts
// either a structured object or a plain string.
type verifyPaymentRequest struct {
	GatewayOrderID   string            `json:"gatewayOrderId" binding:"required"`
	GatewayPaymentID string            `json:"gatewayPaymentId" binding:"required"`
	Signature        string            `json:"signature" binding:"required"`
	Total            int64             `json:"total"`
	Items            []cartItemRequest `json:"items" binding:"required,min=1,dive"`
	CustomerName     string            `json:"customerName"`
	CustomerEmail    string            `json:"customerEmail" binding:"required,email"`
	CustomerAddress  json.RawMessage   `json:"customerAddress"`
}

type verifyPaymentResponse struct {
	Verified bool   `json:"verified"`
	OrderID  string `json:"orderId"`
}

func (s *Server) verifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "missing payment data")
		return
	}

	o, err := s.checkout.Confirm(c.Request.Context(), checkout.ConfirmRequest{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
		Items:            toCartItems(req.Items),
		Customer: checkout.Customer{
			Name:    req.CustomerName,
			Email:   req.CustomerEmail,
			Address: order.NormalizeAddress(req.CustomerAddress),
		},
	})
	if err != nil {
		writeCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, verifyPaymentResponse{Verified: true, OrderID: o.ID})
}

// checkoutCODRequest is the cash-on-delivery checkout payload.
type checkoutCODRequest struct {
	Items           []cartItemRequest `json:"cartItems" binding:"required,min=1,dive"`
	CustomerName    string            `json:"customerName"`
	CustomerEmail   string            `json:"customerEmail" binding:"required,email"`
	CustomerAddress json.RawMessage   `json:"customerAddress"`
}

type checkoutCODResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
}

// checkoutCOD places an order without gateway settlement. The order starts
// PENDING; stock is committed through the same atomic path as verified
// payments.
func (s *Server) checkoutCOD(c *gin.Context) {
	var req checkoutCODRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid checkout payload")
		return
	}

	o, err := s.checkout.ConfirmCOD(c.Request.Context(), toCartItems(req.Items), checkout.Customer{
		Name:    req.CustomerName,
		Email:   req.CustomerEmail,
		Address: order.NormalizeAddress(req.CustomerAddress),
	})
	if err != nil {
		writeCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, checkoutCODResponse{Success: true, OrderID: o.ID})
}
