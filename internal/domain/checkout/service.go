// Package checkout implements the order placement core: server-side cart
// pricing, payment intent creation, confirmation verification, and the
// atomic stock-decrement commit.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uncoverstore/api/internal/domain/order"
	"github.com/uncoverstore/api/internal/domain/product"
	"github.com/uncoverstore/api/internal/payment"
)

const (
	currency       = "INR"
	platformMarker = "uncover-store"

	// Sizing for the replay-guard filter. False positives only cost one
	// extra repository lookup.
	replayFilterCapacity = 1_000_000
	replayFilterFPR      = 0.001
)

// CartItem is a client-submitted line: which product and how many. The
// client never supplies authoritative pricing; prices are re-derived from
// the catalog on every operation.
type CartItem struct {
	ProductID string
	Quantity  int
}

// Customer carries the buyer identity attached to a committed order.
// Address is the canonical serialized form (see order.NormalizeAddress).
type Customer struct {
	Name    string
	Email   string
	Address string
}

// ConfirmRequest is the input to Confirm: the gateway's signed proof of
// payment plus the cart snapshot and customer details to commit.
type ConfirmRequest struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	Items            []CartItem
	Customer         Customer
}

// Committer persists a priced order and its stock decrements in one
// indivisible storage-layer step. Implementations must decrement each line
// conditionally (only while stock >= quantity) and roll everything back on
// any failed line, returning InsufficientStockError. A duplicate gateway
// order id must fail with ErrAlreadyConfirmed.
type Committer interface {
	CommitOrder(ctx context.Context, o *order.Order) error
}

// Service orchestrates the checkout flow. It holds no locks of its own;
// inventory correctness under concurrent confirms rests entirely on the
// Committer's conditional decrement.
type Service struct {
	products  product.Repository
	gateway   payment.Gateway
	committer Committer
	orders    order.Repository
	secret    string

	// seen is a fast-path guard against replayed confirmations. Positive
	// hits are re-checked against the order store; the durable unique index
	// on gateway_order_id remains the authority.
	mu   sync.Mutex
	seen *bloom.BloomFilter

	now func() time.Time
}

// NewService creates a checkout Service. secret is the gateway key secret
// used to verify confirmation signatures.
func NewService(
	products product.Repository,
	gateway payment.Gateway,
	committer Committer,
	orders order.Repository,
	secret string,
) *Service {
	return &Service{
		products:  products,
		gateway:   gateway,
		committer: committer,
		orders:    orders,
		secret:    secret,
		seen:      bloom.NewWithEstimates(replayFilterCapacity, replayFilterFPR),
		now:       time.Now,
	}
}

// Prepare validates the cart against current inventory, prices it from the
// catalog, and creates a payment intent at the gateway. Nothing durable is
// written: abandoned checkouts leave no local state behind, only a harmless
// orphaned intent at the gateway.
func (s *Service) Prepare(ctx context.Context, items []CartItem, addr order.ShippingAddress) (*payment.Intent, error) {
	if !addr.Complete() {
		return nil, ErrIncompleteAddress
	}

	_, total, err := s.priceCart(ctx, items)
	if err != nil {
		return nil, err
	}

	receipt := fmt.Sprintf("receipt_%d", s.now().UnixMilli())
	intent, err := s.gateway.CreateIntent(ctx, total, currency, receipt, map[string]string{
		"platform": platformMarker,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create payment intent")
	}

	zctx.From(ctx).Info("payment intent created",
		zap.String("gateway_order_id", intent.ID),
		zap.Int64("amount", intent.Amount),
	)
	return intent, nil
}

// Confirm verifies a gateway payment confirmation and, on success, commits
// the order and its stock decrements atomically.
//
// Check order matters: field validation happens before any I/O, signature
// verification before any store access, and a forged confirmation returns
// with zero durable side effects.
func (s *Service) Confirm(ctx context.Context, req ConfirmRequest) (*order.Order, error) {
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		return nil, ErrMissingFields
	}
	if req.Customer.Email == "" {
		return nil, ErrMissingFields
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	if !payment.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, s.secret, req.Signature) {
		zctx.From(ctx).Warn("payment signature verification failed",
			zap.String("gateway_order_id", req.GatewayOrderID),
			zap.String("gateway_payment_id", req.GatewayPaymentID),
		)
		return nil, ErrInvalidSignature
	}

	if err := s.checkReplay(ctx, req.GatewayOrderID); err != nil {
		return nil, err
	}

	// Re-derive authoritative pricing; elapsed time since Prepare means the
	// catalog may have changed. Client-submitted prices are never trusted.
	lines, total, err := s.priceCart(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		ID:               uuid.New().String(),
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Total:            total,
		Items:            lines,
		Status:           order.StatusPaid,
		CustomerName:     req.Customer.Name,
		CustomerEmail:    req.Customer.Email,
		CustomerAddress:  req.Customer.Address,
	}

	if err := s.committer.CommitOrder(ctx, o); err != nil {
		return nil, err
	}
	s.markSeen(req.GatewayOrderID)

	zctx.From(ctx).Info("order committed",
		zap.String("order_id", o.ID),
		zap.String("gateway_order_id", o.GatewayOrderID),
		zap.Int64("total", o.Total),
	)
	return o, nil
}

// ConfirmCOD commits a cash-on-delivery order: same validation, pricing, and
// atomic stock commit as Confirm, but no gateway round-trip and the order
// starts PENDING. PAID remains reserved for verified payments.
func (s *Service) ConfirmCOD(ctx context.Context, items []CartItem, customer Customer) (*order.Order, error) {
	if customer.Email == "" {
		return nil, ErrMissingFields
	}

	lines, total, err := s.priceCart(ctx, items)
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		ID:              uuid.New().String(),
		Total:           total,
		Items:           lines,
		Status:          order.StatusPending,
		CustomerName:    customer.Name,
		CustomerEmail:   customer.Email,
		CustomerAddress: customer.Address,
	}

	if err := s.committer.CommitOrder(ctx, o); err != nil {
		return nil, err
	}

	zctx.From(ctx).Info("cod order committed",
		zap.String("order_id", o.ID),
		zap.Int64("total", o.Total),
	)
	return o, nil
}

// priceCart validates items, batch-loads the referenced products, checks
// current stock, and returns the priced line-item snapshot with the
// authoritative total.
func (s *Service) priceCart(ctx context.Context, items []CartItem) ([]order.LineItem, int64, error) {
	if len(items) == 0 {
		return nil, 0, ErrEmptyCart
	}

	ids := make([]string, len(items))
	for i, item := range items {
		if item.Quantity < 1 {
			return nil, 0, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	lines := make([]order.LineItem, len(items))
	var total int64
	for i, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, 0, &ProductNotFoundError{ProductID: item.ProductID}
		}
		if int64(item.Quantity) > p.Stock {
			return nil, 0, &InsufficientStockError{ProductID: p.ID, Requested: item.Quantity}
		}

		lines[i] = order.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  item.Quantity,
			Image:     p.Image,
		}
		total += p.Price * int64(item.Quantity)
	}

	return lines, total, nil
}

// checkReplay rejects confirmations whose gateway order id has already been
// consumed. The filter makes the common case cheap; a positive hit falls
// through to a durable lookup because bloom positives may be false.
func (s *Service) checkReplay(ctx context.Context, gatewayOrderID string) error {
	s.mu.Lock()
	maybeSeen := s.seen.TestString(gatewayOrderID)
	s.mu.Unlock()
	if !maybeSeen {
		return nil
	}

	existing, err := s.orders.GetByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil
		}
		return errors.Wrap(err, "check existing confirmation")
	}
	if existing != nil {
		return ErrAlreadyConfirmed
	}
	return nil
}

func (s *Service) markSeen(gatewayOrderID string) {
	s.mu.Lock()
	s.seen.AddString(gatewayOrderID)
	s.mu.Unlock()
}
