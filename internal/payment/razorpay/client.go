// Package razorpay adapts the Razorpay Orders API to the payment.Gateway
// interface.
package razorpay

import (
	"context"

	"github.com/go-faster/errors"
	rzp "github.com/razorpay/razorpay-go"

	"github.com/uncoverstore/api/internal/payment"
)

var _ payment.Gateway = (*Client)(nil)

// Client wraps the official Razorpay SDK. The key secret held here is also
// the HMAC key the gateway uses to sign payment confirmations; it never
// leaves the server.
type Client struct {
	sdk *rzp.Client
}

// New creates a Client authenticated with the given API key pair.
func New(keyID, keySecret string) *Client {
	return &Client{sdk: rzp.NewClient(keyID, keySecret)}
}

// CreateIntent registers a gateway order for the given amount in the
// smallest currency unit. The SDK does not accept a context; ctx is checked
// before the call so a cancelled request at least fails fast.
func (c *Client) CreateIntent(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*payment.Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		noteData := make(map[string]interface{}, len(notes))
		for k, v := range notes {
			noteData[k] = v
		}
		data["notes"] = noteData
	}

	body, err := c.sdk.Order.Create(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create gateway order")
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return nil, errors.New("gateway response missing order id")
	}

	intent := &payment.Intent{
		ID:       id,
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}
	// Prefer the gateway's echoed values when present.
	if v, ok := body["amount"].(float64); ok {
		intent.Amount = int64(v)
	}
	if v, ok := body["currency"].(string); ok && v != "" {
		intent.Currency = v
	}
	if v, ok := body["receipt"].(string); ok && v != "" {
		intent.Receipt = v
	}

	return intent, nil
}
