package payment

import "context"

// Intent is a gateway-side reservation of an amount to be paid, created
// before the customer pays. Amount is in the smallest currency unit.
type Intent struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// Gateway creates payment intents at the remote payment provider.
type Gateway interface {
	// CreateIntent registers an intent for amount (smallest currency unit)
	// tagged with the given receipt reference and metadata notes.
	CreateIntent(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*Intent, error)
}
