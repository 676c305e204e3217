// Package payment defines the boundary to the payment processor. The
// storefront never sees the processor's protocol; it hands over an
// amount and two callbacks, and exactly one of them fires.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Request starts one payment collection. The callback pair is the
// entire contract with the gateway.
type Request struct {
	Amount    decimal.Decimal
	OnSuccess func(reference string)
	OnFailure func(err error)
}

// Gateway is implemented by payment processor adapters.
type Gateway interface {
	Initialize(ctx context.Context, req Request)
}
