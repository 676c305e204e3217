package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository is the persistence path behind the store, selected by
// identity state. The guest implementation mutates the on-device record
// directly; the authenticated implementation round-trips every mutation
// to the remote cart store and mirrors the authoritative result
// on-device. Mutations return the settled cart.
type Repository interface {
	Load(ctx context.Context) (Cart, error)
	Add(ctx context.Context, productID string, unitPrice decimal.Decimal) (Cart, error)
	Decrement(ctx context.Context, productID string) (Cart, error)
	Delete(ctx context.Context, productID string) (Cart, error)
	Clear(ctx context.Context) (Cart, error)
}
