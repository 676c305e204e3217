package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Tamilselvan155/senba-storefront/api"
	"github.com/Tamilselvan155/senba-storefront/cartcache"
)

// RemoteRepository is the authenticated path: the cart service owns the
// cart, every call adopts its response wholesale, and the on-device
// cache is kept as a mirror so the next process start has a warm copy.
type RemoteRepository struct {
	carts *api.CartClient
	cache *cartcache.Cache
}

func NewRemoteRepository(carts *api.CartClient, cache *cartcache.Cache) *RemoteRepository {
	return &RemoteRepository{carts: carts, cache: cache}
}

func (r *RemoteRepository) Load(ctx context.Context) (Cart, error) {
	return r.adopt(r.carts.Get(ctx))
}

func (r *RemoteRepository) Add(ctx context.Context, productID string, unitPrice decimal.Decimal) (Cart, error) {
	return r.adopt(r.carts.AddLine(ctx, productID, unitPrice))
}

func (r *RemoteRepository) Decrement(ctx context.Context, productID string) (Cart, error) {
	return r.adopt(r.carts.DecrementLine(ctx, productID))
}

func (r *RemoteRepository) Delete(ctx context.Context, productID string) (Cart, error) {
	return r.adopt(r.carts.DeleteLine(ctx, productID))
}

func (r *RemoteRepository) Clear(ctx context.Context) (Cart, error) {
	return r.adopt(r.carts.Clear(ctx))
}

// Sync folds the guest cart into whatever the cart service already
// holds for this user. The union happens server side.
func (r *RemoteRepository) Sync(ctx context.Context, local Cart) (Cart, error) {
	return r.adopt(r.carts.Sync(ctx, toWire(local.Lines)))
}

// adopt converts the server's cart, drops structurally invalid lines,
// and mirrors the result on-device. The wire total is ignored; the
// mirror stores a recomputed one.
func (r *RemoteRepository) adopt(wire api.Cart, err error) (Cart, error) {
	if err != nil {
		return Cart{}, err
	}
	c := fromWire(wire.Lines)
	if c.IsEmpty() {
		r.cache.Clear()
	} else {
		r.cache.Save(toCache(c.Lines), c.Total())
	}
	return c, nil
}

func fromWire(lines []api.CartLine) Cart {
	out := Cart{}
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity <= 0 || l.UnitPrice.IsNegative() {
			continue
		}
		out.Lines = append(out.Lines, Line{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return out
}

func toWire(lines []Line) []api.CartLine {
	out := make([]api.CartLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, api.CartLine{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return out
}
