package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Tamilselvan155/senba-storefront/cartcache"
)

// LocalRepository keeps the guest cart in the on-device cache only.
// Cache I/O is best-effort and never fails a mutation, so every method
// returns a nil error; the interface shape is shared with the remote
// path, which does fail.
type LocalRepository struct {
	cache *cartcache.Cache
}

func NewLocalRepository(cache *cartcache.Cache) *LocalRepository {
	return &LocalRepository{cache: cache}
}

func (r *LocalRepository) Load(ctx context.Context) (Cart, error) {
	return fromCache(r.cache.Load()), nil
}

func (r *LocalRepository) Add(ctx context.Context, productID string, unitPrice decimal.Decimal) (Cart, error) {
	c := fromCache(r.cache.Load()).withAdd(productID, unitPrice)
	r.persist(c)
	return c, nil
}

func (r *LocalRepository) Decrement(ctx context.Context, productID string) (Cart, error) {
	c := fromCache(r.cache.Load()).withDecrement(productID)
	r.persist(c)
	return c, nil
}

func (r *LocalRepository) Delete(ctx context.Context, productID string) (Cart, error) {
	c := fromCache(r.cache.Load()).withoutLine(productID)
	r.persist(c)
	return c, nil
}

func (r *LocalRepository) Clear(ctx context.Context) (Cart, error) {
	r.cache.Clear()
	return Cart{}, nil
}

func (r *LocalRepository) persist(c Cart) {
	if c.IsEmpty() {
		// no zero-quantity shells on disk
		r.cache.Clear()
		return
	}
	r.cache.Save(toCache(c.Lines), c.Total())
}

func fromCache(lines []cartcache.Line) Cart {
	out := Cart{}
	for _, l := range lines {
		out.Lines = append(out.Lines, Line{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return out
}

func toCache(lines []Line) []cartcache.Line {
	out := make([]cartcache.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, cartcache.Line{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return out
}
