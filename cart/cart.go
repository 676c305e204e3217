// Package cart holds the in-memory source of truth for the shopping
// cart and the persistence paths behind it: on-device only for guests,
// remote-backed with an on-device mirror for signed-in users.
package cart

import (
	"github.com/shopspring/decimal"
)

// Line is one product entry. A line exists only with quantity >= 1;
// mutations that would take it to zero remove it instead.
type Line struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is a line set. Totals and counts are always derived from the
// lines on read; no aggregate is stored anywhere it could go stale.
type Cart struct {
	Lines []Line
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Count is the badge count: the sum of quantities across lines.
func (c Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c Cart) find(productID string) int {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) clone() Cart {
	out := Cart{Lines: make([]Line, len(c.Lines))}
	copy(out.Lines, c.Lines)
	return out
}

// Value-semantics mutation helpers. Each returns a fresh cart so the
// store's current cart is never aliased by callers.

func (c Cart) withAdd(productID string, unitPrice decimal.Decimal) Cart {
	out := c.clone()
	if i := out.find(productID); i >= 0 {
		out.Lines[i].Quantity++
		out.Lines[i].UnitPrice = unitPrice
		return out
	}
	out.Lines = append(out.Lines, Line{ProductID: productID, Quantity: 1, UnitPrice: unitPrice})
	return out
}

func (c Cart) withDecrement(productID string) Cart {
	out := c.clone()
	i := out.find(productID)
	if i < 0 {
		return out
	}
	out.Lines[i].Quantity--
	if out.Lines[i].Quantity <= 0 {
		out.Lines = append(out.Lines[:i], out.Lines[i+1:]...)
	}
	return out
}

func (c Cart) withoutLine(productID string) Cart {
	out := c.clone()
	if i := out.find(productID); i >= 0 {
		out.Lines = append(out.Lines[:i], out.Lines[i+1:]...)
	}
	return out
}
