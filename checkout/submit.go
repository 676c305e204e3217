package checkout

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Tamilselvan155/senba-storefront/api"
	"github.com/Tamilselvan155/senba-storefront/cart"
	"github.com/Tamilselvan155/senba-storefront/payment"
	"github.com/Tamilselvan155/senba-storefront/session"
)

// Submitter builds the order snapshot and drives one of the two payment
// paths. The session's in-flight guard is taken synchronously before
// any network call, so double-clicks and re-entrant calls cannot
// produce a second order.
type Submitter struct {
	log      logrus.FieldLogger
	cart     *cart.Store
	orders   *api.OrderClient
	catalog  *api.CatalogClient
	gateway  payment.Gateway
	identity *session.Manager
}

// NewSubmitter wires the submission service. catalog may be nil, in
// which case order items keep the product ID as their display name.
func NewSubmitter(log logrus.FieldLogger, cartStore *cart.Store, orders *api.OrderClient, catalog *api.CatalogClient, gateway payment.Gateway, identity *session.Manager) *Submitter {
	return &Submitter{log: log, cart: cartStore, orders: orders, catalog: catalog, gateway: gateway, identity: identity}
}

// Submit places the order for the session. On success the cart is
// cleared exactly once and the session confirms; on a retryable failure
// the cart is untouched and the guard is released so the user may try
// again.
func (sub *Submitter) Submit(ctx context.Context, cs *Session) (api.OrderResult, error) {
	if err := cs.beginSubmit(); err != nil {
		return api.OrderResult{}, err
	}
	if _, ok := sub.identity.Current(); !ok {
		cs.endSubmit()
		return api.OrderResult{}, ErrAuthRequired
	}
	snapshot := sub.cart.Snapshot()
	if snapshot.IsEmpty() {
		cs.endSubmit()
		return api.OrderResult{}, ErrEmptyCart
	}
	req := sub.buildRequest(ctx, snapshot, cs)

	switch cs.Method() {
	case PaymentCOD:
		return sub.submitCOD(ctx, cs, req)
	case PaymentOnline:
		return sub.submitOnline(ctx, cs, req)
	default:
		// beginSubmit already rejected an empty method
		cs.endSubmit()
		return api.OrderResult{}, ErrNoPaymentMethod
	}
}

func (sub *Submitter) submitCOD(ctx context.Context, cs *Session, req api.OrderRequest) (api.OrderResult, error) {
	res, err := sub.orders.Create(ctx, req)
	if err != nil {
		cs.endSubmit()
		return api.OrderResult{}, errors.Wrap(err, "create order")
	}
	if res.PaymentStatus == "" {
		res.PaymentStatus = "pending-cod"
	}
	sub.finish(ctx, cs, res)
	return res, nil
}

func (sub *Submitter) submitOnline(ctx context.Context, cs *Session, req api.OrderRequest) (api.OrderResult, error) {
	type outcome struct {
		reference string
		err       error
	}
	done := make(chan outcome, 1)
	sub.gateway.Initialize(ctx, payment.Request{
		Amount:    req.TotalPrice,
		OnSuccess: func(reference string) { done <- outcome{reference: reference} },
		OnFailure: func(err error) { done <- outcome{err: err} },
	})

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		// The gateway outcome is unknown; the guard stays taken so a
		// blind retry cannot double-charge.
		sub.log.WithField("checkoutSession", cs.ID()).Error("payment outcome unknown: cancelled while gateway call in flight")
		return api.OrderResult{}, errors.Wrap(ctx.Err(), "online payment")
	}
	if out.err != nil {
		cs.endSubmit()
		return api.OrderResult{}, errors.Wrap(out.err, "online payment")
	}

	req.PaymentReference = out.reference
	res, err := sub.orders.Create(ctx, req)
	if err != nil {
		// A charge now exists with no order behind it. Guard stays
		// taken; the reference must not be lost.
		sub.log.WithFields(logrus.Fields{
			"checkoutSession":  cs.ID(),
			"paymentReference": out.reference,
			"error":            err,
		}).Error("payment captured but order creation failed")
		return api.OrderResult{}, errors.Wrapf(ErrPaymentNotRecorded, "payment reference %s", out.reference)
	}
	sub.finish(ctx, cs, res)
	return res, nil
}

// finish clears the cart exactly once and moves the session to its
// terminal state.
func (sub *Submitter) finish(ctx context.Context, cs *Session, res api.OrderResult) {
	if _, err := sub.cart.Clear(ctx); err != nil {
		// the order exists; a failed clear must not undo confirmation
		sub.log.WithField("error", err).Warn("cart clear after order failed")
	}
	cs.confirm(res)
	sub.log.WithFields(logrus.Fields{
		"order":           res.OrderID,
		"checkoutSession": cs.ID(),
	}).Info("order placed")
}

// buildRequest freezes the submission snapshot. Display fields are
// denormalized from the catalog now, not live-linked; a catalog miss
// degrades to the product ID, it never blocks the order.
func (sub *Submitter) buildRequest(ctx context.Context, snapshot cart.Cart, cs *Session) api.OrderRequest {
	items := make([]api.OrderItem, 0, len(snapshot.Lines))
	for _, l := range snapshot.Lines {
		item := api.OrderItem{
			ProductID: l.ProductID,
			Name:      l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
		if sub.catalog != nil {
			if p, err := sub.catalog.Product(ctx, l.ProductID); err == nil {
				item.Name = p.Name
				item.SKU = p.SKU
				item.Image = p.Image
			} else {
				sub.log.WithField("productId", l.ProductID).WithField("error", err).
					Debug("product metadata unavailable, keeping id as name")
			}
		}
		items = append(items, item)
	}
	addr, _ := cs.Address()
	return api.OrderRequest{
		Items:         items,
		TotalPrice:    snapshot.Total(),
		TotalQuantity: snapshot.Count(),
		Address:       addr,
		Notes:         cs.Instructions(),
		PaymentMethod: string(cs.Method()),
	}
}
