// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Tamilselvan155/senba-storefront/api"
	"github.com/Tamilselvan155/senba-storefront/cart"
	"github.com/Tamilselvan155/senba-storefront/checkout"
	"github.com/Tamilselvan155/senba-storefront/validator"
)

type cartLineView struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Subtotal  string `json:"subtotal"`
}

type cartView struct {
	Lines []cartLineView `json:"lines"`
	Count int            `json:"count"`
	Total string         `json:"total"`
}

func renderCart(c cart.Cart) cartView {
	view := cartView{
		Lines: make([]cartLineView, 0, len(c.Lines)),
		Count: c.Count(),
		Total: c.Total().String(),
	}
	for _, l := range c.Lines {
		view.Lines = append(view.Lines, cartLineView{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.String(),
			Subtotal:  l.Subtotal().String(),
		})
	}
	return view
}

func (fe *frontendServer) viewCartHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("view user cart")
	writeJSON(log, w, http.StatusOK, renderCart(fe.cart.Snapshot()))
}

func (fe *frontendServer) addToCartHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	var payload validator.AddToCartPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		renderHTTPError(log, w, validator.ValidationErrorResponse(err), http.StatusUnprocessableEntity)
		return
	}
	log.WithField("product", payload.ProductID).Debug("adding to cart")

	updated, err := fe.cart.AddLine(r.Context(), payload.ProductID, payload.Price())
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "failed to add to cart"))
		return
	}
	writeJSON(log, w, http.StatusOK, renderCart(updated))
}

func (fe *frontendServer) removeFromCartHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	var payload validator.CartLinePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		renderHTTPError(log, w, validator.ValidationErrorResponse(err), http.StatusUnprocessableEntity)
		return
	}
	log.WithField("product", payload.ProductID).Debug("decrementing cart line")

	updated, err := fe.cart.RemoveLine(r.Context(), payload.ProductID)
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "failed to update cart"))
		return
	}
	writeJSON(log, w, http.StatusOK, renderCart(updated))
}

func (fe *frontendServer) deleteFromCartHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	var payload validator.CartLinePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		renderHTTPError(log, w, validator.ValidationErrorResponse(err), http.StatusUnprocessableEntity)
		return
	}
	log.WithField("product", payload.ProductID).Debug("deleting cart line")

	updated, err := fe.cart.DeleteLine(r.Context(), payload.ProductID)
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "failed to delete cart line"))
		return
	}
	writeJSON(log, w, http.StatusOK, renderCart(updated))
}

func (fe *frontendServer) emptyCartHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("emptying cart")

	updated, err := fe.cart.Clear(r.Context())
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "failed to empty cart"))
		return
	}
	writeJSON(log, w, http.StatusOK, renderCart(updated))
}

func (fe *frontendServer) listAddressesHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	addrs, err := fe.addresses.List(r.Context())
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "could not retrieve addresses"))
		return
	}
	writeJSON(log, w, http.StatusOK, addrs)
}

func (fe *frontendServer) createAddressHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	var payload validator.AddressPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		renderHTTPError(log, w, validator.ValidationErrorResponse(err), http.StatusUnprocessableEntity)
		return
	}

	created, err := fe.addresses.Create(r.Context(), api.Address{
		Name:    payload.Name,
		Phone:   payload.Phone,
		Street:  payload.Street,
		City:    payload.City,
		State:   payload.State,
		Zip:     payload.Zip,
		Country: payload.Country,
	})
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "could not save address"))
		return
	}
	writeJSON(log, w, http.StatusCreated, created)
}

func (fe *frontendServer) orderHistoryHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("view order history")

	if _, ok := fe.identity.Current(); !ok {
		writeJSONError(log, w, http.StatusUnauthorized, "sign in to view your orders")
		return
	}
	orders, err := fe.orders.History(r.Context())
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "could not retrieve order history"))
		return
	}
	writeJSON(log, w, http.StatusOK, orders)
}

// --- shared rendering helpers ---

func writeJSON(log logrus.FieldLogger, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err)
	}
}

func writeJSONError(log logrus.FieldLogger, w http.ResponseWriter, status int, msg string) {
	writeJSON(log, w, status, map[string]interface{}{
		"error":       msg,
		"status_code": status,
		"status":      http.StatusText(status),
	})
}

func renderHTTPError(log logrus.FieldLogger, w http.ResponseWriter, err error, code int) {
	log.WithField("error", err).Error("request error")
	writeJSONError(log, w, code, err.Error())
}

// renderAPIError maps the core's error taxonomy onto HTTP statuses and
// user-facing messages. Authentication failures are kept distinct from
// network failures so the client re-authenticates instead of retrying.
func renderAPIError(log logrus.FieldLogger, w http.ResponseWriter, err error) {
	log.WithField("error", err).Error("request error")

	switch {
	case stderrors.Is(err, api.ErrUnauthenticated):
		writeJSONError(log, w, http.StatusUnauthorized, "your session is no longer valid, please sign in again")
	case stderrors.Is(err, checkout.ErrAuthRequired):
		writeJSONError(log, w, http.StatusUnauthorized, "sign in to place an order")
	case stderrors.Is(err, checkout.ErrPaymentNotRecorded):
		writeJSONError(log, w, http.StatusBadGateway,
			"your payment went through but the order could not be recorded; please contact support, do not pay again")
	case stderrors.Is(err, checkout.ErrSubmissionInFlight):
		writeJSONError(log, w, http.StatusConflict, "your order is already being placed")
	case stderrors.Is(err, checkout.ErrEmptyCart),
		stderrors.Is(err, checkout.ErrNoAddress),
		stderrors.Is(err, checkout.ErrNoPaymentMethod),
		stderrors.Is(err, checkout.ErrPaymentStepRequired),
		stderrors.Is(err, checkout.ErrSubmitRequired),
		stderrors.Is(err, checkout.ErrSessionConfirmed):
		writeJSONError(log, w, http.StatusUnprocessableEntity, err.Error())
	default:
		var se *api.StatusError
		if stderrors.As(err, &se) {
			writeJSONError(log, w, http.StatusBadGateway, se.Body)
			return
		}
		writeJSONError(log, w, http.StatusInternalServerError, err.Error())
	}
}
