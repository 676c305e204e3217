// Copyright 2024 Google LLC
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
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Tamilselvan155/senba-storefront/api"
	"github.com/Tamilselvan155/senba-storefront/checkout"
	"github.com/Tamilselvan155/senba-storefront/validator"
)

type checkoutView struct {
	ID           string           `json:"id"`
	Step         string           `json:"step"`
	Address      *api.Address     `json:"address,omitempty"`
	Instructions string           `json:"instructions,omitempty"`
	Method       string           `json:"paymentMethod,omitempty"`
	Result       *api.OrderResult `json:"result,omitempty"`
}

func renderCheckout(cs *checkout.Session) checkoutView {
	view := checkoutView{
		ID:           cs.ID(),
		Step:         cs.Step().String(),
		Instructions: cs.Instructions(),
		Method:       string(cs.Method()),
	}
	if addr, ok := cs.Address(); ok {
		view.Address = &addr
	}
	if res, ok := cs.Result(); ok {
		view.Result = &res
	}
	return view
}

// activeCheckout returns the current session, or nil if none was started.
func (fe *frontendServer) activeCheckout() *checkout.Session {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.checkout
}

func (fe *frontendServer) startCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	fe.mu.Lock()
	defer fe.mu.Unlock()
	// An unfinished session is resumed, not replaced; a confirmed one is
	// done and a fresh purchase gets a fresh session.
	if fe.checkout != nil && fe.checkout.Step() != checkout.StepConfirmed {
		writeJSON(log, w, http.StatusOK, renderCheckout(fe.checkout))
		return
	}
	cs, err := checkout.NewSession(fe.cart.Count)
	if err != nil {
		renderAPIError(log, w, err)
		return
	}
	fe.checkout = cs
	log.WithField("checkoutSession", cs.ID()).Debug("checkout started")
	writeJSON(log, w, http.StatusCreated, renderCheckout(cs))
}

func (fe *frontendServer) checkoutStateHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	cs := fe.activeCheckout()
	if cs == nil {
		writeJSONError(log, w, http.StatusNotFound, "no checkout in progress")
		return
	}
	writeJSON(log, w, http.StatusOK, renderCheckout(cs))
}

func (fe *frontendServer) checkoutAddressHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	cs := fe.activeCheckout()
	if cs == nil {
		writeJSONError(log, w, http.StatusNotFound, "no checkout in progress")
		return
	}
	var payload validator.AddressPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		renderHTTPError(log, w, validator.ValidationErrorResponse(err), http.StatusUnprocessableEntity)
		return
	}
	err := cs.SelectAddress(api.Address{
		Name:    payload.Name,
		Phone:   payload.Phone,
		Street:  payload.Street,
		City:    payload.City,
		State:   payload.State,
		Zip:     payload.Zip,
		Country: payload.Country,
	})
	if err != nil {
		renderAPIError(log, w, err)
		return
	}
	writeJSON(log, w, http.StatusOK, renderCheckout(cs))
}

func (fe *frontendServer) checkoutInstructionsHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	cs := fe.activeCheckout()
	if cs == nil {
		writeJSONError(log, w, http.StatusNotFound, "no checkout in progress")
		return
	}
	var payload validator.InstructionsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		renderHTTPError(log, w, validator.ValidationErrorResponse(err), http.StatusUnprocessableEntity)
		return
	}
	if err := cs.SetInstructions(payload.Instructions); err != nil {
		renderAPIError(log, w, err)
		return
	}
	writeJSON(log, w, http.StatusOK, renderCheckout(cs))
}

func (fe *frontendServer) checkoutPaymentMethodHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	cs := fe.activeCheckout()
	if cs == nil {
		writeJSONError(log, w, http.StatusNotFound, "no checkout in progress")
		return
	}
	var payload validator.PaymentMethodPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		renderHTTPError(log, w, validator.ValidationErrorResponse(err), http.StatusUnprocessableEntity)
		return
	}
	if err := cs.SelectPaymentMethod(checkout.PaymentMethod(payload.Method)); err != nil {
		renderAPIError(log, w, err)
		return
	}
	writeJSON(log, w, http.StatusOK, renderCheckout(cs))
}

func (fe *frontendServer) checkoutNextHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	cs := fe.activeCheckout()
	if cs == nil {
		writeJSONError(log, w, http.StatusNotFound, "no checkout in progress")
		return
	}
	if err := cs.Next(); err != nil {
		renderAPIError(log, w, err)
		return
	}
	writeJSON(log, w, http.StatusOK, renderCheckout(cs))
}

func (fe *frontendServer) checkoutBackHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	cs := fe.activeCheckout()
	if cs == nil {
		writeJSONError(log, w, http.StatusNotFound, "no checkout in progress")
		return
	}
	if err := cs.Back(); err != nil {
		renderAPIError(log, w, err)
		return
	}
	writeJSON(log, w, http.StatusOK, renderCheckout(cs))
}

func (fe *frontendServer) placeOrderHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	cs := fe.activeCheckout()
	if cs == nil {
		writeJSONError(log, w, http.StatusNotFound, "no checkout in progress")
		return
	}
	res, err := fe.submitter.Submit(r.Context(), cs)
	if err != nil {
		renderAPIError(log, w, err)
		return
	}
	log.WithField("order", res.OrderID).Debug("order placed")
	writeJSON(log, w, http.StatusOK, map[string]interface{}{
		"order":    res,
		"checkout": renderCheckout(cs),
	})
}
