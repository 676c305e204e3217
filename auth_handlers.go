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
	stderrors "errors"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Tamilselvan155/senba-storefront/api"
	"github.com/Tamilselvan155/senba-storefront/session"
	"github.com/Tamilselvan155/senba-storefront/validator"
)

func (fe *frontendServer) loginHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	var payload validator.LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		renderHTTPError(log, w, validator.ValidationErrorResponse(err), http.StatusUnprocessableEntity)
		return
	}

	res, err := fe.auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if stderrors.Is(err, api.ErrUnauthenticated) {
			writeJSONError(log, w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		renderAPIError(log, w, errors.Wrap(err, "login failed"))
		return
	}

	transitioned := fe.identity.Login(session.Identity{
		Token:    res.Token,
		UserID:   res.UserID,
		Username: res.Username,
	})

	body := map[string]interface{}{
		"userId":   res.UserID,
		"username": res.Username,
	}
	// A guest cart is merged into the remote one exactly once, on the
	// real anonymous-to-authenticated flip. A login issued while already
	// signed in (token refresh, account switch) holds a mirror of a
	// server cart, which is replaced by the new account's cart instead
	// of being merged into it.
	syncCart := fe.cart.Resume
	if transitioned {
		syncCart = fe.cart.HandleLogin
	}
	// Cart reconciliation failure is not a login failure: the user is
	// signed in either way, and the on-device cart keeps working.
	if err := syncCart(r.Context()); err != nil {
		log.WithField("error", err).Warn("cart sync after login failed")
		body["cartSyncWarning"] = "your saved cart could not be merged yet; it will be retried"
	}
	writeJSON(log, w, http.StatusOK, body)
}

func (fe *frontendServer) registerHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	var payload validator.RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	if err := payload.Validate(); err != nil {
		renderHTTPError(log, w, validator.ValidationErrorResponse(err), http.StatusUnprocessableEntity)
		return
	}

	err := fe.auth.Register(r.Context(), api.RegisterRequest{
		Email:     payload.Email,
		Username:  payload.Username,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	})
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "registration failed"))
		return
	}
	writeJSON(log, w, http.StatusCreated, map[string]string{"message": "account created, please sign in"})
}

func (fe *frontendServer) logoutHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("logging out")

	fe.identity.Logout()
	fe.cart.HandleLogout(r.Context())

	// A confirmed or half-finished checkout belongs to the departed user.
	fe.mu.Lock()
	fe.checkout = nil
	fe.mu.Unlock()

	writeJSON(log, w, http.StatusOK, map[string]string{"message": "signed out"})
}

func (fe *frontendServer) profileHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)

	if _, ok := fe.identity.Current(); !ok {
		writeJSONError(log, w, http.StatusUnauthorized, "sign in to view your profile")
		return
	}
	profile, err := fe.auth.Profile(r.Context())
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "could not retrieve profile"))
		return
	}
	writeJSON(log, w, http.StatusOK, profile)
}
