// Package validator holds the request payload shapes accepted by the
// HTTP surface and their validation rules. Validation failures are
// handled locally and never reach a remote store.
package validator

import (
	"errors"
	"fmt"
	"strings"

	playground "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = playground.New(playground.WithRequiredStructEnabled())

type AddToCartPayload struct {
	ProductID string `json:"productId" validate:"required,max=128"`
	UnitPrice string `json:"unitPrice" validate:"required"`
}

func (p AddToCartPayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	price, err := decimal.NewFromString(p.UnitPrice)
	if err != nil {
		return fmt.Errorf("unitPrice must be a decimal number")
	}
	if price.IsNegative() {
		return fmt.Errorf("unitPrice must not be negative")
	}
	return nil
}

// Price returns the parsed unit price; call Validate first.
func (p AddToCartPayload) Price() decimal.Decimal {
	price, _ := decimal.NewFromString(p.UnitPrice)
	return price
}

type CartLinePayload struct {
	ProductID string `json:"productId" validate:"required,max=128"`
}

func (p CartLinePayload) Validate() error {
	return validate.Struct(p)
}

type AddressPayload struct {
	Name    string `json:"name" validate:"required,max=128"`
	Phone   string `json:"phone" validate:"required,max=32"`
	Street  string `json:"street" validate:"required,max=256"`
	City    string `json:"city" validate:"required,max=128"`
	State   string `json:"state" validate:"max=128"`
	Zip     string `json:"zip" validate:"required,max=16"`
	Country string `json:"country" validate:"required,max=64"`
}

func (p AddressPayload) Validate() error {
	return validate.Struct(p)
}

type PaymentMethodPayload struct {
	Method string `json:"method" validate:"required,oneof=cod online"`
}

func (p PaymentMethodPayload) Validate() error {
	return validate.Struct(p)
}

type InstructionsPayload struct {
	Instructions string `json:"instructions" validate:"max=500"`
}

func (p InstructionsPayload) Validate() error {
	return validate.Struct(p)
}

type LoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (p LoginPayload) Validate() error {
	return validate.Struct(p)
}

type RegisterPayload struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=64"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"max=64"`
	LastName  string `json:"last_name" validate:"max=64"`
}

func (p RegisterPayload) Validate() error {
	return validate.Struct(p)
}

// ValidationErrorResponse flattens a validator error into a single
// human-readable error for the HTTP layer.
func ValidationErrorResponse(err error) error {
	var verrs playground.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("invalid input: %s", strings.Join(parts, ", "))
	}
	return err
}
