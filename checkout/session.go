// Package checkout drives the ordered steps from address selection to a
// confirmed order, and owns the one-shot order submission.
package checkout

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Tamilselvan155/senba-storefront/api"
)

// Step is the checkout progression. Forward movement is gated on the
// preceding step's required input; backward movement is free until the
// session confirms.
type Step int

const (
	StepAddress Step = iota
	StepReview
	StepPayment
	StepConfirmed
)

func (s Step) String() string {
	switch s {
	case StepAddress:
		return "address"
	case StepReview:
		return "review"
	case StepPayment:
		return "payment"
	case StepConfirmed:
		return "confirmed"
	}
	return "unknown"
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

var (
	ErrEmptyCart           = errors.New("checkout: cart is empty")
	ErrNoAddress           = errors.New("checkout: select a delivery address first")
	ErrNoPaymentMethod     = errors.New("checkout: select a payment method first")
	ErrPaymentStepRequired = errors.New("checkout: finish the earlier steps before placing the order")
	ErrSubmitRequired      = errors.New("checkout: place the order to continue")
	ErrSessionConfirmed    = errors.New("checkout: order already confirmed, start a new checkout")
	ErrSubmissionInFlight  = errors.New("checkout: submission already in progress")
	ErrAuthRequired        = errors.New("checkout: sign in to place an order")

	// ErrPaymentNotRecorded is the charge-without-order inconsistency:
	// the gateway captured a payment but the order store call failed.
	// It is never folded into a generic failure, and the submission
	// guard stays taken because resubmitting could charge again. The
	// user is told to contact support.
	ErrPaymentNotRecorded = errors.New("checkout: payment captured but order not recorded, contact support")
)

// Session drives one checkout. It is created against a non-empty cart
// and becomes terminal at StepConfirmed; a new purchase needs a new
// session.
type Session struct {
	mu           sync.Mutex
	id           string
	step         Step
	address      *api.Address
	instructions string
	method       PaymentMethod
	result       *api.OrderResult
	inFlight     bool
	cartCount    func() int
}

// NewSession starts a checkout. cartCount is consulted live: here, and
// again before Payment and before submission, so a cart emptied
// mid-checkout from another tab is caught before an empty order can go
// out.
func NewSession(cartCount func() int) (*Session, error) {
	if cartCount == nil {
		cartCount = func() int { return 0 }
	}
	if cartCount() == 0 {
		return nil, ErrEmptyCart
	}
	return &Session{id: uuid.NewString(), step: StepAddress, cartCount: cartCount}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) Address() (api.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.address == nil {
		return api.Address{}, false
	}
	return *s.address, true
}

func (s *Session) Instructions() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instructions
}

func (s *Session) Method() PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.method
}

// Result reports the terminal order result once the session confirmed.
func (s *Session) Result() (api.OrderResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return api.OrderResult{}, false
	}
	return *s.result, true
}

// SelectAddress records the delivery address. Allowed at any step
// before confirmation; revisiting an earlier step to edit the choice is
// normal navigation.
func (s *Session) SelectAddress(a api.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == StepConfirmed {
		return ErrSessionConfirmed
	}
	s.address = &a
	return nil
}

func (s *Session) SetInstructions(notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == StepConfirmed {
		return ErrSessionConfirmed
	}
	s.instructions = notes
	return nil
}

func (s *Session) SelectPaymentMethod(m PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == StepConfirmed {
		return ErrSessionConfirmed
	}
	if m != PaymentCOD && m != PaymentOnline {
		return errors.Errorf("checkout: unknown payment method %q", m)
	}
	s.method = m
	return nil
}

// Next advances one step if the current step's completion condition
// holds; otherwise it reports why and stays put. Advancing out of
// Payment happens only through a successful submission.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.step {
	case StepAddress:
		if s.address == nil {
			return ErrNoAddress
		}
		s.step = StepReview
	case StepReview:
		if s.cartCount() == 0 {
			return ErrEmptyCart
		}
		s.step = StepPayment
	case StepPayment:
		return ErrSubmitRequired
	case StepConfirmed:
		return ErrSessionConfirmed
	}
	return nil
}

// Back steps backward without precondition checks; editing an earlier
// choice is always allowed. Confirmed is terminal and cannot be rewound.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == StepConfirmed {
		return ErrSessionConfirmed
	}
	if s.step > StepAddress {
		s.step--
	}
	return nil
}

// beginSubmit validates the submission preconditions and takes the
// in-flight guard. It completes before any network call is issued, so
// a double-click's second call fails here instead of producing a second
// order.
func (s *Session) beginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == StepConfirmed {
		return ErrSessionConfirmed
	}
	if s.step != StepPayment {
		return ErrPaymentStepRequired
	}
	if s.address == nil {
		return ErrNoAddress
	}
	if s.method == "" {
		return ErrNoPaymentMethod
	}
	if s.cartCount() == 0 {
		return ErrEmptyCart
	}
	if s.inFlight {
		return ErrSubmissionInFlight
	}
	s.inFlight = true
	return nil
}

// endSubmit releases the guard after a retryable failure. Success never
// releases it: the session is terminal and the submit control is gone.
func (s *Session) endSubmit() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

func (s *Session) confirm(res api.OrderResult) {
	s.mu.Lock()
	s.result = &res
	s.step = StepConfirmed
	s.mu.Unlock()
}
