package checkout

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tamilselvan155/senba-storefront/api"
	"github.com/Tamilselvan155/senba-storefront/cart"
	"github.com/Tamilselvan155/senba-storefront/cartcache"
	"github.com/Tamilselvan155/senba-storefront/payment"
	"github.com/Tamilselvan155/senba-storefront/session"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

// fakeOrderService records every order creation it accepts.
type fakeOrderService struct {
	mu       sync.Mutex
	requests []api.OrderRequest
	created  atomic.Int32
	fail     bool

	// when set, the handler reports arrival and blocks until released
	entered chan struct{}
	release chan struct{}
}

func (f *fakeOrderService) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/orders" {
			http.NotFound(w, r)
			return
		}
		if f.entered != nil {
			f.entered <- struct{}{}
			<-f.release
		}
		if f.fail {
			http.Error(w, `{"error":"order store unavailable"}`, http.StatusInternalServerError)
			return
		}
		var req api.OrderRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()
		n := f.created.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.OrderResult{
			OrderID:       "ord-" + strconv.Itoa(int(n)),
			PaymentStatus: "recorded",
		})
	})
}

type fixture struct {
	store     *cart.Store
	identity  *session.Manager
	orders    *fakeOrderService
	gateway   *payment.SandboxGateway
	submitter *Submitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := testLogger()

	orders := &fakeOrderService{}
	srv := httptest.NewServer(orders.handler())
	t.Cleanup(srv.Close)
	addr := strings.TrimPrefix(srv.URL, "http://")

	identity := session.NewManager("", log)
	identity.Login(session.Identity{Token: "tok", UserID: "u1"})

	cache := cartcache.New(filepath.Join(t.TempDir(), "cart.json"), log)
	local := cart.NewLocalRepository(cache)
	remote := cart.NewRemoteRepository(api.NewCartClient(api.New("127.0.0.1:1", identity.Token)), cache)
	store := cart.NewStore(log, local, remote)

	gateway := &payment.SandboxGateway{Log: log}
	orderClient := api.NewOrderClient(api.New(addr, identity.Token))

	return &fixture{
		store:     store,
		identity:  identity,
		orders:    orders,
		gateway:   gateway,
		submitter: NewSubmitter(log, store, orderClient, nil, gateway, identity),
	}
}

func (f *fixture) fillCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.store.AddLine(ctx, "p1", decimal.RequireFromString("19.99"))
	require.NoError(t, err)
	_, err = f.store.AddLine(ctx, "p1", decimal.RequireFromString("19.99"))
	require.NoError(t, err)
	_, err = f.store.AddLine(ctx, "p2", decimal.RequireFromString("5.00"))
	require.NoError(t, err)
}

func readySession(t *testing.T, f *fixture, method PaymentMethod) *Session {
	t.Helper()
	s, err := NewSession(f.store.Count)
	require.NoError(t, err)
	require.NoError(t, s.SelectAddress(testAddress()))
	require.NoError(t, s.SetInstructions("call on arrival"))
	require.NoError(t, s.SelectPaymentMethod(method))
	require.NoError(t, s.Next())
	require.NoError(t, s.Next())
	return s
}

func TestSubmitCashOnDelivery(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	s := readySession(t, f, PaymentCOD)

	res, err := f.submitter.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.NotEmpty(t, res.OrderID)

	require.Len(t, f.orders.requests, 1)
	req := f.orders.requests[0]
	assert.Equal(t, 3, req.TotalQuantity)
	assert.True(t, req.TotalPrice.Equal(decimal.RequireFromString("44.98")))
	assert.Equal(t, "cod", req.PaymentMethod)
	assert.Empty(t, req.PaymentReference)
	assert.Equal(t, "call on arrival", req.Notes)
	assert.Equal(t, "Springfield", req.Address.City)

	assert.Equal(t, StepConfirmed, s.Step())
	assert.True(t, f.store.Snapshot().IsEmpty(), "cart clears after a placed order")
}

func TestSubmitOnlineAttachesPaymentReference(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	s := readySession(t, f, PaymentOnline)

	res, err := f.submitter.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.NotEmpty(t, res.OrderID)

	require.Len(t, f.orders.requests, 1)
	req := f.orders.requests[0]
	assert.Equal(t, "online", req.PaymentMethod)
	assert.True(t, strings.HasPrefix(req.PaymentReference, "sandbox-"))
	assert.Equal(t, StepConfirmed, s.Step())
	assert.True(t, f.store.Snapshot().IsEmpty())
}

func TestSubmitDeclinedPaymentLeavesCartAndAllowsRetry(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	s := readySession(t, f, PaymentOnline)

	f.gateway.Decline = true
	_, err := f.submitter.Submit(context.Background(), s)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPaymentNotRecorded)

	assert.Equal(t, int32(0), f.orders.created.Load(), "no order without a payment")
	assert.Equal(t, 3, f.store.Count(), "declined payment must not touch the cart")
	assert.Equal(t, StepPayment, s.Step())

	// the guard is released: the user can fix the problem and retry
	f.gateway.Decline = false
	_, err = f.submitter.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, StepConfirmed, s.Step())
}

func TestSubmitOrderFailureAfterPaymentIsLoud(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	s := readySession(t, f, PaymentOnline)

	f.orders.fail = true
	_, err := f.submitter.Submit(context.Background(), s)
	require.ErrorIs(t, err, ErrPaymentNotRecorded)

	// the charge exists somewhere: cart stays, and the guard stays taken
	// so a blind resubmit cannot charge again
	assert.Equal(t, 3, f.store.Count())
	_, err = f.submitter.Submit(context.Background(), s)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
}

func TestSubmitRequiresAuthentication(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	s := readySession(t, f, PaymentCOD)

	f.identity.Logout()
	_, err := f.submitter.Submit(context.Background(), s)
	require.ErrorIs(t, err, ErrAuthRequired)

	// guard released: signing back in allows the submission
	f.identity.Login(session.Identity{Token: "tok", UserID: "u1"})
	_, err = f.submitter.Submit(context.Background(), s)
	require.NoError(t, err)
}

func TestSubmitPlacesExactlyOneOrder(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	s := readySession(t, f, PaymentCOD)

	f.orders.entered = make(chan struct{}, 1)
	f.orders.release = make(chan struct{})

	firstDone := make(chan error, 1)
	go func() {
		_, err := f.submitter.Submit(context.Background(), s)
		firstDone <- err
	}()
	<-f.orders.entered // first submission is inside the order store call

	// the double-click: rejected before any network call
	_, err := f.submitter.Submit(context.Background(), s)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(f.orders.release)
	require.NoError(t, <-firstDone)

	assert.Equal(t, int32(1), f.orders.created.Load())
	assert.Equal(t, StepConfirmed, s.Step())

	// and after confirmation a resubmit is rejected terminally
	_, err = f.submitter.Submit(context.Background(), s)
	assert.ErrorIs(t, err, ErrSessionConfirmed)
}

func TestSubmitDenormalizesCatalogFields(t *testing.T) {
	f := newFixture(t)

	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/products/p1" {
			_ = json.NewEncoder(w).Encode(api.Product{ID: "p1", Name: "Espresso Beans", SKU: "EB-01"})
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(catalogSrv.Close)
	catalog := api.NewCatalogClient(api.New(strings.TrimPrefix(catalogSrv.URL, "http://"), f.identity.Token))
	f.submitter = NewSubmitter(testLogger(), f.store, f.submitter.orders, catalog, f.gateway, f.identity)

	ctx := context.Background()
	_, err := f.store.AddLine(ctx, "p1", decimal.RequireFromString("12.00"))
	require.NoError(t, err)
	_, err = f.store.AddLine(ctx, "missing", decimal.RequireFromString("1.00"))
	require.NoError(t, err)

	s := readySession(t, f, PaymentCOD)
	_, err = f.submitter.Submit(ctx, s)
	require.NoError(t, err)

	require.Len(t, f.orders.requests, 1)
	items := f.orders.requests[0].Items
	require.Len(t, items, 2)
	byID := map[string]api.OrderItem{}
	for _, it := range items {
		byID[it.ProductID] = it
	}
	assert.Equal(t, "Espresso Beans", byID["p1"].Name)
	assert.Equal(t, "EB-01", byID["p1"].SKU)
	// a catalog miss degrades to the product id, it never blocks the order
	assert.Equal(t, "missing", byID["missing"].Name)
}
