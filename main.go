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
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cloud.google.com/go/profiler"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Tamilselvan155/senba-storefront/api"
	"github.com/Tamilselvan155/senba-storefront/cart"
	"github.com/Tamilselvan155/senba-storefront/cartcache"
	"github.com/Tamilselvan155/senba-storefront/checkout"
	"github.com/Tamilselvan155/senba-storefront/payment"
	"github.com/Tamilselvan155/senba-storefront/session"
)

const (
	port         = "8080"
	cookieMaxAge = 60 * 60 * 48

	cookiePrefix    = "shop_"
	cookieSessionID = cookiePrefix + "session-id"
)

var (
	baseUrl = ""
)

type ctxKeySessionID struct{}

// frontendServer is the application context: every state-bearing
// component is constructed once here and injected, never reached
// through globals.
type frontendServer struct {
	log logrus.FieldLogger

	identity  *session.Manager
	cart      *cart.Store
	submitter *checkout.Submitter

	auth      *api.AuthClient
	orders    *api.OrderClient
	addresses *api.AddressClient
	catalog   *api.CatalogClient

	mu       sync.Mutex
	checkout *checkout.Session
}

type serviceAddrs struct {
	cart    string
	order   string
	address string
	auth    string
	catalog string
}

func main() {
	ctx := context.Background()
	log := logrus.New()
	log.Level = logrus.DebugLevel
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{}))

	baseUrl = os.Getenv("BASE_URL")

	if os.Getenv("ENABLE_TRACING") == "1" {
		log.Info("Tracing enabled.")
		initTracing(log)
	} else {
		log.Info("Tracing disabled.")
	}

	if os.Getenv("ENABLE_PROFILER") == "1" {
		log.Info("Profiling enabled.")
		go initProfiling(log, "storefront", "1.0.0")
	} else {
		log.Info("Profiling disabled.")
	}

	srvPort := port
	if os.Getenv("PORT") != "" {
		srvPort = os.Getenv("PORT")
	}
	addr := os.Getenv("LISTEN_ADDR")

	var addrs serviceAddrs
	mustMapEnv(&addrs.cart, "CART_SERVICE_ADDR")
	mustMapEnv(&addrs.order, "ORDER_SERVICE_ADDR")
	mustMapEnv(&addrs.address, "ADDRESS_SERVICE_ADDR")
	mustMapEnv(&addrs.auth, "AUTH_SERVICE_ADDR")
	mustMapEnv(&addrs.catalog, "CATALOG_SERVICE_ADDR")

	// If API_GATEWAY_ADDR is set, route all backend calls through the gateway
	if gw := os.Getenv("API_GATEWAY_ADDR"); gw != "" {
		addrs = serviceAddrs{cart: gw, order: gw, address: gw, auth: gw, catalog: gw}
		log.Infof("Using API Gateway at %s for all backend calls", gw)
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		log.Fatalf("could not create data dir %s: %v", dataDir, err)
	}

	svc := newFrontendServer(ctx, log, addrs, dataDir)

	r := mux.NewRouter()
	r.HandleFunc(baseUrl+"/cart", svc.viewCartHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/cart", svc.addToCartHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/cart/remove", svc.removeFromCartHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/cart/delete", svc.deleteFromCartHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/cart/empty", svc.emptyCartHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/login", svc.loginHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/register", svc.registerHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/logout", svc.logoutHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/profile", svc.profileHandler).Methods(http.MethodGet)
	r.HandleFunc(baseUrl+"/addresses", svc.listAddressesHandler).Methods(http.MethodGet)
	r.HandleFunc(baseUrl+"/addresses", svc.createAddressHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/checkout", svc.checkoutStateHandler).Methods(http.MethodGet)
	r.HandleFunc(baseUrl+"/checkout", svc.startCheckoutHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/checkout/address", svc.checkoutAddressHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/checkout/instructions", svc.checkoutInstructionsHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/checkout/payment-method", svc.checkoutPaymentMethodHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/checkout/next", svc.checkoutNextHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/checkout/back", svc.checkoutBackHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/checkout/submit", svc.placeOrderHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/orders", svc.orderHistoryHandler).Methods(http.MethodGet)
	r.HandleFunc(baseUrl+"/_healthz", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "ok") })

	var handler http.Handler = r
	handler = &logHandler{log: log, next: handler}      // add logging
	handler = ensureSessionID(handler)                  // add session ID
	handler = otelhttp.NewHandler(handler, "frontend")  // add OTel tracing

	log.Infof("starting server on %s:%s", addr, srvPort)
	log.Fatal(http.ListenAndServe(addr+":"+srvPort, handler))
}

// newFrontendServer is the composition root: wiring happens here and
// only here.
func newFrontendServer(ctx context.Context, log logrus.FieldLogger, addrs serviceAddrs, dataDir string) *frontendServer {
	identity := session.NewManager(filepath.Join(dataDir, "identity.json"), log)

	cache := cartcache.New(filepath.Join(dataDir, "cart.json"), log)
	local := cart.NewLocalRepository(cache)
	remote := cart.NewRemoteRepository(api.NewCartClient(api.New(addrs.cart, identity.Token)), cache)
	store := cart.NewStore(log, local, remote)

	identity.Subscribe(func(ev session.Event, id session.Identity) {
		log.WithField("event", ev.String()).WithField("userId", id.UserID).Info("identity transition")
	})
	store.Subscribe(func(c cart.Cart) {
		log.WithField("count", c.Count()).Debug("cart changed")
	})

	orders := api.NewOrderClient(api.New(addrs.order, identity.Token))
	addresses := api.NewAddressClient(api.New(addrs.address, identity.Token))
	catalog := api.NewCatalogClient(api.New(addrs.catalog, identity.Token))
	auth := api.NewAuthClient(api.New(addrs.auth, identity.Token))

	var gateway payment.Gateway = &payment.SandboxGateway{
		Decline: os.Getenv("SANDBOX_DECLINE_PAYMENTS") == "1",
		Log:     log,
	}

	svc := &frontendServer{
		log:       log,
		identity:  identity,
		cart:      store,
		auth:      auth,
		orders:    orders,
		addresses: addresses,
		catalog:   catalog,
	}
	svc.submitter = checkout.NewSubmitter(log, store, orders, catalog, gateway, identity)

	// A persisted session means the last run was authenticated. The
	// on-device record is a mirror of the server cart, not a guest
	// cart, so the server copy is adopted; syncing the mirror back
	// would double every line.
	if _, ok := identity.Current(); ok {
		if err := store.Resume(ctx); err != nil {
			log.WithField("error", err).Warn("startup cart sync failed, continuing with on-device cart")
		}
	}
	return svc
}

func initTracing(log logrus.FieldLogger) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tp)
	log.Info("Tracing provider initialized (no exporter configured)")
	return tp
}

func initProfiling(log logrus.FieldLogger, service, version string) {
	for i := 1; i <= 3; i++ {
		log = log.WithField("retry", i)
		if err := profiler.Start(profiler.Config{
			Service:        service,
			ServiceVersion: version,
			// ProjectID must be set if not running on GCP.
			// ProjectID: "my-project",
		}); err != nil {
			log.Warnf("warn: failed to start profiler: %+v", err)
		} else {
			log.Info("started profiler")
			return
		}
		d := time.Second * 10 * time.Duration(i)
		log.Debugf("sleeping %v to retry initializing profiler", d)
		time.Sleep(d)
	}
	log.Warn("warning: could not initialize profiler after retrying, giving up")
}

func mustMapEnv(target *string, envKey string) {
	v := os.Getenv(envKey)
	if v == "" {
		panic(fmt.Sprintf("environment variable %q not set", envKey))
	}
	*target = v
}
