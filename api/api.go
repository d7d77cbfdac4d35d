// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"connectrpc.com/grpcreflect"
	"github.com/blinklabs-io/etched/ledger"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/net/netutil"
)

// HealthServiceName is the service name reported by the gRPC health checker
const HealthServiceName = "etched.v1.Ledger"

const (
	DefaultPort         = 8080
	DefaultTokenTTL     = 24 * time.Hour
	DefaultSignedURLTTL = 15 * time.Minute
	maxRequestBodyBytes = 1 << 20
	readHeaderTimeout   = 60 * time.Second
)

var ErrServerStarted = errors.New("api server already started")

type Api struct {
	config   ApiConfig
	router   chi.Router
	metrics  *apiMetrics
	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
}

type ApiConfig struct {
	Logger       *slog.Logger
	LedgerState  *ledger.LedgerState
	PromRegistry prometheus.Registerer
	Host         string
	// PublicBaseUrl is the externally visible base URL used when building
	// metadata document URIs
	PublicBaseUrl   string
	JwtSecret       []byte
	JwtIssuer       string
	TlsCertFilePath string
	TlsKeyFilePath  string
	Port            uint
	// MaxConnections limits concurrent client connections. 0 means no limit.
	MaxConnections int
}

func NewApi(cfg ApiConfig) *Api {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	cfg.Logger = cfg.Logger.With("component", "api")
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.PublicBaseUrl == "" {
		host := cfg.Host
		if host == "" || host == "0.0.0.0" {
			host = "localhost"
		}
		cfg.PublicBaseUrl = fmt.Sprintf("http://%s:%d", host, cfg.Port)
	}
	cfg.PublicBaseUrl = strings.TrimRight(cfg.PublicBaseUrl, "/")
	a := &Api{
		config:  cfg,
		metrics: newApiMetrics(cfg.PromRegistry),
	}
	a.router = a.newRouter()
	return a
}

// Handler returns the root HTTP handler, including the gRPC health and
// reflection services
func (a *Api) Handler() http.Handler {
	return a.router
}

func (a *Api) newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(a.requestIdMiddleware)
	r.Use(a.metricsMiddleware)
	r.Use(a.loggingMiddleware)
	r.Use(a.authMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/metadata/{file}", a.handleGetMetadataDocument)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/admin", a.handleGetAdmin)
		r.Get("/stats", a.handleGetStats)
		r.Get("/events", a.handleGetEvents)
		r.Get("/verify/{hash}", a.handleVerify)
		r.Get("/recipients/{address}/certificates", a.handleGetRecipientCertificates)

		r.Route("/validators", func(r chi.Router) {
			r.Get("/", a.handleListValidators)
			r.Get("/{address}", a.handleGetValidator)
			r.With(a.requireAuth).Post("/", a.handleAddValidator)
			r.With(a.requireAuth).Put("/{address}", a.handleUpdateValidator)
			r.With(a.requireAuth).Delete("/{address}", a.handleRemoveValidator)
		})

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", a.handleListRequests)
			r.Get("/{id}", a.handleGetRequest)
			r.With(a.requireAuth).Post("/", a.handleSubmitRequest)
			r.With(a.requireAuth).Post("/{id}/approve", a.handleApproveRequest)
			r.With(a.requireAuth).Post("/{id}/reject", a.handleRejectRequest)
		})

		r.Route("/certificates", func(r chi.Router) {
			r.Get("/{tokenId}", a.handleGetCertificate)
			r.With(a.requireAuth).Post("/{tokenId}/transfer", a.handleTransfer)
		})

		r.Route("/metadata", func(r chi.Router) {
			r.With(a.requireAuth).Post("/", a.handleCreateMetadataDocument)
			r.Get("/{id}/url", a.handleGetMetadataDocumentURL)
		})
	})

	compress1KB := connect.WithCompressMinBytes(1024)
	r.Mount(
		grpchealth.NewHandler(
			grpchealth.NewStaticChecker(HealthServiceName),
			compress1KB,
		),
	)
	r.Mount(
		grpcreflect.NewHandlerV1(
			grpcreflect.NewStaticReflector(HealthServiceName),
			compress1KB,
		),
	)
	r.Mount(
		grpcreflect.NewHandlerV1Alpha(
			grpcreflect.NewStaticReflector(HealthServiceName),
			compress1KB,
		),
	)
	return r
}

// Start opens the listener and serves requests in the background
func (a *Api) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		return ErrServerStarted
	}
	if len(a.config.JwtSecret) == 0 {
		a.config.Logger.Warn("no JWT secret configured, authenticated endpoints are disabled")
	}
	addr := net.JoinHostPort(a.config.Host, fmt.Sprintf("%d", a.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if a.config.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, a.config.MaxConnections)
	}
	a.listener = listener
	tls := a.config.TlsCertFilePath != "" && a.config.TlsKeyFilePath != ""
	handler := a.Handler()
	if !tls {
		// Use h2c so gRPC health checks work without TLS
		handler = h2c.NewHandler(handler, &http2.Server{})
	}
	a.server = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	server := a.server
	a.config.Logger.Info(
		"starting API listener",
		"address", listener.Addr().String(),
		"tls", tls,
	)
	go func() {
		var err error
		if tls {
			err = server.ServeTLS(
				listener,
				a.config.TlsCertFilePath,
				a.config.TlsKeyFilePath,
			)
		} else {
			err = server.Serve(listener)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.config.Logger.Error(
				"API listener failed",
				"error", err,
			)
		}
	}()
	return nil
}

// Addr returns the address of the listener, or nil before Start
func (a *Api) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Stop gracefully shuts down the server
func (a *Api) Stop(ctx context.Context) error {
	a.mu.Lock()
	server := a.server
	a.server = nil
	a.listener = nil
	a.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
