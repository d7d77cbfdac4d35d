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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/blinklabs-io/etched/api"
	"github.com/blinklabs-io/etched/event"
	"github.com/blinklabs-io/etched/internal/config"
	"github.com/blinklabs-io/etched/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Node wires the ledger to its outer surfaces
type Node struct {
	config          *config.Config
	logger          *slog.Logger
	promRegistry    prometheus.Registerer
	promGatherer    prometheus.Gatherer
	eventBus        *event.EventBus
	ledgerState     *ledger.LedgerState
	api             *api.Api
	metricsServer   *http.Server
	shutdownFuncs   []func(context.Context) error
	shutdownTimeout time.Duration
	shutdownOnce    sync.Once
}

// New builds the node components without opening any listener
func New(
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry *prometheus.Registry,
) (*Node, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	n := &Node{
		config: cfg,
		logger: logger,
	}
	if promRegistry != nil {
		n.promRegistry = promRegistry
		n.promGatherer = promRegistry
	} else {
		n.promRegistry = prometheus.DefaultRegisterer
		n.promGatherer = prometheus.DefaultGatherer
	}
	var err error
	if n.shutdownTimeout, err = cfg.ShutdownTimeoutDuration(); err != nil {
		return nil, err
	}
	if cfg.Tracing {
		if err := n.setupTracing(context.Background()); err != nil {
			return nil, err
		}
	}
	jwtSecret, err := cfg.LoadJwtSecret()
	if err != nil {
		n.cleanup()
		return nil, fmt.Errorf("load JWT secret: %w", err)
	}
	n.eventBus = event.NewEventBus(n.promRegistry, logger)
	if err := n.setupWebhooks(); err != nil {
		n.cleanup()
		return nil, err
	}
	n.ledgerState, err = ledger.NewLedgerState(ledger.LedgerStateConfig{
		Logger:          logger,
		EventBus:        n.eventBus,
		PromRegistry:    n.promRegistry,
		DataDir:         cfg.DatabasePath,
		BlobPlugin:      cfg.BlobPlugin,
		MetadataPlugin:  cfg.MetadataPlugin,
		AdminAddress:    cfg.AdminAddress,
		EventLogEnabled: cfg.EventLogEnabled,
	})
	if err != nil {
		n.cleanup()
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	n.api = api.NewApi(api.ApiConfig{
		Logger:          logger,
		LedgerState:     n.ledgerState,
		PromRegistry:    n.promRegistry,
		Host:            cfg.BindAddr,
		Port:            cfg.ApiPort,
		PublicBaseUrl:   cfg.PublicBaseUrl,
		JwtSecret:       jwtSecret,
		JwtIssuer:       cfg.JwtIssuer,
		TlsCertFilePath: cfg.TlsCertFilePath,
		TlsKeyFilePath:  cfg.TlsKeyFilePath,
		MaxConnections:  cfg.MaxConnections,
	})
	return n, nil
}

// setupWebhooks registers a remote subscriber per configured webhook
func (n *Node) setupWebhooks() error {
	if len(n.config.Webhooks) == 0 {
		return nil
	}
	// Webhooks are closed one after another, within half the shutdown budget
	drainTimeout := n.shutdownTimeout / time.Duration(2*len(n.config.Webhooks))
	for i, webhookCfg := range n.config.Webhooks {
		secret, err := webhookCfg.LoadSecret()
		if err != nil {
			return fmt.Errorf("webhook %d: %w", i, err)
		}
		sub, err := event.NewWebhookSubscriber(event.WebhookConfig{
			Logger:       n.logger,
			URL:          webhookCfg.Url,
			Secret:       string(secret),
			MaxRetries:   webhookCfg.MaxRetries,
			DrainTimeout: drainTimeout,
		})
		if err != nil {
			return fmt.Errorf("webhook %d: %w", i, err)
		}
		eventTypes := webhookCfg.Events
		if len(eventTypes) == 0 {
			eventTypes = []string{string(event.AllEvents)}
		}
		for _, eventType := range eventTypes {
			n.eventBus.RegisterSubscriber(event.EventType(eventType), sub)
		}
		n.logger.Info(
			"registered webhook",
			"url", webhookCfg.Url,
			"events", eventTypes,
			"component", "node",
		)
	}
	return nil
}

// Start opens the API and metrics listeners
func (n *Node) Start() error {
	if err := n.api.Start(); err != nil {
		return err
	}
	if n.config.MetricsPort == 0 {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(
		"/metrics",
		promhttp.HandlerFor(n.promGatherer, promhttp.HandlerOpts{}),
	)
	addr := net.JoinHostPort(
		n.config.BindAddr,
		strconv.FormatUint(uint64(n.config.MetricsPort), 10),
	)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	n.logger.Info(
		"serving prometheus metrics on "+addr,
		"component", "node",
	)
	n.metricsServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	server := n.metricsServer
	go func() {
		if err := server.Serve(listener); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			n.logger.Error(
				fmt.Sprintf("metrics listener failed: %s", err),
				"component", "node",
			)
		}
	}()
	return nil
}

// Stop shuts the node down. It is safe to call more than once.
func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), n.shutdownTimeout)
	defer cancel()

	var err error
	n.logger.Debug("starting graceful shutdown", "component", "node")

	// Stop accepting new work
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}
	if n.metricsServer != nil {
		if stopErr := n.metricsServer.Shutdown(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("metrics shutdown: %w", stopErr))
		}
	}
	// Close the database
	if n.ledgerState != nil {
		if closeErr := n.ledgerState.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("ledger state close: %w", closeErr))
		}
	}
	// Flush pending notifications to subscribers
	if n.eventBus != nil {
		n.eventBus.Stop()
	}
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil
	n.logger.Debug("graceful shutdown complete", "component", "node")
	return err
}

// cleanup releases what New had set up before failing
func (n *Node) cleanup() {
	_ = n.Stop()
}

// Run starts a node and blocks until SIGINT or SIGTERM
func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", redacted(cfg)), "component", "node")
	n, err := New(cfg, logger, nil)
	if err != nil {
		return err
	}
	if err := n.Start(); err != nil {
		_ = n.Stop()
		return err
	}
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()
	<-signalCtx.Done()
	logger.Info("signal received, initiating graceful shutdown", "component", "node")
	if err := n.Stop(); err != nil {
		logger.Error("shutdown errors occurred", "error", err, "component", "node")
		return err
	}
	logger.Info("shutdown complete", "component", "node")
	return nil
}

// redacted returns a copy of cfg safe for logging
func redacted(cfg *config.Config) config.Config {
	ret := *cfg
	if ret.JwtSecret != "" {
		ret.JwtSecret = "<redacted>"
	}
	ret.Webhooks = make([]config.WebhookConfig, len(cfg.Webhooks))
	for i, webhook := range cfg.Webhooks {
		if webhook.Secret != "" {
			webhook.Secret = "<redacted>"
		}
		ret.Webhooks[i] = webhook
	}
	return ret
}
