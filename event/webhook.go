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

package event

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	WebhookSignatureHeader = "X-Signature"
	WebhookEventIdHeader   = "X-Event-Id"
	WebhookEventTypeHeader = "X-Event-Type"
	WebhookDeliveryHeader  = "X-Delivery-Id"

	DefaultWebhookQueueSize  = 256
	DefaultWebhookTimeout    = 10 * time.Second
	DefaultWebhookMaxRetries = 3
	DefaultWebhookRetryDelay = time.Second
	// DefaultWebhookDrainTimeout bounds the delivery of queued events on Close
	DefaultWebhookDrainTimeout = 5 * time.Second
)

// WebhookPayload is the JSON body posted to webhook endpoints
type WebhookPayload struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
	Sequence  uint64    `json:"sequence,omitempty"`
}

type WebhookConfig struct {
	Logger       *slog.Logger
	Client       *http.Client
	URL          string
	Secret       string
	QueueSize    int
	MaxRetries   int
	RetryDelay   time.Duration
	DrainTimeout time.Duration
}

// WebhookSubscriber posts events to an HTTP endpoint, signing each body with
// HMAC-SHA256 over the shared secret. Deliveries happen in order on a
// background goroutine.
type WebhookSubscriber struct {
	ctx       context.Context
	cancel    context.CancelFunc
	config    WebhookConfig
	queue     chan Event
	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

func NewWebhookSubscriber(cfg WebhookConfig) (*WebhookSubscriber, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook URL is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: DefaultWebhookTimeout}
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultWebhookQueueSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultWebhookMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultWebhookRetryDelay
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultWebhookDrainTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &WebhookSubscriber{
		ctx:    ctx,
		cancel: cancel,
		config: cfg,
		queue:  make(chan Event, cfg.QueueSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Deliver queues an event for posting. A full queue drops the event, since
// receivers can catch up from the notification log.
func (w *WebhookSubscriber) Deliver(evt Event) error {
	select {
	case <-w.stopCh:
		return nil
	default:
	}
	select {
	case w.queue <- evt:
	default:
		w.config.Logger.Warn(
			"webhook queue full, dropping event",
			"component", "event",
			"url", w.config.URL,
			"type", evt.Type,
			"sequence", evt.Sequence,
		)
	}
	return nil
}

// Close stops the delivery goroutine. Queued events get a single delivery
// attempt each, and whatever is still pending after DrainTimeout is dropped.
func (w *WebhookSubscriber) Close() {
	w.closeOnce.Do(func() {
		close(w.stopCh)
		timer := time.AfterFunc(w.config.DrainTimeout, w.cancel)
		defer timer.Stop()
		<-w.doneCh
		w.cancel()
	})
	<-w.doneCh
}

func (w *WebhookSubscriber) run() {
	defer close(w.doneCh)
	for {
		select {
		case evt := <-w.queue:
			w.send(evt)
		case <-w.stopCh:
			w.drain()
			return
		}
	}
}

func (w *WebhookSubscriber) drain() {
	var dropped int
	for {
		select {
		case evt := <-w.queue:
			if w.ctx.Err() != nil {
				dropped++
				continue
			}
			w.send(evt)
		default:
			if dropped > 0 {
				w.config.Logger.Warn(
					"webhook drain timed out, dropping queued events",
					"component", "event",
					"url", w.config.URL,
					"dropped", dropped,
				)
			}
			return
		}
	}
}

func (w *WebhookSubscriber) stopping() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *WebhookSubscriber) send(evt Event) {
	body, err := json.Marshal(WebhookPayload{
		Timestamp: evt.Timestamp,
		Data:      evt.Data,
		Type:      evt.Type,
		Sequence:  evt.Sequence,
	})
	if err != nil {
		w.config.Logger.Error(
			"failed to encode webhook payload",
			"component", "event",
			"type", evt.Type,
			"error", err,
		)
		return
	}
	deliveryId := uuid.NewString()
	for attempt := 1; ; attempt++ {
		err = w.post(evt, deliveryId, body)
		if err == nil {
			return
		}
		w.config.Logger.Debug(
			"webhook delivery attempt failed",
			"component", "event",
			"url", w.config.URL,
			"attempt", attempt,
			"error", err,
		)
		// No retries once Close was called
		if attempt >= w.config.MaxRetries || w.stopping() {
			break
		}
		retryDelay := time.NewTimer(w.config.RetryDelay * time.Duration(attempt))
		select {
		case <-retryDelay.C:
		case <-w.stopCh:
			retryDelay.Stop()
		}
		if w.stopping() {
			break
		}
	}
	w.config.Logger.Error(
		"webhook delivery failed",
		"component", "event",
		"url", w.config.URL,
		"type", evt.Type,
		"sequence", evt.Sequence,
		"error", err,
	)
}

func (w *WebhookSubscriber) post(evt Event, deliveryId string, body []byte) error {
	ctx, cancel := context.WithTimeout(w.ctx, DefaultWebhookTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(WebhookEventTypeHeader, string(evt.Type))
	req.Header.Set(WebhookDeliveryHeader, deliveryId)
	if evt.Sequence > 0 {
		req.Header.Set(WebhookEventIdHeader, strconv.FormatUint(evt.Sequence, 10))
	}
	if w.config.Secret != "" {
		req.Header.Set(WebhookSignatureHeader, SignWebhookBody(w.config.Secret, body))
	}
	resp, err := w.config.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// SignWebhookBody returns the hex HMAC-SHA256 of body
func SignWebhookBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks a signature produced by SignWebhookBody
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hmac.Equal(mac.Sum(nil), provided)
}
