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

package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type stateMetrics struct {
	requestsSubmitted  prometheus.Counter
	certificatesMinted prometheus.Counter
	requestsRejected   prometheus.Counter
	validatorsActive   prometheus.Gauge
	operationErrors    *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
}

// init registers the metrics. A nil registry leaves them unregistered.
func (m *stateMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.requestsSubmitted = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "etched_requests_submitted_total",
		Help: "total number of certificate requests submitted",
	})
	m.certificatesMinted = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "etched_certificates_minted_total",
		Help: "total number of certificates minted",
	})
	m.requestsRejected = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "etched_requests_rejected_total",
		Help: "total number of certificate requests rejected",
	})
	m.validatorsActive = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "etched_validators_active",
		Help: "number of active validators",
	})
	m.operationErrors = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etched_operation_errors_total",
			Help: "total number of failed ledger operations",
		},
		[]string{"op", "kind"},
	)
	m.operationDuration = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "etched_operation_duration_seconds",
			Help:    "duration of ledger mutations",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"op"},
	)
}

func (m *stateMetrics) observe(op string, start time.Time, err error) {
	m.operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.operationErrors.WithLabelValues(op, errorKind(err)).Inc()
	}
}
