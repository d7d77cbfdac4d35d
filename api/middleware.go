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
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const RequestIdHeader = "X-Request-Id"

type requestIdContextKey struct{}

func requestIdFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIdContextKey{}).(string)
	return id
}

// requestIdMiddleware tags each request with a UUID, reusing a valid one
// supplied by the client
func (a *Api) requestIdMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIdHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIdHeader, id)
		ctx := context.WithValue(r.Context(), requestIdContextKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Api) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		a.metrics.requests.WithLabelValues(
			r.Method,
			route,
			strconv.Itoa(status),
		).Inc()
		a.metrics.duration.WithLabelValues(r.Method, route).
			Observe(time.Since(start).Seconds())
	})
}

func (a *Api) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			if rec := recover(); rec != nil {
				a.config.Logger.Error(
					"panic in handler",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"request_id", requestIdFromContext(r.Context()),
				)
				writeError(ww, http.StatusInternalServerError, ErrInternal)
			}
			a.config.Logger.Debug(
				"handled request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", requestIdFromContext(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
