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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/blinklabs-io/etched/ledger"
	"github.com/go-chi/chi/v5"
)

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: empty body", ErrBadRequestBody)
		}
		return fmt.Errorf("%w: %w", ErrBadRequestBody, err)
	}
	return nil
}

// pathParam returns the decoded value of a URL parameter. chi matches
// against the escaped path whenever the request has one.
func pathParam(r *http.Request, name string) (string, error) {
	val := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return val, nil
	}
	unescaped, err := url.PathUnescape(val)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not a valid path segment", ErrBadParameter, name)
	}
	return unescaped, nil
}

func uintParam(r *http.Request, name string) (uint64, error) {
	val, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrBadParameter, name)
	}
	return val, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrBadParameter, name)
	}
	return val, nil
}

// pageFromQuery reads the offset and limit query parameters
func pageFromQuery(r *http.Request) (ledger.Page, error) {
	offset, err := queryInt(r, "offset")
	if err != nil {
		return ledger.Page{}, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return ledger.Page{}, err
	}
	if limit == 0 {
		limit = ledger.DefaultPageLimit
	}
	if limit > ledger.MaxPageLimit {
		limit = ledger.MaxPageLimit
	}
	return ledger.Page{Offset: offset, Limit: limit}, nil
}
