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
	"errors"
	"net/http"

	"github.com/blinklabs-io/etched/ledger"
)

var (
	ErrBadRequestBody = errors.New("invalid request body")
	ErrBadParameter   = errors.New("invalid parameter")
	ErrInternal       = errors.New("internal error")
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(
		w,
		status,
		ErrorResponse{
			StatusCode: status,
			Error:      errorName(err),
			Message:    err.Error(),
		},
	)
}

// writeLedgerError maps a ledger error to its HTTP status. Unexpected errors
// are logged and reported without detail.
func (a *Api) writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		a.config.Logger.Error(
			"request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", requestIdFromContext(r.Context()),
		)
		writeError(w, status, ErrInternal)
		return
	}
	writeError(w, status, err)
}

func statusForError(err error) int {
	switch {
	// Checked first, an empty caller is also reported as an invalid address
	case errors.Is(err, ledger.ErrUnauthorized),
		errors.Is(err, ledger.ErrInstitutionMismatch),
		errors.Is(err, ledger.ErrSoulboundViolation):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAlreadyExists),
		errors.Is(err, ledger.ErrDuplicateHash),
		errors.Is(err, ledger.ErrNotPending):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrEmptyHash),
		errors.Is(err, ledger.ErrInvalidAddress),
		errors.Is(err, ledger.ErrInvalidDocument),
		errors.Is(err, ErrBadRequestBody),
		errors.Is(err, ErrBadParameter):
		return http.StatusBadRequest
	case ledger.IsSignedURLNotSupported(err):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// errorName returns the machine readable name of an error
func errorName(err error) string {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, ledger.ErrInstitutionMismatch):
		return "InstitutionMismatch"
	case errors.Is(err, ledger.ErrSoulboundViolation):
		return "SoulboundViolation"
	case errors.Is(err, ledger.ErrNotFound):
		return "NotFound"
	case errors.Is(err, ledger.ErrAlreadyExists):
		return "AlreadyExists"
	case errors.Is(err, ledger.ErrDuplicateHash):
		return "DuplicateHash"
	case errors.Is(err, ledger.ErrNotPending):
		return "NotPending"
	case errors.Is(err, ledger.ErrEmptyHash):
		return "EmptyHash"
	case errors.Is(err, ledger.ErrInvalidAddress):
		return "InvalidAddress"
	case errors.Is(err, ledger.ErrInvalidDocument):
		return "InvalidDocument"
	case errors.Is(err, ErrMissingToken), errors.Is(err, ErrInvalidToken):
		return "Unauthenticated"
	case errors.Is(err, ErrBadRequestBody), errors.Is(err, ErrBadParameter):
		return "BadRequest"
	case ledger.IsSignedURLNotSupported(err):
		return "NotImplemented"
	default:
		return "InternalError"
	}
}
