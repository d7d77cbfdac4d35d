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
	"errors"
)

var (
	ErrUnauthorized        = errors.New("caller is not authorized")
	ErrInstitutionMismatch = errors.New("validator not from this institution")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("validator already exists")
	ErrEmptyHash           = errors.New("certificate hash required")
	ErrDuplicateHash       = errors.New("certificate hash already used")
	ErrNotPending          = errors.New("request not pending")
	ErrSoulboundViolation  = errors.New("token is soulbound and cannot be transferred")
	ErrInvalidAddress      = errors.New("invalid address")
)

// errorKind returns a short label for metrics
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInstitutionMismatch):
		return "institution_mismatch"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrEmptyHash):
		return "empty_hash"
	case errors.Is(err, ErrDuplicateHash):
		return "duplicate_hash"
	case errors.Is(err, ErrNotPending):
		return "not_pending"
	case errors.Is(err, ErrSoulboundViolation):
		return "soulbound"
	case errors.Is(err, ErrInvalidAddress):
		return "invalid_address"
	default:
		return "internal"
	}
}
