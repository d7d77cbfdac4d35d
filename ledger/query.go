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
	"fmt"

	"github.com/blinklabs-io/etched/database"
	"github.com/blinklabs-io/etched/database/models"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// Page selects a window of a listing
type Page struct {
	Offset int
	Limit  int
}

func (p Page) normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// mapNotFound translates storage lookup misses into ErrNotFound
func mapNotFound(err error) error {
	switch {
	case errors.Is(err, models.ErrValidatorNotFound),
		errors.Is(err, models.ErrCertificateRequestNotFound),
		errors.Is(err, models.ErrCertificateNotFound),
		errors.Is(err, database.ErrDocumentNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return err
	}
}
