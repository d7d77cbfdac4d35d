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

// IsAdmin returns true if address holds the admin capability
func (ls *LedgerState) IsAdmin(address string) bool {
	normalized, err := NormalizeAddress(address)
	if err != nil {
		return false
	}
	return ls.admin != "" && normalized == ls.admin
}

// Admin returns the admin address, or an empty string if none was granted
func (ls *LedgerState) Admin() string {
	return ls.admin
}

func (ls *LedgerState) requireAdmin(caller string) error {
	if ls.admin == "" || caller != ls.admin {
		return fmt.Errorf("%w: admin capability required", ErrUnauthorized)
	}
	return nil
}

func (ls *LedgerState) requireActiveValidator(
	caller string,
	txn *database.Txn,
) (*models.Validator, error) {
	validator, err := ls.db.GetValidator(caller, txn)
	if err != nil {
		if errors.Is(err, models.ErrValidatorNotFound) {
			return nil, fmt.Errorf("%w: not a validator", ErrUnauthorized)
		}
		return nil, err
	}
	if !validator.Active {
		return nil, fmt.Errorf("%w: validator is not active", ErrUnauthorized)
	}
	return validator, nil
}

// requireValidatorForInstitution checks that an active validator, as
// returned by requireActiveValidator, belongs to the given institution
func requireValidatorForInstitution(
	validator *models.Validator,
	institutionId string,
) error {
	if validator == nil || !validator.Active {
		return fmt.Errorf("%w: not an active validator", ErrUnauthorized)
	}
	if validator.InstitutionId != institutionId {
		return fmt.Errorf(
			"%w: validator belongs to %q",
			ErrInstitutionMismatch,
			validator.InstitutionId,
		)
	}
	return nil
}
