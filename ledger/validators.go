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

	"github.com/blinklabs-io/etched/database/models"
	"github.com/blinklabs-io/etched/event"
)

// AddValidator registers an active validator for an institution. An address
// can only be registered once, even after it has been removed.
func (ls *LedgerState) AddValidator(
	caller string,
	address string,
	institutionId string,
	institutionName string,
) error {
	err := ls.mutate("add_validator", caller, func(m *mutation) error {
		if err := ls.requireAdmin(m.caller); err != nil {
			return err
		}
		addr, err := NormalizeAddress(address)
		if err != nil {
			return err
		}
		_, err = ls.db.GetValidator(addr, m.txn)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, addr)
		}
		if !errors.Is(err, models.ErrValidatorNotFound) {
			return err
		}
		validator := &models.Validator{
			Address:         addr,
			InstitutionId:   institutionId,
			InstitutionName: institutionName,
			Active:          true,
			RegisteredAt:    m.now,
		}
		if err := ls.db.AddValidator(validator, m.txn); err != nil {
			return err
		}
		m.emit(
			event.ValidatorAddedEventType,
			event.ValidatorAddedEvent{
				Timestamp:       m.now,
				Address:         addr,
				InstitutionId:   institutionId,
				InstitutionName: institutionName,
			},
		)
		return nil
	})
	if err == nil {
		ls.metrics.validatorsActive.Inc()
	}
	return err
}

// RemoveValidator deactivates a validator. The record is kept.
func (ls *LedgerState) RemoveValidator(caller string, address string) error {
	var wasActive bool
	err := ls.mutate("remove_validator", caller, func(m *mutation) error {
		if err := ls.requireAdmin(m.caller); err != nil {
			return err
		}
		addr, err := NormalizeAddress(address)
		if err != nil {
			return err
		}
		validator, err := ls.db.GetValidator(addr, m.txn)
		if err != nil {
			return mapNotFound(err)
		}
		wasActive = validator.Active
		if err := ls.db.SetValidatorActive(addr, false, m.txn); err != nil {
			return mapNotFound(err)
		}
		m.emit(
			event.ValidatorRemovedEventType,
			event.ValidatorRemovedEvent{
				Timestamp: m.now,
				Address:   addr,
			},
		)
		return nil
	})
	if err == nil && wasActive {
		ls.metrics.validatorsActive.Dec()
	}
	return err
}

// UpdateValidator overwrites the institution of a validator. The active flag
// is left as is.
func (ls *LedgerState) UpdateValidator(
	caller string,
	address string,
	institutionId string,
	institutionName string,
) error {
	return ls.mutate("update_validator", caller, func(m *mutation) error {
		if err := ls.requireAdmin(m.caller); err != nil {
			return err
		}
		addr, err := NormalizeAddress(address)
		if err != nil {
			return err
		}
		if err := ls.db.UpdateValidator(
			addr,
			institutionId,
			institutionName,
			m.txn,
		); err != nil {
			return mapNotFound(err)
		}
		m.emit(
			event.ValidatorUpdatedEventType,
			event.ValidatorUpdatedEvent{
				Timestamp:       m.now,
				Address:         addr,
				InstitutionId:   institutionId,
				InstitutionName: institutionName,
			},
		)
		return nil
	})
}

// IsActiveValidator reports whether address is a registered, active validator
func (ls *LedgerState) IsActiveValidator(address string) (bool, error) {
	validator, err := ls.GetValidator(address)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidAddress) {
			return false, nil
		}
		return false, err
	}
	return validator.Active, nil
}

func (ls *LedgerState) GetValidator(address string) (*models.Validator, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	validator, err := ls.db.GetValidator(addr, nil)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return validator, nil
}

// ListValidators returns a page of validators in registration order along
// with the total number of matching validators
func (ls *LedgerState) ListValidators(
	activeOnly bool,
	page Page,
) ([]models.Validator, uint64, error) {
	page = page.normalize()
	total, err := ls.db.CountValidators(activeOnly, nil)
	if err != nil {
		return nil, 0, err
	}
	validators, err := ls.db.GetValidators(activeOnly, page.Offset, page.Limit, nil)
	if err != nil {
		return nil, 0, err
	}
	return validators, total, nil
}
