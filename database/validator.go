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

package database

import (
	"github.com/blinklabs-io/etched/database/models"
)

// GetValidator returns the validator registered for an address
func (d *Database) GetValidator(
	address string,
	txn *Txn,
) (*models.Validator, error) {
	ret, err := d.metadata.GetValidator(address, txn.Metadata())
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, models.ErrValidatorNotFound
	}
	return ret, nil
}

func (d *Database) AddValidator(validator *models.Validator, txn *Txn) error {
	return d.metadata.AddValidator(validator, txn.Metadata())
}

// UpdateValidator overwrites the institution fields of a validator
func (d *Database) UpdateValidator(
	address string,
	institutionId string,
	institutionName string,
	txn *Txn,
) error {
	return d.metadata.UpdateValidator(
		address,
		institutionId,
		institutionName,
		txn.Metadata(),
	)
}

func (d *Database) SetValidatorActive(
	address string,
	active bool,
	txn *Txn,
) error {
	return d.metadata.SetValidatorActive(address, active, txn.Metadata())
}

// GetValidators returns validators in registration order
func (d *Database) GetValidators(
	activeOnly bool,
	offset int,
	limit int,
	txn *Txn,
) ([]models.Validator, error) {
	return d.metadata.GetValidators(activeOnly, offset, limit, txn.Metadata())
}

func (d *Database) CountValidators(activeOnly bool, txn *Txn) (uint64, error) {
	return d.metadata.CountValidators(activeOnly, txn.Metadata())
}
