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

package gormstore

import (
	"errors"

	"github.com/blinklabs-io/etched/database/models"
	"github.com/blinklabs-io/etched/database/types"
	"gorm.io/gorm"
)

// GetValidator returns a validator by address, or nil if not registered
func (s *Store) GetValidator(
	address string,
	txn types.Txn,
) (*models.Validator, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Validator{}
	result := db.First(ret, "address = ?", address)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// AddValidator inserts a new validator record
func (s *Store) AddValidator(validator *models.Validator, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(validator).Error
}

// UpdateValidator overwrites the institution fields of a validator
func (s *Store) UpdateValidator(
	address string,
	institutionId string,
	institutionName string,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Validator{}).
		Where("address = ?", address).
		Updates(map[string]any{
			"institution_id":   institutionId,
			"institution_name": institutionName,
		})
	return validatorUpdated(db, result, address)
}

// SetValidatorActive sets the active flag of a validator
func (s *Store) SetValidatorActive(
	address string,
	active bool,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Validator{}).
		Where("address = ?", address).
		Update("active", active)
	return validatorUpdated(db, result, address)
}

// validatorUpdated checks the result of an update on a single validator.
// MySQL reports zero affected rows when the values are unchanged, so the
// record is looked up before reporting it missing.
func validatorUpdated(db *gorm.DB, result *gorm.DB, address string) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := db.Model(&models.Validator{}).Where("address = ?", address).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return models.ErrValidatorNotFound
	}
	return nil
}

// GetValidators returns validators in registration order. A limit of 0
// returns all remaining records.
func (s *Store) GetValidators(
	activeOnly bool,
	offset int,
	limit int,
	txn types.Txn,
) ([]models.Validator, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Order("id")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	ret := []models.Validator{}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CountValidators returns the number of validator records
func (s *Store) CountValidators(activeOnly bool, txn types.Txn) (uint64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	query := db.Model(&models.Validator{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var count int64
	if result := query.Count(&count); result.Error != nil {
		return 0, result.Error
	}
	return uint64(count), nil //nolint:gosec
}
