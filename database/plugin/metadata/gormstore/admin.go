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

// GetLedgerAdmin returns the admin record, or nil if the ledger has not been
// initialized
func (s *Store) GetLedgerAdmin(txn types.Txn) (*models.LedgerAdmin, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.LedgerAdmin{}
	result := db.Order("id").First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// SetLedgerAdmin stores the admin record
func (s *Store) SetLedgerAdmin(admin *models.LedgerAdmin, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(admin).Error
}
