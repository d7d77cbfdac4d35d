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

// GetLedgerAdmin returns the admin record, or models.ErrLedgerAdminNotFound
// before the ledger has been initialized
func (d *Database) GetLedgerAdmin(txn *Txn) (*models.LedgerAdmin, error) {
	ret, err := d.metadata.GetLedgerAdmin(txn.Metadata())
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, models.ErrLedgerAdminNotFound
	}
	return ret, nil
}

// SetLedgerAdmin records the admin address
func (d *Database) SetLedgerAdmin(admin *models.LedgerAdmin, txn *Txn) error {
	return d.metadata.SetLedgerAdmin(admin, txn.Metadata())
}
