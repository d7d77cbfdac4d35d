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

package models

import (
	"errors"
	"time"
)

var ErrLedgerAdminNotFound = errors.New("ledger admin not initialized")

// LedgerAdmin holds the single address granted the admin capability when the
// ledger was first initialized
type LedgerAdmin struct {
	InitializedAt time.Time
	Address       string `gorm:"size:42;not null"`
	ID            uint   `gorm:"primarykey"`
}

func (LedgerAdmin) TableName() string {
	return "ledger_admin"
}
