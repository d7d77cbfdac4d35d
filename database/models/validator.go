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

var ErrValidatorNotFound = errors.New("validator not found")

// Validator is an institution-bound approver. Records are never deleted;
// removal only clears the Active flag.
type Validator struct {
	RegisteredAt    time.Time
	Address         string `gorm:"size:42;uniqueIndex;not null"`
	InstitutionId   string `gorm:"size:255;index;not null"`
	InstitutionName string `gorm:"type:text"`
	ID              uint   `gorm:"primarykey"`
	Active          bool   `gorm:"index"`
}

func (Validator) TableName() string {
	return "validator"
}
