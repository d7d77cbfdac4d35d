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

var ErrCertificateNotFound = errors.New("certificate not found")

// Certificate is a minted soulbound token. It is created together with the
// approval of its request and never changes afterward.
type Certificate struct {
	MintedAt        time.Time
	Recipient       string `gorm:"size:42;index;not null"`
	Hash            string `gorm:"type:text;not null"`
	InstitutionId   string `gorm:"size:255;index;not null"`
	CertificateType string `gorm:"type:text"`
	MetadataURI     string `gorm:"type:text"`
	Validator       string `gorm:"size:42;not null"`
	HashKey         []byte `gorm:"size:32;uniqueIndex;not null"`
	TokenId         uint64 `gorm:"primaryKey;autoIncrement:false"`
	RequestId       uint64 `gorm:"uniqueIndex;not null"`
}

func (Certificate) TableName() string {
	return "certificate"
}
