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
	"database/sql"
	"errors"

	"github.com/blinklabs-io/etched/database/models"
	"github.com/blinklabs-io/etched/database/types"
	"gorm.io/gorm"
)

// GetCertificate returns a certificate by token ID, or nil if not minted
func (s *Store) GetCertificate(
	tokenId uint64,
	txn types.Txn,
) (*models.Certificate, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Certificate{}
	result := db.First(ret, "token_id = ?", tokenId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetCertificateByHash returns the certificate minted for a content hash,
// or nil if none was minted
func (s *Store) GetCertificateByHash(
	hash string,
	txn types.Txn,
) (*models.Certificate, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Certificate{}
	result := db.First(ret, "hash_key = ?", models.HashKey(hash))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetMaxCertificateTokenId returns the highest minted token ID, or 0
func (s *Store) GetMaxCertificateTokenId(txn types.Txn) (uint64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var maxId sql.NullInt64
	row := db.Model(&models.Certificate{}).
		Select("MAX(token_id)").
		Row()
	if err := row.Scan(&maxId); err != nil {
		return 0, err
	}
	if !maxId.Valid {
		return 0, nil
	}
	return uint64(maxId.Int64), nil //nolint:gosec
}

// AddCertificate inserts a newly minted certificate
func (s *Store) AddCertificate(cert *models.Certificate, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	cert.HashKey = models.HashKey(cert.Hash)
	return db.Create(cert).Error
}

// GetCertificatesByRecipient returns the certificates owned by an address,
// in mint order
func (s *Store) GetCertificatesByRecipient(
	recipient string,
	txn types.Txn,
) ([]models.Certificate, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := []models.Certificate{}
	result := db.Where("recipient = ?", recipient).
		Order("token_id").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CountCertificates returns the number of certificates, optionally limited
// to one recipient
func (s *Store) CountCertificates(recipient string, txn types.Txn) (uint64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	query := db.Model(&models.Certificate{})
	if recipient != "" {
		query = query.Where("recipient = ?", recipient)
	}
	var count int64
	if result := query.Count(&count); result.Error != nil {
		return 0, result.Error
	}
	return uint64(count), nil //nolint:gosec
}
