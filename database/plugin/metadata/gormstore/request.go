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
	"time"

	"github.com/blinklabs-io/etched/database/models"
	"github.com/blinklabs-io/etched/database/types"
	"gorm.io/gorm"
)

// GetCertificateRequest returns a request by ID, or nil if unknown
func (s *Store) GetCertificateRequest(
	id uint64,
	txn types.Txn,
) (*models.CertificateRequest, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.CertificateRequest{}
	result := db.First(ret, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetCertificateRequestByHash returns the request holding a content hash,
// or nil if the hash was never submitted
func (s *Store) GetCertificateRequestByHash(
	hash string,
	txn types.Txn,
) (*models.CertificateRequest, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.CertificateRequest{}
	result := db.First(ret, "hash_key = ?", models.HashKey(hash))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// GetMaxCertificateRequestId returns the highest assigned request ID, or 0
func (s *Store) GetMaxCertificateRequestId(txn types.Txn) (uint64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var maxId sql.NullInt64
	row := db.Model(&models.CertificateRequest{}).
		Select("MAX(id)").
		Row()
	if err := row.Scan(&maxId); err != nil {
		return 0, err
	}
	if !maxId.Valid {
		return 0, nil
	}
	return uint64(maxId.Int64), nil //nolint:gosec
}

// AddCertificateRequest inserts a new request
func (s *Store) AddCertificateRequest(
	req *models.CertificateRequest,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	req.HashKey = models.HashKey(req.Hash)
	return db.Create(req).Error
}

// DecideCertificateRequest moves a pending request to its final status
func (s *Store) DecideCertificateRequest(
	id uint64,
	status models.RequestStatus,
	decidedBy string,
	reason string,
	decidedAt time.Time,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.CertificateRequest{}).
		Where("id = ? AND status = ?", id, models.RequestStatusPending).
		Updates(map[string]any{
			"status":           status,
			"decided_by":       decidedBy,
			"rejection_reason": reason,
			"decided_at":       decidedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrCertificateRequestNotPending
	}
	return nil
}

func applyRequestFilter(
	query *gorm.DB,
	filter models.CertificateRequestFilter,
) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.InstitutionId != "" {
		query = query.Where("institution_id = ?", filter.InstitutionId)
	}
	if filter.Requester != "" {
		query = query.Where("requester = ?", filter.Requester)
	}
	if filter.Recipient != "" {
		query = query.Where("recipient = ?", filter.Recipient)
	}
	return query
}

// GetCertificateRequests returns matching requests in ID order. A limit of 0
// returns all remaining records.
func (s *Store) GetCertificateRequests(
	filter models.CertificateRequestFilter,
	offset int,
	limit int,
	txn types.Txn,
) ([]models.CertificateRequest, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := applyRequestFilter(db.Order("id"), filter)
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	ret := []models.CertificateRequest{}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CountCertificateRequests returns the number of matching requests
func (s *Store) CountCertificateRequests(
	filter models.CertificateRequestFilter,
	txn types.Txn,
) (uint64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	query := applyRequestFilter(db.Model(&models.CertificateRequest{}), filter)
	if result := query.Count(&count); result.Error != nil {
		return 0, result.Error
	}
	return uint64(count), nil //nolint:gosec
}
