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
	"time"

	"github.com/blinklabs-io/etched/database/models"
)

// GetCertificateRequest returns a request by ID
func (d *Database) GetCertificateRequest(
	id uint64,
	txn *Txn,
) (*models.CertificateRequest, error) {
	ret, err := d.metadata.GetCertificateRequest(id, txn.Metadata())
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, models.ErrCertificateRequestNotFound
	}
	return ret, nil
}

// GetCertificateRequestByHash returns the request that used a content hash
func (d *Database) GetCertificateRequestByHash(
	hash string,
	txn *Txn,
) (*models.CertificateRequest, error) {
	ret, err := d.metadata.GetCertificateRequestByHash(hash, txn.Metadata())
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, models.ErrCertificateRequestNotFound
	}
	return ret, nil
}

// MaxCertificateRequestId returns the highest assigned request ID
func (d *Database) MaxCertificateRequestId(txn *Txn) (uint64, error) {
	return d.metadata.GetMaxCertificateRequestId(txn.Metadata())
}

func (d *Database) AddCertificateRequest(
	req *models.CertificateRequest,
	txn *Txn,
) error {
	return d.metadata.AddCertificateRequest(req, txn.Metadata())
}

// DecideCertificateRequest moves a pending request to its final status. It
// returns models.ErrCertificateRequestNotPending if the request was already
// decided.
func (d *Database) DecideCertificateRequest(
	id uint64,
	status models.RequestStatus,
	decidedBy string,
	reason string,
	decidedAt time.Time,
	txn *Txn,
) error {
	return d.metadata.DecideCertificateRequest(
		id,
		status,
		decidedBy,
		reason,
		decidedAt,
		txn.Metadata(),
	)
}

func (d *Database) GetCertificateRequests(
	filter models.CertificateRequestFilter,
	offset int,
	limit int,
	txn *Txn,
) ([]models.CertificateRequest, error) {
	return d.metadata.GetCertificateRequests(
		filter,
		offset,
		limit,
		txn.Metadata(),
	)
}

func (d *Database) CountCertificateRequests(
	filter models.CertificateRequestFilter,
	txn *Txn,
) (uint64, error) {
	return d.metadata.CountCertificateRequests(filter, txn.Metadata())
}
