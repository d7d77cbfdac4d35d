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

package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blinklabs-io/etched/database/models"
	"github.com/blinklabs-io/etched/event"
)

// SubmitRequestParams holds the fields of a new certificate request
type SubmitRequestParams struct {
	Recipient       string
	Hash            string
	MetadataURI     string
	InstitutionId   string
	CertificateType string
}

// RequestFilter narrows a request listing. Empty fields match everything.
type RequestFilter struct {
	Status        *models.RequestStatus
	InstitutionId string
	Requester     string
	Recipient     string
}

// SubmitCertificateRequest stores a new pending request and returns its ID.
// Any caller may submit. A content hash can only ever be submitted once.
func (ls *LedgerState) SubmitCertificateRequest(
	caller string,
	params SubmitRequestParams,
) (uint64, error) {
	var requestId uint64
	err := ls.mutate("submit_request", caller, func(m *mutation) error {
		if strings.TrimSpace(params.Hash) == "" {
			return ErrEmptyHash
		}
		recipient, err := NormalizeAddress(params.Recipient)
		if err != nil {
			return err
		}
		_, err = ls.db.GetCertificateRequestByHash(params.Hash, m.txn)
		if err == nil {
			return ErrDuplicateHash
		}
		if !errors.Is(err, models.ErrCertificateRequestNotFound) {
			return err
		}
		maxId, err := ls.db.MaxCertificateRequestId(m.txn)
		if err != nil {
			return err
		}
		requestId = maxId + 1
		req := &models.CertificateRequest{
			ID:              requestId,
			CreatedAt:       m.now,
			Requester:       m.caller,
			Recipient:       recipient,
			Hash:            params.Hash,
			MetadataURI:     params.MetadataURI,
			InstitutionId:   params.InstitutionId,
			CertificateType: params.CertificateType,
			Status:          models.RequestStatusPending,
		}
		if err := ls.db.AddCertificateRequest(req, m.txn); err != nil {
			return fmt.Errorf("store request: %w", err)
		}
		m.emit(
			event.CertificateRequestedEventType,
			event.CertificateRequestedEvent{
				Timestamp:     m.now,
				RequestId:     requestId,
				Requester:     m.caller,
				Recipient:     recipient,
				Hash:          params.Hash,
				InstitutionId: params.InstitutionId,
			},
		)
		return nil
	})
	if err != nil {
		return 0, err
	}
	ls.metrics.requestsSubmitted.Inc()
	return requestId, nil
}

func (ls *LedgerState) GetCertificateRequest(
	requestId uint64,
) (*models.CertificateRequest, error) {
	req, err := ls.db.GetCertificateRequest(requestId, nil)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return req, nil
}

// TotalRequests returns the highest assigned request ID
func (ls *LedgerState) TotalRequests() (uint64, error) {
	return ls.db.MaxCertificateRequestId(nil)
}

// ListRequests returns a page of matching requests in ID order along with
// the total number of matches
func (ls *LedgerState) ListRequests(
	filter RequestFilter,
	page Page,
) ([]models.CertificateRequest, uint64, error) {
	page = page.normalize()
	dbFilter := models.CertificateRequestFilter{
		Status:        filter.Status,
		InstitutionId: filter.InstitutionId,
	}
	var err error
	if filter.Requester != "" {
		if dbFilter.Requester, err = NormalizeAddress(filter.Requester); err != nil {
			return nil, 0, err
		}
	}
	if filter.Recipient != "" {
		if dbFilter.Recipient, err = NormalizeAddress(filter.Recipient); err != nil {
			return nil, 0, err
		}
	}
	total, err := ls.db.CountCertificateRequests(dbFilter, nil)
	if err != nil {
		return nil, 0, err
	}
	reqs, err := ls.db.GetCertificateRequests(dbFilter, page.Offset, page.Limit, nil)
	if err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}
