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
	"github.com/blinklabs-io/etched/database/models"
)

type Stats struct {
	TotalRequests     uint64 `json:"total_requests"`
	PendingRequests   uint64 `json:"pending_requests"`
	MintedRequests    uint64 `json:"minted_requests"`
	RejectedRequests  uint64 `json:"rejected_requests"`
	TotalCertificates uint64 `json:"total_certificates"`
	ActiveValidators  uint64 `json:"active_validators"`
}

// Stats returns summary counts for dashboards
func (ls *LedgerState) Stats() (*Stats, error) {
	ret := &Stats{}
	var err error
	if ret.TotalRequests, err = ls.TotalRequests(); err != nil {
		return nil, err
	}
	for status, dest := range map[models.RequestStatus]*uint64{
		models.RequestStatusPending:  &ret.PendingRequests,
		models.RequestStatusMinted:   &ret.MintedRequests,
		models.RequestStatusRejected: &ret.RejectedRequests,
	} {
		if *dest, err = ls.db.CountCertificateRequests(
			models.CertificateRequestFilter{Status: &status},
			nil,
		); err != nil {
			return nil, err
		}
	}
	if ret.TotalCertificates, err = ls.TotalCertificates(); err != nil {
		return nil, err
	}
	if ret.ActiveValidators, err = ls.db.CountValidators(true, nil); err != nil {
		return nil, err
	}
	return ret, nil
}
