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

package event

import "time"

const (
	CertificateRequestedEventType = EventType("certificate.requested")
	CertificateApprovedEventType  = EventType("certificate.approved")
	CertificateRejectedEventType  = EventType("certificate.rejected")
	CertificateMintedEventType    = EventType("certificate.minted")
)

// CertificateRequestedEvent is emitted when a new request is stored as pending
type CertificateRequestedEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	Requester     string    `json:"requester"`
	Recipient     string    `json:"recipient"`
	Hash          string    `json:"hash"`
	InstitutionId string    `json:"institution_id"`
	RequestId     uint64    `json:"request_id"`
}

// CertificateApprovedEvent is emitted when a validator approves a request.
// It is always followed by a CertificateMintedEvent for the same request.
type CertificateApprovedEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Validator string    `json:"validator"`
	RequestId uint64    `json:"request_id"`
}

// CertificateRejectedEvent is emitted when a validator rejects a request
type CertificateRejectedEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Validator string    `json:"validator"`
	Reason    string    `json:"reason"`
	RequestId uint64    `json:"request_id"`
}

// CertificateMintedEvent is emitted when a soulbound token is created
type CertificateMintedEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Recipient string    `json:"recipient"`
	Hash      string    `json:"hash"`
	TokenId   uint64    `json:"token_id"`
	RequestId uint64    `json:"request_id"`
}
