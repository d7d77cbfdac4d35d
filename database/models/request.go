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
	"fmt"
	"strings"
	"time"
)

var (
	ErrCertificateRequestNotFound = errors.New("certificate request not found")
	// ErrCertificateRequestNotPending is returned when deciding a request
	// that already has a decision
	ErrCertificateRequestNotPending = errors.New("certificate request is not pending")
)

// RequestStatus is the decision state of a certificate request. Transitions
// are one-way: Pending to Minted, or Pending to Rejected.
type RequestStatus uint8

const (
	RequestStatusPending  RequestStatus = 0
	RequestStatusMinted   RequestStatus = 1
	RequestStatusRejected RequestStatus = 2
)

func (s RequestStatus) String() string {
	switch s {
	case RequestStatusPending:
		return "pending"
	case RequestStatusMinted:
		return "minted"
	case RequestStatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ParseRequestStatus parses the name of a status, as returned by String()
func ParseRequestStatus(val string) (RequestStatus, error) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "pending":
		return RequestStatusPending, nil
	case "minted", "approved":
		return RequestStatusMinted, nil
	case "rejected":
		return RequestStatusRejected, nil
	default:
		return 0, fmt.Errorf("unknown request status: %q", val)
	}
}

// CertificateRequest is a submission awaiting (or holding) a validator decision
type CertificateRequest struct {
	CreatedAt time.Time
	// DecidedAt is nil until the request is approved or rejected
	DecidedAt       *time.Time
	Requester       string        `gorm:"size:42;index;not null"`
	Recipient       string        `gorm:"size:42;index;not null"`
	Hash            string        `gorm:"type:text;not null"`
	MetadataURI     string        `gorm:"type:text"`
	InstitutionId   string        `gorm:"size:255;index;not null"`
	CertificateType string        `gorm:"type:text"`
	DecidedBy       string        `gorm:"size:42"`
	RejectionReason string        `gorm:"type:text"`
	HashKey         []byte        `gorm:"size:32;uniqueIndex;not null"`
	ID              uint64        `gorm:"primaryKey;autoIncrement:false"`
	Status          RequestStatus `gorm:"index"`
}

func (CertificateRequest) TableName() string {
	return "certificate_request"
}

// IsPending returns true if no decision has been recorded yet
func (r *CertificateRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// CertificateRequestFilter narrows request listings. Empty fields match all.
type CertificateRequestFilter struct {
	Status        *RequestStatus
	InstitutionId string
	Requester     string
	Recipient     string
}
