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

package api

import (
	"time"

	"github.com/blinklabs-io/etched/database/models"
	"github.com/blinklabs-io/etched/ledger"
)

type ValidatorResponse struct {
	RegisteredAt    time.Time `json:"registered_at"`
	Address         string    `json:"address"`
	InstitutionId   string    `json:"institution_id"`
	InstitutionName string    `json:"institution_name"`
	Active          bool      `json:"active"`
}

func validatorResponse(v *models.Validator) ValidatorResponse {
	return ValidatorResponse{
		Address:         v.Address,
		InstitutionId:   v.InstitutionId,
		InstitutionName: v.InstitutionName,
		Active:          v.Active,
		RegisteredAt:    v.RegisteredAt,
	}
}

type RequestResponse struct {
	CreatedAt       time.Time  `json:"created_at"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	Requester       string     `json:"requester"`
	Recipient       string     `json:"recipient"`
	Hash            string     `json:"hash"`
	MetadataURI     string     `json:"metadata_uri"`
	InstitutionId   string     `json:"institution_id"`
	CertificateType string     `json:"certificate_type"`
	Status          string     `json:"status"`
	DecidedBy       string     `json:"decided_by,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	Id              uint64     `json:"id"`
}

func requestResponse(r *models.CertificateRequest) RequestResponse {
	return RequestResponse{
		Id:              r.ID,
		CreatedAt:       r.CreatedAt,
		DecidedAt:       r.DecidedAt,
		Requester:       r.Requester,
		Recipient:       r.Recipient,
		Hash:            r.Hash,
		MetadataURI:     r.MetadataURI,
		InstitutionId:   r.InstitutionId,
		CertificateType: r.CertificateType,
		Status:          r.Status.String(),
		DecidedBy:       r.DecidedBy,
		RejectionReason: r.RejectionReason,
	}
}

type CertificateResponse struct {
	MintedAt        time.Time `json:"minted_at"`
	Recipient       string    `json:"recipient"`
	Hash            string    `json:"hash"`
	InstitutionId   string    `json:"institution_id"`
	CertificateType string    `json:"certificate_type"`
	MetadataURI     string    `json:"metadata_uri"`
	Validator       string    `json:"validator"`
	TokenId         uint64    `json:"token_id"`
	RequestId       uint64    `json:"request_id"`
}

func certificateResponse(c *models.Certificate) CertificateResponse {
	return CertificateResponse{
		TokenId:         c.TokenId,
		RequestId:       c.RequestId,
		Recipient:       c.Recipient,
		Hash:            c.Hash,
		InstitutionId:   c.InstitutionId,
		CertificateType: c.CertificateType,
		MetadataURI:     c.MetadataURI,
		Validator:       c.Validator,
		MintedAt:        c.MintedAt,
	}
}

type VerificationResponse struct {
	MintedAt      *time.Time `json:"minted_at,omitempty"`
	Hash          string     `json:"hash"`
	Recipient     string     `json:"recipient,omitempty"`
	InstitutionId string     `json:"institution_id,omitempty"`
	TokenId       uint64     `json:"token_id,omitempty"`
	IsValid       bool       `json:"is_valid"`
}

func verificationResponse(hash string, v ledger.Verification) VerificationResponse {
	ret := VerificationResponse{
		Hash:    hash,
		IsValid: v.IsValid,
	}
	if v.IsValid {
		mintedAt := v.MintedAt
		ret.MintedAt = &mintedAt
		ret.Recipient = v.Recipient
		ret.InstitutionId = v.InstitutionId
		ret.TokenId = v.TokenId
	}
	return ret
}

// ListResponse wraps a page of items
type ListResponse[T any] struct {
	Items  []T    `json:"items"`
	Total  uint64 `json:"total"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

type RecipientCertificatesResponse struct {
	Address  string   `json:"address"`
	TokenIds []uint64 `json:"token_ids"`
	Balance  uint64   `json:"balance"`
}

type EventsResponse struct {
	Events       []ledger.Notification `json:"events"`
	LastSequence uint64                `json:"last_sequence"`
}

type AddValidatorRequest struct {
	Address         string `json:"address"`
	InstitutionId   string `json:"institution_id"`
	InstitutionName string `json:"institution_name"`
}

type UpdateValidatorRequest struct {
	InstitutionId   string `json:"institution_id"`
	InstitutionName string `json:"institution_name"`
}

type SubmitRequestRequest struct {
	Recipient       string `json:"recipient"`
	Hash            string `json:"hash"`
	MetadataURI     string `json:"metadata_uri"`
	InstitutionId   string `json:"institution_id"`
	CertificateType string `json:"certificate_type"`
}

type SubmitRequestResponse struct {
	RequestId uint64 `json:"request_id"`
}

type ApproveResponse struct {
	RequestId uint64 `json:"request_id"`
	TokenId   uint64 `json:"token_id"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type TransferRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	// Data is passed to the safe transfer variant and implies Safe
	Data []byte `json:"data,omitempty"`
	Safe bool   `json:"safe,omitempty"`
}

type MetadataDocumentResponse struct {
	Id  string `json:"id"`
	Uri string `json:"uri"`
}

type SignedURLResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
	Url       string    `json:"url"`
}

type AdminResponse struct {
	Admin string `json:"admin"`
}
