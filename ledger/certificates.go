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
	"time"

	"github.com/blinklabs-io/etched/database/models"
	"github.com/blinklabs-io/etched/event"
)

const DefaultRejectionReason = "No reason provided"

// Verification is the result of looking up a certificate by content hash
type Verification struct {
	MintedAt      time.Time
	Recipient     string
	InstitutionId string
	TokenId       uint64
	IsValid       bool
}

// decidableRequest runs the checks shared by approve and reject and returns
// the pending request along with the deciding validator
func (ls *LedgerState) decidableRequest(
	m *mutation,
	requestId uint64,
) (*models.CertificateRequest, *models.Validator, error) {
	validator, err := ls.requireActiveValidator(m.caller, m.txn)
	if err != nil {
		return nil, nil, err
	}
	req, err := ls.db.GetCertificateRequest(requestId, m.txn)
	if err != nil {
		return nil, nil, mapNotFound(err)
	}
	if !req.IsPending() {
		return nil, nil, fmt.Errorf(
			"%w: request %d is %s",
			ErrNotPending,
			requestId,
			req.Status,
		)
	}
	if err := requireValidatorForInstitution(validator, req.InstitutionId); err != nil {
		return nil, nil, err
	}
	return req, validator, nil
}

func (ls *LedgerState) decide(
	m *mutation,
	requestId uint64,
	status models.RequestStatus,
	reason string,
) error {
	err := ls.db.DecideCertificateRequest(
		requestId,
		status,
		m.caller,
		reason,
		m.now,
		m.txn,
	)
	if errors.Is(err, models.ErrCertificateRequestNotPending) {
		return fmt.Errorf("%w: request %d", ErrNotPending, requestId)
	}
	return err
}

// ApproveCertificate mints a certificate for a pending request and returns
// the new token ID. Only an active validator of the request's institution
// may approve.
func (ls *LedgerState) ApproveCertificate(
	caller string,
	requestId uint64,
) (uint64, error) {
	var tokenId uint64
	err := ls.mutate("approve", caller, func(m *mutation) error {
		req, _, err := ls.decidableRequest(m, requestId)
		if err != nil {
			return err
		}
		maxTokenId, err := ls.db.MaxCertificateTokenId(m.txn)
		if err != nil {
			return err
		}
		tokenId = maxTokenId + 1
		cert := &models.Certificate{
			TokenId:         tokenId,
			RequestId:       req.ID,
			Recipient:       req.Recipient,
			Hash:            req.Hash,
			InstitutionId:   req.InstitutionId,
			CertificateType: req.CertificateType,
			MetadataURI:     req.MetadataURI,
			Validator:       m.caller,
			MintedAt:        m.now,
		}
		if err := ls.db.AddCertificate(cert, m.txn); err != nil {
			return fmt.Errorf("mint certificate: %w", err)
		}
		if err := ls.decide(m, requestId, models.RequestStatusMinted, ""); err != nil {
			return err
		}
		m.emit(
			event.CertificateApprovedEventType,
			event.CertificateApprovedEvent{
				Timestamp: m.now,
				RequestId: requestId,
				Validator: m.caller,
			},
		)
		m.emit(
			event.CertificateMintedEventType,
			event.CertificateMintedEvent{
				Timestamp: m.now,
				TokenId:   tokenId,
				RequestId: requestId,
				Recipient: cert.Recipient,
				Hash:      cert.Hash,
			},
		)
		return nil
	})
	if err != nil {
		return 0, err
	}
	ls.metrics.certificatesMinted.Inc()
	return tokenId, nil
}

// RejectCertificate closes a pending request without minting. A blank
// reason is replaced with DefaultRejectionReason.
func (ls *LedgerState) RejectCertificate(
	caller string,
	requestId uint64,
	reason string,
) error {
	if strings.TrimSpace(reason) == "" {
		reason = DefaultRejectionReason
	}
	err := ls.mutate("reject", caller, func(m *mutation) error {
		if _, _, err := ls.decidableRequest(m, requestId); err != nil {
			return err
		}
		if err := ls.decide(m, requestId, models.RequestStatusRejected, reason); err != nil {
			return err
		}
		m.emit(
			event.CertificateRejectedEventType,
			event.CertificateRejectedEvent{
				Timestamp: m.now,
				RequestId: requestId,
				Validator: m.caller,
				Reason:    reason,
			},
		)
		return nil
	})
	if err != nil {
		return err
	}
	ls.metrics.requestsRejected.Inc()
	return nil
}

func (ls *LedgerState) GetCertificate(tokenId uint64) (*models.Certificate, error) {
	cert, err := ls.db.GetCertificate(tokenId, nil)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return cert, nil
}

// VerifyCertificateByHash looks up the certificate minted for a content
// hash. Unknown hashes, including those of pending or rejected requests,
// return an invalid result rather than an error.
func (ls *LedgerState) VerifyCertificateByHash(hash string) Verification {
	cert, err := ls.db.GetCertificateByHash(hash, nil)
	if err != nil {
		if !errors.Is(err, models.ErrCertificateNotFound) {
			ls.config.Logger.Error(
				"certificate lookup failed",
				"hash", hash,
				"error", err,
				"component", "ledger",
			)
		}
		return Verification{}
	}
	return Verification{
		IsValid:       true,
		TokenId:       cert.TokenId,
		Recipient:     cert.Recipient,
		InstitutionId: cert.InstitutionId,
		MintedAt:      cert.MintedAt,
	}
}

// GetRecipientCertificates returns the token IDs owned by address in mint
// order. The result is empty, not nil, when there are none.
func (ls *LedgerState) GetRecipientCertificates(address string) ([]uint64, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	certs, err := ls.db.GetCertificatesByRecipient(addr, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]uint64, 0, len(certs))
	for _, cert := range certs {
		ret = append(ret, cert.TokenId)
	}
	return ret, nil
}

// TotalCertificates returns the number of minted certificates, which is
// also the highest token ID
func (ls *LedgerState) TotalCertificates() (uint64, error) {
	return ls.db.MaxCertificateTokenId(nil)
}

// BalanceOf returns the number of certificates owned by address
func (ls *LedgerState) BalanceOf(address string) (uint64, error) {
	addr, err := NormalizeAddress(address)
	if err != nil {
		return 0, err
	}
	return ls.db.CountCertificates(addr, nil)
}

// OwnerOf returns the recipient of a token
func (ls *LedgerState) OwnerOf(tokenId uint64) (string, error) {
	cert, err := ls.GetCertificate(tokenId)
	if err != nil {
		return "", err
	}
	return cert.Recipient, nil
}

// TokenURI returns the metadata URI recorded for a token at mint
func (ls *LedgerState) TokenURI(tokenId uint64) (string, error) {
	cert, err := ls.GetCertificate(tokenId)
	if err != nil {
		return "", err
	}
	return cert.MetadataURI, nil
}
