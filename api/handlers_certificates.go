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
	"net/http"

	"github.com/blinklabs-io/etched/ledger"
	"github.com/go-chi/chi/v5"
)

func (a *Api) handleGetCertificate(w http.ResponseWriter, r *http.Request) {
	tokenId, err := uintParam(r, "tokenId")
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	cert, err := a.config.LedgerState.GetCertificate(tokenId)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, certificateResponse(cert))
}

// handleTransfer exposes the token transfer entry points. Every transfer is
// refused.
func (a *Api) handleTransfer(w http.ResponseWriter, r *http.Request) {
	tokenId, err := uintParam(r, "tokenId")
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	// The body only selects the entry point. A missing or malformed body
	// falls back to the plain transfer, which the guard refuses as well.
	var body TransferRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &body); err != nil {
			body = TransferRequest{}
		}
	}
	caller := callerFromContext(r.Context())
	ls := a.config.LedgerState
	switch {
	case body.Data != nil:
		err = ls.SafeTransferFromWithData(caller, body.From, body.To, tokenId, body.Data)
	case body.Safe:
		err = ls.SafeTransferFrom(caller, body.From, body.To, tokenId)
	default:
		err = ls.TransferFrom(caller, body.From, body.To, tokenId)
	}
	a.writeLedgerError(w, r, err)
}

func (a *Api) handleVerify(w http.ResponseWriter, r *http.Request) {
	hash, err := pathParam(r, "hash")
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	verification := a.config.LedgerState.VerifyCertificateByHash(hash)
	writeJSON(w, http.StatusOK, verificationResponse(hash, verification))
}

func (a *Api) handleGetRecipientCertificates(w http.ResponseWriter, r *http.Request) {
	address, err := ledger.NormalizeAddress(chi.URLParam(r, "address"))
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	ls := a.config.LedgerState
	tokenIds, err := ls.GetRecipientCertificates(address)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	balance, err := ls.BalanceOf(address)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RecipientCertificatesResponse{
		Address:  address,
		TokenIds: tokenIds,
		Balance:  balance,
	})
}
