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

	"github.com/blinklabs-io/etched/database/models"
	"github.com/blinklabs-io/etched/ledger"
)

func (a *Api) handleListRequests(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	query := r.URL.Query()
	filter := ledger.RequestFilter{
		InstitutionId: query.Get("institution_id"),
		Requester:     query.Get("requester"),
		Recipient:     query.Get("recipient"),
	}
	if raw := query.Get("status"); raw != "" {
		status, err := models.ParseRequestStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrBadParameter)
			return
		}
		filter.Status = &status
	}
	reqs, total, err := a.config.LedgerState.ListRequests(filter, page)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	items := make([]RequestResponse, 0, len(reqs))
	for i := range reqs {
		items = append(items, requestResponse(&reqs[i]))
	}
	writeJSON(w, http.StatusOK, ListResponse[RequestResponse]{
		Items:  items,
		Total:  total,
		Offset: page.Offset,
		Limit:  page.Limit,
	})
}

func (a *Api) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	requestId, err := uintParam(r, "id")
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	req, err := a.config.LedgerState.GetCertificateRequest(requestId)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestResponse(req))
}

func (a *Api) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body SubmitRequestRequest
	if err := decodeBody(w, r, &body); err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	requestId, err := a.config.LedgerState.SubmitCertificateRequest(
		callerFromContext(r.Context()),
		ledger.SubmitRequestParams{
			Recipient:       body.Recipient,
			Hash:            body.Hash,
			MetadataURI:     body.MetadataURI,
			InstitutionId:   body.InstitutionId,
			CertificateType: body.CertificateType,
		},
	)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SubmitRequestResponse{RequestId: requestId})
}

func (a *Api) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	requestId, err := uintParam(r, "id")
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	tokenId, err := a.config.LedgerState.ApproveCertificate(
		callerFromContext(r.Context()),
		requestId,
	)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ApproveResponse{
		RequestId: requestId,
		TokenId:   tokenId,
	})
}

func (a *Api) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	requestId, err := uintParam(r, "id")
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	// The reason is optional, so is the body
	var body RejectRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &body); err != nil {
			a.writeLedgerError(w, r, err)
			return
		}
	}
	if err := a.config.LedgerState.RejectCertificate(
		callerFromContext(r.Context()),
		requestId,
		body.Reason,
	); err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	req, err := a.config.LedgerState.GetCertificateRequest(requestId)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestResponse(req))
}
