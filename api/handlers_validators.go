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
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (a *Api) handleListValidators(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	validators, total, err := a.config.LedgerState.ListValidators(activeOnly, page)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	items := make([]ValidatorResponse, 0, len(validators))
	for i := range validators {
		items = append(items, validatorResponse(&validators[i]))
	}
	writeJSON(w, http.StatusOK, ListResponse[ValidatorResponse]{
		Items:  items,
		Total:  total,
		Offset: page.Offset,
		Limit:  page.Limit,
	})
}

func (a *Api) handleGetValidator(w http.ResponseWriter, r *http.Request) {
	validator, err := a.config.LedgerState.GetValidator(chi.URLParam(r, "address"))
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validatorResponse(validator))
}

func (a *Api) handleAddValidator(w http.ResponseWriter, r *http.Request) {
	var req AddValidatorRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	ls := a.config.LedgerState
	if err := ls.AddValidator(
		callerFromContext(r.Context()),
		req.Address,
		req.InstitutionId,
		req.InstitutionName,
	); err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	validator, err := ls.GetValidator(req.Address)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, validatorResponse(validator))
}

func (a *Api) handleUpdateValidator(w http.ResponseWriter, r *http.Request) {
	var req UpdateValidatorRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	address := chi.URLParam(r, "address")
	ls := a.config.LedgerState
	if err := ls.UpdateValidator(
		callerFromContext(r.Context()),
		address,
		req.InstitutionId,
		req.InstitutionName,
	); err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	validator, err := ls.GetValidator(address)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validatorResponse(validator))
}

func (a *Api) handleRemoveValidator(w http.ResponseWriter, r *http.Request) {
	if err := a.config.LedgerState.RemoveValidator(
		callerFromContext(r.Context()),
		chi.URLParam(r, "address"),
	); err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
