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
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/etched/ledger"
	"github.com/go-chi/chi/v5"
)

func (a *Api) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AdminResponse{Admin: a.config.LedgerState.Admin()})
}

func (a *Api) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.config.LedgerState.Stats()
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleGetEvents serves the notification log for mirrors catching up
func (a *Api) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if raw := r.URL.Query().Get("after"); raw != "" {
		var err error
		if after, err = strconv.ParseUint(raw, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: after", ErrBadParameter))
			return
		}
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	ls := a.config.LedgerState
	// Read the last sequence first so it never trails the returned events
	lastSeq, err := ls.LastNotificationSequence()
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	events, err := ls.Notifications(after, limit)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	if n := len(events); n > 0 && events[n-1].Sequence > lastSeq {
		lastSeq = events[n-1].Sequence
	}
	writeJSON(w, http.StatusOK, EventsResponse{
		Events:       events,
		LastSequence: lastSeq,
	})
}

func (a *Api) metadataDocumentURI(id string) string {
	return a.config.PublicBaseUrl + "/metadata/" + id + ".json"
}

func (a *Api) handleCreateMetadataDocument(w http.ResponseWriter, r *http.Request) {
	var doc ledger.MetadataDocument
	if err := decodeBody(w, r, &doc); err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	id, err := a.config.LedgerState.CreateMetadataDocument(
		callerFromContext(r.Context()),
		doc,
	)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, MetadataDocumentResponse{
		Id:  id,
		Uri: a.metadataDocumentURI(id),
	})
}

// handleGetMetadataDocument serves /metadata/{id}.json
func (a *Api) handleGetMetadataDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := strings.CutSuffix(chi.URLParam(r, "file"), ".json")
	if !ok {
		writeError(w, http.StatusNotFound, ledger.ErrNotFound)
		return
	}
	data, err := a.config.LedgerState.GetMetadataDocument(id)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleGetMetadataDocumentURL returns a signed direct link to a document
// when the blob store supports it
func (a *Api) handleGetMetadataDocumentURL(w http.ResponseWriter, r *http.Request) {
	expires := DefaultSignedURLTTL
	seconds, err := queryInt(r, "expires")
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	if seconds > 0 {
		expires = time.Duration(seconds) * time.Second
	}
	signedUrl, err := a.config.LedgerState.MetadataDocumentURL(
		chi.URLParam(r, "id"),
		expires,
	)
	if err != nil {
		a.writeLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SignedURLResponse{
		Url:       signedUrl.String(),
		ExpiresAt: time.Now().Add(expires).UTC(),
	})
}
