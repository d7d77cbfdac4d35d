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
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/blinklabs-io/etched/database"
	"github.com/google/uuid"
)

var ErrInvalidDocument = errors.New("invalid metadata document")

type DocumentRecipient struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type DocumentInstitution struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// MetadataDocument is the JSON document a certificate's metadata URI points to
type MetadataDocument struct {
	IssuedAt    time.Time           `json:"issued_at"`
	Recipient   DocumentRecipient   `json:"recipient"`
	Institution DocumentInstitution `json:"institution"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Type        string              `json:"type,omitempty"`
	Issuer      string              `json:"issuer"`
}

// CreateMetadataDocument stores a metadata document and returns its ID. The
// caller is recorded as the issuer.
func (ls *LedgerState) CreateMetadataDocument(
	caller string,
	doc MetadataDocument,
) (string, error) {
	issuer, err := normalizeCaller(caller)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(doc.Name) == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidDocument)
	}
	if doc.Recipient.Address, err = NormalizeAddress(doc.Recipient.Address); err != nil {
		return "", err
	}
	if doc.IssuedAt.IsZero() {
		doc.IssuedAt = time.Now().UTC()
	}
	doc.Issuer = issuer
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if err := ls.db.SetDocument(id, data, nil); err != nil {
		return "", fmt.Errorf("store metadata document: %w", err)
	}
	ls.config.Logger.Debug(
		"stored metadata document",
		"id", id,
		"issuer", issuer,
		"component", "ledger",
	)
	return id, nil
}

// GetMetadataDocument returns the stored JSON of a metadata document
func (ls *LedgerState) GetMetadataDocument(id string) ([]byte, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: document %q", ErrNotFound, id)
	}
	data, err := ls.db.GetDocument(id, nil)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return data, nil
}

// MetadataDocumentURL returns a time-limited direct link to a document for
// blob stores backed by a bucket. It returns database.ErrSignedURLNotSupported
// otherwise.
func (ls *LedgerState) MetadataDocumentURL(id string, expires time.Duration) (*url.URL, error) {
	if _, err := ls.GetMetadataDocument(id); err != nil {
		return nil, err
	}
	return ls.db.DocumentURL(id, expires)
}

// IsSignedURLNotSupported reports whether err means the blob store cannot
// sign URLs
func IsSignedURLNotSupported(err error) bool {
	return errors.Is(err, database.ErrSignedURLNotSupported)
}
