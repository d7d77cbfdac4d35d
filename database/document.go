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

package database

import (
	"errors"
	"net/url"
	"time"

	"github.com/blinklabs-io/etched/database/plugin/blob"
	"github.com/blinklabs-io/etched/database/types"
)

var (
	ErrDocumentNotFound      = errors.New("document not found")
	ErrSignedURLNotSupported = errors.New("blob store does not support signed URLs")
)

// SetDocument stores a metadata document
func (d *Database) SetDocument(id string, data []byte, txn *Txn) error {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, true)
		return txn.Do(func(txn *Txn) error {
			return d.blob.Set(txn.Blob(), types.DocumentKey(id), data)
		})
	}
	return d.blob.Set(txn.Blob(), types.DocumentKey(id), data)
}

// GetDocument returns a stored metadata document
func (d *Database) GetDocument(id string, txn *Txn) ([]byte, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	ret, err := d.blob.Get(txn.Blob(), types.DocumentKey(id))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return ret, nil
}

// DocumentURL returns a time-limited direct download URL for a document when
// the blob store is a remote bucket
func (d *Database) DocumentURL(id string, expires time.Duration) (*url.URL, error) {
	signer, ok := d.blob.(blob.URLSigner)
	if !ok {
		return nil, ErrSignedURLNotSupported
	}
	return signer.SignedURL(types.DocumentKey(id), expires)
}
