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
	"github.com/blinklabs-io/etched/database/models"
)

// GetCertificate returns a minted certificate by token ID
func (d *Database) GetCertificate(
	tokenId uint64,
	txn *Txn,
) (*models.Certificate, error) {
	ret, err := d.metadata.GetCertificate(tokenId, txn.Metadata())
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, models.ErrCertificateNotFound
	}
	return ret, nil
}

// GetCertificateByHash returns the certificate minted for a content hash
func (d *Database) GetCertificateByHash(
	hash string,
	txn *Txn,
) (*models.Certificate, error) {
	ret, err := d.metadata.GetCertificateByHash(hash, txn.Metadata())
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, models.ErrCertificateNotFound
	}
	return ret, nil
}

// MaxCertificateTokenId returns the highest minted token ID
func (d *Database) MaxCertificateTokenId(txn *Txn) (uint64, error) {
	return d.metadata.GetMaxCertificateTokenId(txn.Metadata())
}

func (d *Database) AddCertificate(cert *models.Certificate, txn *Txn) error {
	return d.metadata.AddCertificate(cert, txn.Metadata())
}

// GetCertificatesByRecipient returns the certificates owned by an address in
// mint order
func (d *Database) GetCertificatesByRecipient(
	recipient string,
	txn *Txn,
) ([]models.Certificate, error) {
	return d.metadata.GetCertificatesByRecipient(recipient, txn.Metadata())
}

// CountCertificates returns the number of certificates owned by recipient,
// or the total when recipient is empty
func (d *Database) CountCertificates(recipient string, txn *Txn) (uint64, error) {
	return d.metadata.CountCertificates(recipient, txn.Metadata())
}
