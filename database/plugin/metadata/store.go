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

package metadata

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/blinklabs-io/etched/database/models"
	"github.com/blinklabs-io/etched/database/plugin"
	"github.com/blinklabs-io/etched/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// MetadataStore holds the relational ledger state. Lookups return nil
// without an error when the record does not exist.
type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn
	BeginTxn() (types.Txn, error)

	// Admin
	GetLedgerAdmin(types.Txn) (*models.LedgerAdmin, error)
	SetLedgerAdmin(*models.LedgerAdmin, types.Txn) error

	// Validators
	GetValidator(string, types.Txn) (*models.Validator, error)
	AddValidator(*models.Validator, types.Txn) error
	UpdateValidator(
		string, // address
		string, // institutionId
		string, // institutionName
		types.Txn,
	) error
	SetValidatorActive(string, bool, types.Txn) error
	GetValidators(
		bool, // activeOnly
		int, // offset
		int, // limit
		types.Txn,
	) ([]models.Validator, error)
	CountValidators(bool, types.Txn) (uint64, error)

	// Requests
	GetCertificateRequest(uint64, types.Txn) (*models.CertificateRequest, error)
	GetCertificateRequestByHash(string, types.Txn) (*models.CertificateRequest, error)
	GetMaxCertificateRequestId(types.Txn) (uint64, error)
	AddCertificateRequest(*models.CertificateRequest, types.Txn) error
	DecideCertificateRequest(
		uint64, // id
		models.RequestStatus,
		string, // decidedBy
		string, // reason
		time.Time,
		types.Txn,
	) error
	GetCertificateRequests(
		models.CertificateRequestFilter,
		int, // offset
		int, // limit
		types.Txn,
	) ([]models.CertificateRequest, error)
	CountCertificateRequests(models.CertificateRequestFilter, types.Txn) (uint64, error)

	// Certificates
	GetCertificate(uint64, types.Txn) (*models.Certificate, error)
	GetCertificateByHash(string, types.Txn) (*models.Certificate, error)
	GetMaxCertificateTokenId(types.Txn) (uint64, error)
	AddCertificate(*models.Certificate, types.Txn) error
	GetCertificatesByRecipient(string, types.Txn) ([]models.Certificate, error)
	CountCertificates(string, types.Txn) (uint64, error)
}

// New returns the started metadata plugin selected by name
func New(
	pluginName string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	p, err := plugin.StartPlugin(
		plugin.PluginTypeMetadata,
		pluginName,
		logger,
		promRegistry,
	)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		_ = p.Stop()
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
