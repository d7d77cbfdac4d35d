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

package gormstore

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/etched/database/models"
	"github.com/blinklabs-io/etched/database/types"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testAddrA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testAddrB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:gormstore-%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	s := &Store{}
	require.NoError(t, s.Init(db, nil))
	t.Cleanup(func() { _ = s.CloseDB() })
	return s
}

func addTestRequest(t *testing.T, s *Store, id uint64, hash string, inst string) {
	t.Helper()
	require.NoError(t, s.AddCertificateRequest(&models.CertificateRequest{
		ID:            id,
		Requester:     testAddrA,
		Recipient:     testAddrB,
		Hash:          hash,
		InstitutionId: inst,
		CreatedAt:     time.Now(),
	}, nil))
}

func TestLedgerAdmin(t *testing.T) {
	s := newTestStore(t)
	admin, err := s.GetLedgerAdmin(nil)
	require.NoError(t, err)
	assert.Nil(t, admin)

	require.NoError(t, s.SetLedgerAdmin(&models.LedgerAdmin{
		Address:       testAddrA,
		InitializedAt: time.Now(),
	}, nil))
	admin, err = s.GetLedgerAdmin(nil)
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, testAddrA, admin.Address)
}

func TestValidatorLifecycle(t *testing.T) {
	s := newTestStore(t)
	v, err := s.GetValidator(testAddrA, nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.AddValidator(&models.Validator{
		Address:         testAddrA,
		InstitutionId:   "INST-001",
		InstitutionName: "First",
		Active:          true,
	}, nil))
	// Address is unique
	assert.Error(t, s.AddValidator(&models.Validator{
		Address:       testAddrA,
		InstitutionId: "INST-002",
		Active:        true,
	}, nil))

	require.NoError(t, s.UpdateValidator(testAddrA, "INST-002", "Second", nil))
	// Re-sending the same institution is not an error
	require.NoError(t, s.UpdateValidator(testAddrA, "INST-002", "Second", nil))
	require.NoError(t, s.SetValidatorActive(testAddrA, false, nil))
	// Unchanged value is not an error
	require.NoError(t, s.SetValidatorActive(testAddrA, false, nil))

	v, err = s.GetValidator(testAddrA, nil)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "INST-002", v.InstitutionId)
	assert.Equal(t, "Second", v.InstitutionName)
	assert.False(t, v.Active)

	assert.ErrorIs(t, s.UpdateValidator(testAddrB, "x", "y", nil), models.ErrValidatorNotFound)
	assert.ErrorIs(t, s.SetValidatorActive(testAddrB, false, nil), models.ErrValidatorNotFound)
}

func TestGetValidatorsPaging(t *testing.T) {
	s := newTestStore(t)
	for i := range 5 {
		require.NoError(t, s.AddValidator(&models.Validator{
			Address:       fmt.Sprintf("0x%040d", i+1),
			InstitutionId: "INST",
			Active:        i%2 == 0,
		}, nil))
	}
	all, err := s.GetValidators(false, 0, 0, nil)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	page, err := s.GetValidators(false, 1, 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, fmt.Sprintf("0x%040d", 2), page[0].Address)
	active, err := s.GetValidators(true, 0, 0, nil)
	require.NoError(t, err)
	assert.Len(t, active, 3)
	count, err := s.CountValidators(true, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestCertificateRequests(t *testing.T) {
	s := newTestStore(t)
	maxId, err := s.GetMaxCertificateRequestId(nil)
	require.NoError(t, err)
	assert.Zero(t, maxId)

	addTestRequest(t, s, 1, "h1", "INST-001")
	addTestRequest(t, s, 2, "h2", "INST-002")
	addTestRequest(t, s, 3, "h3", "INST-001")
	maxId, err = s.GetMaxCertificateRequestId(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), maxId)

	req, err := s.GetCertificateRequestByHash("h2", nil)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, uint64(2), req.ID)
	assert.Nil(t, req.DecidedAt)
	req, err = s.GetCertificateRequest(9, nil)
	require.NoError(t, err)
	assert.Nil(t, req)

	now := time.Now()
	require.NoError(t, s.DecideCertificateRequest(1, models.RequestStatusRejected, testAddrA, "bad", now, nil))
	err = s.DecideCertificateRequest(1, models.RequestStatusMinted, testAddrA, "", now, nil)
	assert.ErrorIs(t, err, models.ErrCertificateRequestNotPending)
	err = s.DecideCertificateRequest(7, models.RequestStatusMinted, testAddrA, "", now, nil)
	assert.ErrorIs(t, err, models.ErrCertificateRequestNotPending)

	req, err = s.GetCertificateRequest(1, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, req.Status)
	assert.Equal(t, "bad", req.RejectionReason)
	require.NotNil(t, req.DecidedAt)

	pending := models.RequestStatusPending
	reqs, err := s.GetCertificateRequests(models.CertificateRequestFilter{
		Status:        &pending,
		InstitutionId: "INST-001",
	}, 0, 0, nil)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, uint64(3), reqs[0].ID)

	count, err := s.CountCertificateRequests(models.CertificateRequestFilter{Recipient: testAddrB}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
	// Hash is unique
	assert.Error(t, s.AddCertificateRequest(&models.CertificateRequest{
		ID:   4,
		Hash: "h1",
	}, nil))
}

func TestHashesAreExact(t *testing.T) {
	s := newTestStore(t)
	longHash := "0x" + strings.Repeat("ab", 300)
	addTestRequest(t, s, 1, "0xabc", "INST-001")
	addTestRequest(t, s, 2, "0xABC", "INST-001")
	addTestRequest(t, s, 3, longHash, "INST-001")

	req, err := s.GetCertificateRequestByHash("0xABC", nil)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, uint64(2), req.ID)
	assert.Equal(t, "0xABC", req.Hash)
	req, err = s.GetCertificateRequestByHash(longHash, nil)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, longHash, req.Hash)
	req, err = s.GetCertificateRequestByHash("0xAbc", nil)
	require.NoError(t, err)
	assert.Nil(t, req)

	require.NoError(t, s.AddCertificate(&models.Certificate{
		TokenId:   1,
		RequestId: 1,
		Recipient: testAddrB,
		Hash:      "0xabc",
		MintedAt:  time.Now(),
	}, nil))
	cert, err := s.GetCertificateByHash("0xABC", nil)
	require.NoError(t, err)
	assert.Nil(t, cert)
	cert, err = s.GetCertificateByHash("0xabc", nil)
	require.NoError(t, err)
	require.NotNil(t, cert)
	assert.Equal(t, uint64(1), cert.TokenId)
}

func TestCertificates(t *testing.T) {
	s := newTestStore(t)
	for i, recipient := range []string{testAddrB, testAddrA, testAddrB} {
		require.NoError(t, s.AddCertificate(&models.Certificate{
			TokenId:   uint64(3 - i),
			RequestId: uint64(i + 10),
			Recipient: recipient,
			Hash:      fmt.Sprintf("hash-%d", i),
			MintedAt:  time.Now(),
		}, nil))
	}
	maxId, err := s.GetMaxCertificateTokenId(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), maxId)

	certs, err := s.GetCertificatesByRecipient(testAddrB, nil)
	require.NoError(t, err)
	require.Len(t, certs, 2)
	assert.Equal(t, uint64(1), certs[0].TokenId)
	assert.Equal(t, uint64(3), certs[1].TokenId)

	certs, err = s.GetCertificatesByRecipient("0x0000000000000000000000000000000000000001", nil)
	require.NoError(t, err)
	assert.NotNil(t, certs)
	assert.Empty(t, certs)

	cert, err := s.GetCertificateByHash("hash-1", nil)
	require.NoError(t, err)
	require.NotNil(t, cert)
	assert.Equal(t, uint64(2), cert.TokenId)
	cert, err = s.GetCertificate(99, nil)
	require.NoError(t, err)
	assert.Nil(t, cert)

	total, err := s.CountCertificates("", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	owned, err := s.CountCertificates(testAddrA, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), owned)
}

func TestTxnRollback(t *testing.T) {
	s := newTestStore(t)
	txn, err := s.BeginTxn()
	require.NoError(t, err)
	addTestRequestTxn := &models.CertificateRequest{ID: 1, Hash: "h", Requester: testAddrA, Recipient: testAddrB, InstitutionId: "I"}
	require.NoError(t, s.AddCertificateRequest(addTestRequestTxn, txn))
	require.NoError(t, txn.Rollback())

	req, err := s.GetCertificateRequest(1, nil)
	require.NoError(t, err)
	assert.Nil(t, req)

	// Finished transactions cannot be reused
	_, err = s.GetCertificateRequest(1, txn)
	assert.ErrorIs(t, err, types.ErrTxnFinished)
	require.NoError(t, txn.Commit())
}

type otherTxn struct{}

func (otherTxn) Commit() error   { return nil }
func (otherTxn) Rollback() error { return nil }

func TestResolveDBErrors(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetValidator(testAddrA, otherTxn{})
	assert.ErrorIs(t, err, types.ErrTxnWrongType)

	failed := newFailedTxn(errors.New("begin failed"))
	_, err = s.GetValidator(testAddrA, failed)
	assert.EqualError(t, err, "begin failed")
	assert.EqualError(t, failed.Commit(), "begin failed")

	empty := &Store{}
	_, err = empty.GetValidator(testAddrA, nil)
	assert.ErrorIs(t, err, types.ErrNoStoreAvailable)
	_, err = empty.BeginTxn()
	assert.ErrorIs(t, err, types.ErrNoStoreAvailable)
}

func TestCommitTimestamp(t *testing.T) {
	s := newTestStore(t)
	ts, err := s.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Zero(t, ts)
	txn := s.Transaction()
	require.NoError(t, s.SetCommitTimestamp(100, txn))
	require.NoError(t, txn.Commit())
	txn = s.Transaction()
	require.NoError(t, s.SetCommitTimestamp(200, txn))
	require.NoError(t, txn.Commit())
	ts, err = s.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(200), ts)
}
