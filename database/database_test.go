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

package database_test

import (
	"errors"
	"testing"
	"time"

	"github.com/blinklabs-io/etched/database"
	"github.com/blinklabs-io/etched/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestNewDefaults(t *testing.T) {
	db := newTestDatabase(t)
	assert.NotNil(t, db.Blob())
	assert.NotNil(t, db.Metadata())
	assert.NotNil(t, db.Logger())
	assert.Empty(t, db.DataDir())
}

func TestNewUnknownPlugin(t *testing.T) {
	_, err := database.New(&database.Config{BlobPlugin: "floppy"})
	require.Error(t, err)
	_, err = database.New(&database.Config{MetadataPlugin: "csv"})
	require.Error(t, err)
}

func TestDataDirLock(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)

	_, err = database.New(&database.Config{DataDir: dataDir})
	require.ErrorIs(t, err, database.ErrDataDirLocked)

	require.NoError(t, db.Close())
	db2, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	require.NoError(t, db2.Close())
}

func TestPersistence(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	err = db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := db.AddValidator(&models.Validator{
			Address:       "0x1111111111111111111111111111111111111111",
			InstitutionId: "INST-001",
			Active:        true,
		}, txn); err != nil {
			return err
		}
		_, err := db.AppendNotification("validator.added", time.Now(), []byte("{}"), txn)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	defer db.Close()
	v, err := db.GetValidator("0x1111111111111111111111111111111111111111", nil)
	require.NoError(t, err)
	assert.Equal(t, "INST-001", v.InstitutionId)
	seq, err := db.LastNotificationSeq(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)
}

func TestTxnRollback(t *testing.T) {
	db := newTestDatabase(t)
	testErr := errors.New("abort")
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := db.AddValidator(&models.Validator{
			Address:       "0x2222222222222222222222222222222222222222",
			InstitutionId: "INST-002",
			Active:        true,
		}, txn); err != nil {
			return err
		}
		if _, err := db.AppendNotification("validator.added", time.Now(), nil, txn); err != nil {
			return err
		}
		return testErr
	})
	require.ErrorIs(t, err, testErr)

	_, err = db.GetValidator("0x2222222222222222222222222222222222222222", nil)
	assert.ErrorIs(t, err, models.ErrValidatorNotFound)
	seq, err := db.LastNotificationSeq(nil)
	require.NoError(t, err)
	assert.Zero(t, seq)
}

func TestCommitTimestampsMatch(t *testing.T) {
	db := newTestDatabase(t)
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		return db.SetLedgerAdmin(&models.LedgerAdmin{
			Address:       "0x3333333333333333333333333333333333333333",
			InitializedAt: time.Now(),
		}, txn)
	})
	require.NoError(t, err)
	metadataTs, err := db.Metadata().GetCommitTimestamp()
	require.NoError(t, err)
	blobTs, err := db.Blob().GetCommitTimestamp()
	require.NoError(t, err)
	assert.Positive(t, metadataTs)
	assert.Equal(t, metadataTs, blobTs)
}

func TestCommitTimestampError(t *testing.T) {
	err := database.CommitTimestampError{MetadataTimestamp: 2, BlobTimestamp: 1}
	assert.Equal(t, "commit timestamp mismatch: 2 (metadata) != 1 (blob)", err.Error())
}

func TestNotFoundErrors(t *testing.T) {
	db := newTestDatabase(t)
	_, err := db.GetLedgerAdmin(nil)
	assert.ErrorIs(t, err, models.ErrLedgerAdminNotFound)
	_, err = db.GetCertificateRequest(1, nil)
	assert.ErrorIs(t, err, models.ErrCertificateRequestNotFound)
	_, err = db.GetCertificateRequestByHash("0xabc", nil)
	assert.ErrorIs(t, err, models.ErrCertificateRequestNotFound)
	_, err = db.GetCertificate(1, nil)
	assert.ErrorIs(t, err, models.ErrCertificateNotFound)
	_, err = db.GetCertificateByHash("0xabc", nil)
	assert.ErrorIs(t, err, models.ErrCertificateNotFound)
	_, err = db.GetDocument("missing", nil)
	assert.ErrorIs(t, err, database.ErrDocumentNotFound)
}

func TestDecideCertificateRequestOnce(t *testing.T) {
	db := newTestDatabase(t)
	err := db.Transaction(true).Do(func(txn *database.Txn) error {
		return db.AddCertificateRequest(&models.CertificateRequest{
			ID:            1,
			CreatedAt:     time.Now(),
			Requester:     "0x4444444444444444444444444444444444444444",
			Recipient:     "0x5555555555555555555555555555555555555555",
			Hash:          "0xfeed",
			InstitutionId: "INST-001",
		}, txn)
	})
	require.NoError(t, err)
	decide := func() error {
		return db.Transaction(true).Do(func(txn *database.Txn) error {
			return db.DecideCertificateRequest(
				1,
				models.RequestStatusRejected,
				"0x6666666666666666666666666666666666666666",
				"blurry scan",
				time.Now(),
				txn,
			)
		})
	}
	require.NoError(t, decide())
	require.ErrorIs(t, decide(), models.ErrCertificateRequestNotPending)

	req, err := db.GetCertificateRequest(1, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, req.Status)
	assert.Equal(t, "blurry scan", req.RejectionReason)
	require.NotNil(t, req.DecidedAt)
	maxId, err := db.MaxCertificateRequestId(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), maxId)
}

func TestNotificationLog(t *testing.T) {
	db := newTestDatabase(t)
	for i := range 5 {
		err := db.Transaction(true).Do(func(txn *database.Txn) error {
			_, err := db.AppendNotification(
				"certificate.requested",
				time.UnixMilli(int64(1000+i)),
				[]byte{byte(i)},
				txn,
			)
			return err
		})
		require.NoError(t, err)
	}
	all, err := db.GetNotifications(0, 0, nil)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, rec := range all {
		assert.Equal(t, uint64(i+1), rec.Sequence)
		assert.Equal(t, "certificate.requested", rec.Type)
		assert.Equal(t, int64(1000+i), rec.Timestamp)
		assert.Equal(t, []byte{byte(i)}, rec.Data)
	}
	page, err := db.GetNotifications(2, 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, uint64(3), page[0].Sequence)
	assert.Equal(t, uint64(4), page[1].Sequence)

	none, err := db.GetNotifications(5, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	ro := db.Transaction(false)
	defer ro.Release()
	_, err = db.AppendNotification("x", time.Now(), nil, ro)
	assert.Error(t, err)
}

func TestDocuments(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.SetDocument("abc", []byte(`{"name":"Diploma"}`), nil))
	doc, err := db.GetDocument("abc", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Diploma"}`, string(doc))

	_, err = db.DocumentURL("abc", time.Minute)
	assert.ErrorIs(t, err, database.ErrSignedURLNotSupported)
}
