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

package ledger_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/blinklabs-io/etched/database/models"
	"github.com/blinklabs-io/etched/event"
	"github.com/blinklabs-io/etched/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newInstitutionLedger returns a ledger with an INST-001 validator and an
// INST-999 validator
func newInstitutionLedger(t *testing.T) *testLedger {
	t.Helper()
	tl := newTestLedger(t)
	require.NoError(t, tl.AddValidator(testAdmin, testValidator, "INST-001", "University A"))
	require.NoError(t, tl.AddValidator(testAdmin, testValidator2, "INST-999", "University Z"))
	tl.drainEvents()
	return tl
}

func submit(t *testing.T, tl *testLedger, hash string, institutionId string) uint64 {
	t.Helper()
	requestId, err := tl.SubmitCertificateRequest(
		testCertificator,
		ledger.SubmitRequestParams{
			Recipient:       testRecipient,
			Hash:            hash,
			MetadataURI:     "ipfs://" + hash,
			InstitutionId:   institutionId,
			CertificateType: "diploma",
		},
	)
	require.NoError(t, err)
	return requestId
}

func TestSubmitCertificateRequest(t *testing.T) {
	tl := newInstitutionLedger(t)
	requestId := submit(t, tl, "QmHash1", "INST-001")
	assert.Equal(t, uint64(1), requestId)
	assert.Equal(t, uint64(2), submit(t, tl, "QmHash2", "INST-001"))

	req, err := tl.GetCertificateRequest(requestId)
	require.NoError(t, err)
	assert.Equal(t, testCertificator, req.Requester)
	assert.Equal(t, testRecipient, req.Recipient)
	assert.Equal(t, "QmHash1", req.Hash)
	assert.Equal(t, "ipfs://QmHash1", req.MetadataURI)
	assert.True(t, req.IsPending())
	assert.Nil(t, req.DecidedAt)

	evt := tl.nextEvent(t)
	assert.Equal(t, event.CertificateRequestedEventType, evt.Type)
	data, ok := evt.Data.(event.CertificateRequestedEvent)
	require.True(t, ok)
	assert.Equal(t, requestId, data.RequestId)
	assert.Equal(t, "INST-001", data.InstitutionId)

	total, err := tl.TotalRequests()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
}

func TestSubmitCertificateRequestErrors(t *testing.T) {
	tl := newInstitutionLedger(t)
	submit(t, tl, "QmHash1", "INST-001")
	tl.drainEvents()

	testDefs := []struct {
		name   string
		caller string
		params ledger.SubmitRequestParams
		err    error
	}{
		{
			name:   "empty hash",
			caller: testCertificator,
			params: ledger.SubmitRequestParams{Recipient: testRecipient},
			err:    ledger.ErrEmptyHash,
		},
		{
			name:   "empty hash and bad recipient",
			caller: testCertificator,
			params: ledger.SubmitRequestParams{Recipient: "bogus", Hash: "  "},
			err:    ledger.ErrEmptyHash,
		},
		{
			name:   "duplicate hash",
			caller: testCertificator,
			params: ledger.SubmitRequestParams{Recipient: testRecipient2, Hash: "QmHash1"},
			err:    ledger.ErrDuplicateHash,
		},
		{
			name:   "bad recipient",
			caller: testCertificator,
			params: ledger.SubmitRequestParams{Recipient: "bogus", Hash: "QmHash2"},
			err:    ledger.ErrInvalidAddress,
		},
		{
			name:   "no caller",
			caller: "",
			params: ledger.SubmitRequestParams{Recipient: testRecipient, Hash: "QmHash3"},
			err:    ledger.ErrUnauthorized,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := tl.SubmitCertificateRequest(testDef.caller, testDef.params)
			assert.ErrorIs(t, err, testDef.err)
		})
	}
	tl.assertNoEvent(t)

	total, err := tl.TotalRequests()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
}

func TestApproveCertificate(t *testing.T) {
	tl := newInstitutionLedger(t)
	requestId := submit(t, tl, "QmHash1", "INST-001")
	tl.drainEvents()

	tokenId, err := tl.ApproveCertificate(testValidator, requestId)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tokenId)

	req, err := tl.GetCertificateRequest(requestId)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusMinted, req.Status)
	assert.Equal(t, testValidator, req.DecidedBy)
	require.NotNil(t, req.DecidedAt)

	owner, err := tl.OwnerOf(tokenId)
	require.NoError(t, err)
	assert.Equal(t, testRecipient, owner)
	uri, err := tl.TokenURI(tokenId)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://QmHash1", uri)
	balance, err := tl.BalanceOf(testRecipient)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), balance)
	tokens, err := tl.GetRecipientCertificates(testRecipient)
	require.NoError(t, err)
	assert.Equal(t, []uint64{tokenId}, tokens)

	cert, err := tl.GetCertificate(tokenId)
	require.NoError(t, err)
	assert.Equal(t, requestId, cert.RequestId)
	assert.Equal(t, "INST-001", cert.InstitutionId)
	assert.Equal(t, testValidator, cert.Validator)

	// Approved always precedes Minted
	approved := tl.nextEvent(t)
	minted := tl.nextEvent(t)
	assert.Equal(t, event.CertificateApprovedEventType, approved.Type)
	assert.Equal(t, event.CertificateMintedEventType, minted.Type)
	assert.Equal(t, approved.Sequence+1, minted.Sequence)
	mintedData, ok := minted.Data.(event.CertificateMintedEvent)
	require.True(t, ok)
	assert.Equal(t, tokenId, mintedData.TokenId)
	assert.Equal(t, testRecipient, mintedData.Recipient)
}

func TestInstitutionScenario(t *testing.T) {
	tl := newInstitutionLedger(t)
	requestId := submit(t, tl, "QmHashInst", "INST-001")

	// A validator of another institution cannot decide the request
	_, err := tl.ApproveCertificate(testValidator2, requestId)
	assert.ErrorIs(t, err, ledger.ErrInstitutionMismatch)
	err = tl.RejectCertificate(testValidator2, requestId, "")
	assert.ErrorIs(t, err, ledger.ErrInstitutionMismatch)

	// Neither can anyone who is not a validator
	_, err = tl.ApproveCertificate(testOutsider, requestId)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
	_, err = tl.ApproveCertificate(testAdmin, requestId)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	req, err := tl.GetCertificateRequest(requestId)
	require.NoError(t, err)
	assert.True(t, req.IsPending())

	_, err = tl.ApproveCertificate(testValidator, requestId)
	require.NoError(t, err)
	verification := tl.VerifyCertificateByHash("QmHashInst")
	assert.True(t, verification.IsValid)
	assert.Equal(t, "INST-001", verification.InstitutionId)
}

func TestApproveErrors(t *testing.T) {
	tl := newInstitutionLedger(t)
	requestId := submit(t, tl, "QmHash1", "INST-001")

	_, err := tl.ApproveCertificate(testValidator, 42)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	// Authorization is checked before existence
	_, err = tl.ApproveCertificate(testOutsider, 42)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)

	_, err = tl.ApproveCertificate(testValidator, requestId)
	require.NoError(t, err)
	_, err = tl.ApproveCertificate(testValidator, requestId)
	assert.ErrorIs(t, err, ledger.ErrNotPending)
	err = tl.RejectCertificate(testValidator, requestId, "late")
	assert.ErrorIs(t, err, ledger.ErrNotPending)

	// A removed validator loses its authority
	requestId2 := submit(t, tl, "QmHash2", "INST-001")
	require.NoError(t, tl.RemoveValidator(testAdmin, testValidator))
	_, err = tl.ApproveCertificate(testValidator, requestId2)
	assert.ErrorIs(t, err, ledger.ErrUnauthorized)
}

func TestRejectCertificate(t *testing.T) {
	tl := newInstitutionLedger(t)
	requestId := submit(t, tl, "QmHash1", "INST-001")
	tl.drainEvents()

	require.NoError(t, tl.RejectCertificate(testValidator, requestId, ""))
	req, err := tl.GetCertificateRequest(requestId)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, req.Status)
	assert.Equal(t, ledger.DefaultRejectionReason, req.RejectionReason)

	evt := tl.nextEvent(t)
	assert.Equal(t, event.CertificateRejectedEventType, evt.Type)
	data, ok := evt.Data.(event.CertificateRejectedEvent)
	require.True(t, ok)
	assert.Equal(t, ledger.DefaultRejectionReason, data.Reason)

	// Nothing was minted and the hash stays used
	verification := tl.VerifyCertificateByHash("QmHash1")
	assert.False(t, verification.IsValid)
	_, err = tl.SubmitCertificateRequest(
		testCertificator,
		ledger.SubmitRequestParams{Recipient: testRecipient, Hash: "QmHash1"},
	)
	assert.ErrorIs(t, err, ledger.ErrDuplicateHash)
	total, err := tl.TotalCertificates()
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRejectBlankReason(t *testing.T) {
	tl := newInstitutionLedger(t)
	blankId := submit(t, tl, "QmHashBlank", "INST-001")
	givenId := submit(t, tl, "QmHashGiven", "INST-001")

	require.NoError(t, tl.RejectCertificate(testValidator, blankId, " \t\n "))
	req, err := tl.GetCertificateRequest(blankId)
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultRejectionReason, req.RejectionReason)

	require.NoError(t, tl.RejectCertificate(testValidator, givenId, "forged signature"))
	req, err = tl.GetCertificateRequest(givenId)
	require.NoError(t, err)
	assert.Equal(t, "forged signature", req.RejectionReason)
}

func TestConcurrentApprove(t *testing.T) {
	tl := newInstitutionLedger(t)
	requestId := submit(t, tl, "QmHashRace", "INST-001")
	require.NoError(t, tl.AddValidator(testAdmin, testOutsider, "INST-001", "University A"))

	callers := []string{testValidator, testOutsider}
	errs := make([]error, len(callers))
	var wg sync.WaitGroup
	for i, caller := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = tl.ApproveCertificate(caller, requestId)
		}()
	}
	wg.Wait()

	var succeeded, notPending int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ledger.ErrNotPending):
			notPending++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, notPending)
	total, err := tl.TotalCertificates()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
}

func TestVerifyUnknownHash(t *testing.T) {
	tl := newInstitutionLedger(t)
	submit(t, tl, "QmPending", "INST-001")
	for _, hash := range []string{"QmUnknown", "QmPending", ""} {
		verification := tl.VerifyCertificateByHash(hash)
		assert.Equal(t, ledger.Verification{}, verification, "hash %q", hash)
	}
}

func TestRecipientCertificates(t *testing.T) {
	tl := newInstitutionLedger(t)
	var expected []uint64
	for i := range 3 {
		requestId := submit(t, tl, fmt.Sprintf("QmHash%d", i), "INST-001")
		tokenId, err := tl.ApproveCertificate(testValidator, requestId)
		require.NoError(t, err)
		expected = append(expected, tokenId)
	}
	tokens, err := tl.GetRecipientCertificates(testRecipient)
	require.NoError(t, err)
	assert.Equal(t, expected, tokens)

	tokens, err = tl.GetRecipientCertificates(testRecipient2)
	require.NoError(t, err)
	assert.NotNil(t, tokens)
	assert.Empty(t, tokens)

	_, err = tl.GetRecipientCertificates("nope")
	assert.ErrorIs(t, err, ledger.ErrInvalidAddress)
	_, err = tl.OwnerOf(99)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestListRequests(t *testing.T) {
	tl := newInstitutionLedger(t)
	first := submit(t, tl, "QmA", "INST-001")
	submit(t, tl, "QmB", "INST-999")
	submit(t, tl, "QmC", "INST-001")
	_, err := tl.ApproveCertificate(testValidator, first)
	require.NoError(t, err)

	all, total, err := tl.ListRequests(ledger.RequestFilter{}, ledger.Page{})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Len(t, all, 3)

	pending := models.RequestStatusPending
	reqs, total, err := tl.ListRequests(
		ledger.RequestFilter{Status: &pending, InstitutionId: "INST-001"},
		ledger.Page{},
	)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, reqs, 1)
	assert.Equal(t, "QmC", reqs[0].Hash)
}
