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

package models_test

import (
	"testing"

	"github.com/blinklabs-io/etched/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestStatusString(t *testing.T) {
	assert.Equal(t, "pending", models.RequestStatusPending.String())
	assert.Equal(t, "minted", models.RequestStatusMinted.String())
	assert.Equal(t, "rejected", models.RequestStatusRejected.String())
	assert.Equal(t, "unknown(7)", models.RequestStatus(7).String())
}

func TestParseRequestStatus(t *testing.T) {
	testDefs := []struct {
		input    string
		expected models.RequestStatus
	}{
		{input: "pending", expected: models.RequestStatusPending},
		{input: " Minted ", expected: models.RequestStatusMinted},
		{input: "approved", expected: models.RequestStatusMinted},
		{input: "REJECTED", expected: models.RequestStatusRejected},
	}
	for _, testDef := range testDefs {
		status, err := models.ParseRequestStatus(testDef.input)
		require.NoError(t, err, "input %q", testDef.input)
		assert.Equal(t, testDef.expected, status, "input %q", testDef.input)
	}
	_, err := models.ParseRequestStatus("bogus")
	require.Error(t, err)
}

func TestCertificateRequestIsPending(t *testing.T) {
	req := &models.CertificateRequest{Status: models.RequestStatusPending}
	assert.True(t, req.IsPending())
	req.Status = models.RequestStatusRejected
	assert.False(t, req.IsPending())
}

func TestHashKey(t *testing.T) {
	key := models.HashKey("0xabc")
	assert.Len(t, key, 32)
	assert.Equal(t, key, models.HashKey("0xabc"))
	assert.NotEqual(t, key, models.HashKey("0xABC"))
}
