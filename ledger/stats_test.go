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
	"testing"

	"github.com/blinklabs-io/etched/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	tl := newInstitutionLedger(t)
	stats, err := tl.Stats()
	require.NoError(t, err)
	assert.Equal(t, &ledger.Stats{ActiveValidators: 2}, stats)

	minted := submit(t, tl, "QmA", "INST-001")
	rejected := submit(t, tl, "QmB", "INST-001")
	submit(t, tl, "QmC", "INST-999")
	_, err = tl.ApproveCertificate(testValidator, minted)
	require.NoError(t, err)
	require.NoError(t, tl.RejectCertificate(testValidator, rejected, "incomplete"))
	require.NoError(t, tl.RemoveValidator(testAdmin, testValidator2))

	stats, err = tl.Stats()
	require.NoError(t, err)
	assert.Equal(
		t,
		&ledger.Stats{
			TotalRequests:     3,
			PendingRequests:   1,
			MintedRequests:    1,
			RejectedRequests:  1,
			TotalCertificates: 1,
			ActiveValidators:  1,
		},
		stats,
	)
}
