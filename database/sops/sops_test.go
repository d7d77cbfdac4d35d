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

package sops_test

import (
	"testing"

	"filippo.io/age"
	"github.com/blinklabs-io/etched/database/sops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAgeKey(t *testing.T) {
	t.Helper()
	identity, err := age.GenerateX25519Identity()
	require.NoError(t, err)
	t.Setenv(sops.EnvGcpKmsResourceId, "")
	t.Setenv(sops.EnvAwsKmsKeyArns, "")
	t.Setenv(sops.EnvAgeRecipients, identity.Recipient().String())
	t.Setenv("SOPS_AGE_KEY", identity.String())
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	setupAgeKey(t)
	plaintext := []byte("jwt-signing-secret")

	ciphertext, err := sops.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotContains(t, string(ciphertext), string(plaintext))
	assert.True(t, sops.IsEncrypted(ciphertext))

	decrypted, err := sops.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptWithoutKeys(t *testing.T) {
	t.Setenv(sops.EnvGcpKmsResourceId, "")
	t.Setenv(sops.EnvAwsKmsKeyArns, "")
	t.Setenv(sops.EnvAgeRecipients, "")
	_, err := sops.Encrypt([]byte("data"))
	assert.ErrorIs(t, err, sops.ErrNoMasterKeys)
}

func TestIsEncryptedPlaintext(t *testing.T) {
	assert.False(t, sops.IsEncrypted([]byte("not a sops document")))
	assert.False(t, sops.IsEncrypted([]byte{0x01, 0x02}))
}
