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
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	addressPrefix    = "0x"
	addressHexLength = 40
)

var zeroAddress = addressPrefix + strings.Repeat("0", addressHexLength)

// NormalizeAddress returns the canonical lowercase form of an account
// address. The zero address is not a valid account.
func NormalizeAddress(address string) (string, error) {
	ret := strings.ToLower(strings.TrimSpace(address))
	if !strings.HasPrefix(ret, addressPrefix) ||
		len(ret) != len(addressPrefix)+addressHexLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	if _, err := hex.DecodeString(ret[len(addressPrefix):]); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	if ret == zeroAddress {
		return "", fmt.Errorf("%w: zero address", ErrInvalidAddress)
	}
	return ret, nil
}

// normalizeCaller canonicalises the authenticated caller of a mutation. A
// missing or malformed identity cannot hold any capability.
func normalizeCaller(caller string) (string, error) {
	if strings.TrimSpace(caller) == "" {
		return "", fmt.Errorf("%w: no caller identity", ErrUnauthorized)
	}
	ret, err := NormalizeAddress(caller)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return ret, nil
}
