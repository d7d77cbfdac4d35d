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
	"fmt"
)

// TransferFrom always fails. Certificates are soulbound.
func (ls *LedgerState) TransferFrom(
	caller string,
	from string,
	to string,
	tokenId uint64,
) error {
	return ls.guardTransfer("transfer_from", caller, tokenId)
}

// SafeTransferFrom always fails. Certificates are soulbound.
func (ls *LedgerState) SafeTransferFrom(
	caller string,
	from string,
	to string,
	tokenId uint64,
) error {
	return ls.guardTransfer("safe_transfer_from", caller, tokenId)
}

// SafeTransferFromWithData always fails. Certificates are soulbound.
func (ls *LedgerState) SafeTransferFromWithData(
	caller string,
	from string,
	to string,
	tokenId uint64,
	data []byte,
) error {
	return ls.guardTransfer("safe_transfer_from", caller, tokenId)
}

// guardTransfer is the single path for every transfer entry point. It
// rejects all transfers, with no exception for the owner or the admin.
func (ls *LedgerState) guardTransfer(op string, caller string, tokenId uint64) error {
	var err error
	if _, lookupErr := ls.GetCertificate(tokenId); lookupErr != nil {
		err = lookupErr
	} else {
		err = fmt.Errorf("%w: token %d", ErrSoulboundViolation, tokenId)
	}
	ls.config.Logger.Debug(
		"rejected token transfer",
		"caller", caller,
		"token_id", tokenId,
		"error", err,
		"component", "ledger",
	)
	ls.metrics.operationErrors.WithLabelValues(op, errorKind(err)).Inc()
	return err
}
