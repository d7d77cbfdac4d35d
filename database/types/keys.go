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

package types

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	NotificationKeyPrefix  = "ntf"
	NotificationSeqKey     = "notification_seq"
	DocumentKeyPrefix      = "doc_"
	CommitTimestampBlobKey = "metadata_commit_timestamp"
)

// notificationSeqWidth is the number of decimal digits in a max uint64
const notificationSeqWidth = 20

// NotificationKey returns the blob key for the notification with the given
// sequence number. The sequence is zero padded so keys sort in sequence
// order and remain valid object names for remote stores.
func NotificationKey(seq uint64) []byte {
	return fmt.Appendf(
		nil,
		"%s%0*d",
		NotificationKeyPrefix,
		notificationSeqWidth,
		seq,
	)
}

// NotificationSeqFromKey extracts the sequence number from a notification key
func NotificationSeqFromKey(key []byte) (uint64, error) {
	if len(key) != len(NotificationKeyPrefix)+notificationSeqWidth ||
		string(key[:len(NotificationKeyPrefix)]) != NotificationKeyPrefix {
		return 0, errors.New("not a notification key")
	}
	return strconv.ParseUint(string(key[len(NotificationKeyPrefix):]), 10, 64)
}

// DocumentKey returns the blob key for a metadata document
func DocumentKey(id string) []byte {
	return []byte(DocumentKeyPrefix + id)
}
