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
	"encoding/json"
	"time"

	"github.com/blinklabs-io/etched/event"
)

// Notification is an entry of the durable notification log
type Notification struct {
	Timestamp time.Time       `json:"timestamp"`
	Type      event.EventType `json:"type"`
	Data      json.RawMessage `json:"data"`
	Sequence  uint64          `json:"sequence"`
}

// Notifications returns logged notifications with a sequence number greater
// than after, oldest first. Mirrors use it to catch up after downtime.
func (ls *LedgerState) Notifications(after uint64, limit int) ([]Notification, error) {
	if limit <= 0 || limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	records, err := ls.db.GetNotifications(after, limit, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Notification, 0, len(records))
	for _, record := range records {
		ret = append(ret, Notification{
			Sequence:  record.Sequence,
			Type:      event.EventType(record.Type),
			Timestamp: time.UnixMilli(record.Timestamp).UTC(),
			Data:      json.RawMessage(record.Data),
		})
	}
	return ret, nil
}

// LastNotificationSequence returns the sequence number of the newest logged
// notification
func (ls *LedgerState) LastNotificationSequence() (uint64, error) {
	return ls.db.LastNotificationSeq(nil)
}
