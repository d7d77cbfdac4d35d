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

package database

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/etched/database/types"
	"github.com/blinklabs-io/gouroboros/cbor"
)

// LastNotificationSeq returns the sequence number of the newest notification,
// or 0 if the log is empty
func (d *Database) LastNotificationSeq(txn *Txn) (uint64, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	val, err := d.blob.Get(txn.Blob(), []byte(types.NotificationSeqKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("invalid notification sequence value: %x", val)
	}
	return binary.BigEndian.Uint64(val), nil
}

// AppendNotification adds a record to the notification log as part of txn
// and returns its sequence number
func (d *Database) AppendNotification(
	notificationType string,
	timestamp time.Time,
	data []byte,
	txn *Txn,
) (uint64, error) {
	if txn == nil || !txn.ReadWrite() {
		return 0, errors.New("notification append requires a read-write transaction")
	}
	lastSeq, err := d.LastNotificationSeq(txn)
	if err != nil {
		return 0, err
	}
	seq := lastSeq + 1
	record := types.NotificationRecord{
		Sequence:  seq,
		Type:      notificationType,
		Timestamp: timestamp.UnixMilli(),
		Data:      data,
	}
	recordCbor, err := cbor.Encode(&record)
	if err != nil {
		return 0, fmt.Errorf("encode notification: %w", err)
	}
	if err := d.blob.Set(txn.Blob(), types.NotificationKey(seq), recordCbor); err != nil {
		return 0, err
	}
	seqBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBytes, seq)
	if err := d.blob.Set(txn.Blob(), []byte(types.NotificationSeqKey), seqBytes); err != nil {
		return 0, err
	}
	return seq, nil
}

// GetNotifications returns up to limit records with a sequence number greater
// than after, oldest first. A limit of 0 returns all of them.
func (d *Database) GetNotifications(
	after uint64,
	limit int,
	txn *Txn,
) ([]types.NotificationRecord, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	prefix := []byte(types.NotificationKeyPrefix)
	it := d.blob.NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix},
	)
	defer it.Close()
	ret := []types.NotificationRecord{}
	for it.Seek(types.NotificationKey(after + 1)); it.ValidForPrefix(prefix); it.Next() {
		if limit > 0 && len(ret) >= limit {
			break
		}
		item := it.Item()
		if item == nil {
			continue
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var record types.NotificationRecord
		if _, err := cbor.Decode(val, &record); err != nil {
			return nil, fmt.Errorf(
				"decode notification %x: %w",
				item.Key(),
				err,
			)
		}
		ret = append(ret, record)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}
