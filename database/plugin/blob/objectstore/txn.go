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

package objectstore

import (
	"errors"
	"slices"
	"sort"
	"strings"

	"github.com/blinklabs-io/etched/database/types"
)

var ErrReadOnlyTxn = errors.New("transaction is read-only")

// Txn is a buffered object store transaction. Flushing is not atomic across
// objects: a failure part way through a commit leaves earlier objects written.
type Txn struct {
	store     *Store
	pending   map[string][]byte
	deleted   map[string]struct{}
	finished  bool
	readWrite bool
}

func (t *Txn) assertWritable() error {
	if !t.readWrite {
		return ErrReadOnlyTxn
	}
	return nil
}

func (t *Txn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if len(t.pending) == 0 && len(t.deleted) == 0 {
		return nil
	}
	return t.store.flush(t)
}

func (t *Txn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	t.pending = nil
	t.deleted = nil
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	ret := make([]string, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// mergeKeys combines listed keys with the transaction's own writes
func mergeKeys(listed []string, t *Txn, prefix []byte) []string {
	p := string(prefix)
	ret := make([]string, 0, len(listed)+len(t.pending))
	for _, k := range listed {
		if _, ok := t.deleted[k]; ok {
			continue
		}
		ret = append(ret, k)
	}
	for k := range t.pending {
		if strings.HasPrefix(k, p) {
			ret = append(ret, k)
		}
	}
	sort.Strings(ret)
	return slices.Compact(ret)
}

type iterator struct {
	txn     *Txn
	keys    []string
	idx     int
	reverse bool
}

func newIterator(t *Txn, keys []string, reverse bool) *iterator {
	if reverse {
		slices.Reverse(keys)
	}
	return &iterator{txn: t, keys: keys, reverse: reverse}
}

func (it *iterator) Rewind() {
	it.idx = 0
}

func (it *iterator) Seek(key []byte) {
	target := string(key)
	it.idx = len(it.keys)
	for i, k := range it.keys {
		if (!it.reverse && k >= target) || (it.reverse && k <= target) {
			it.idx = i
			return
		}
	}
}

func (it *iterator) Valid() bool {
	return it.idx < len(it.keys)
}

func (it *iterator) ValidForPrefix(prefix []byte) bool {
	return it.Valid() && strings.HasPrefix(it.keys[it.idx], string(prefix))
}

func (it *iterator) Next() {
	if it.idx < len(it.keys) {
		it.idx++
	}
}

func (it *iterator) Item() types.BlobItem {
	if !it.Valid() {
		return nil
	}
	return &item{txn: it.txn, key: it.keys[it.idx]}
}

func (it *iterator) Close()     {}
func (it *iterator) Err() error { return nil }

type errorIterator struct {
	err error
}

func (it *errorIterator) Rewind()                      {}
func (it *errorIterator) Seek(key []byte)              {}
func (it *errorIterator) Valid() bool                  { return false }
func (it *errorIterator) ValidForPrefix(p []byte) bool { return false }
func (it *errorIterator) Next()                        {}
func (it *errorIterator) Item() types.BlobItem         { return nil }
func (it *errorIterator) Close()                       {}
func (it *errorIterator) Err() error                   { return it.err }

// item values are fetched lazily through the owning transaction
type item struct {
	txn *Txn
	key string
}

func (i *item) Key() []byte {
	return []byte(i.key)
}

func (i *item) ValueCopy(dst []byte) ([]byte, error) {
	data, err := i.txn.store.Get(i.txn, []byte(i.key))
	if err != nil {
		return nil, err
	}
	return append(dst[:0], data...), nil
}
