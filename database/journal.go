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
	"encoding/json"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

const journalKeyPrefix = "journal/"

// JournalEntry is one committed operation in the append-only journal
type JournalEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Op        string    `json:"op"`
	Registrar string    `json:"registrar,omitempty"`
	Voter     string    `json:"voter,omitempty"`
	EntryIdx  int       `json:"entryIdx"`
	Amount    uint64    `json:"amount"`
	Slot      uint64    `json:"slot"`
	Seq       uint64    `json:"seq"`
}

func journalKey(seq uint64) []byte {
	key := make([]byte, len(journalKeyPrefix)+8)
	copy(key, journalKeyPrefix)
	binary.BigEndian.PutUint64(key[len(journalKeyPrefix):], seq)
	return key
}

// JournalAppend buffers a journal entry for write at transaction commit.
// With a nil transaction the entry is written immediately.
func (d *Database) JournalAppend(entry JournalEntry, txn *Txn) error {
	if txn == nil {
		return d.journalWrite(entry)
	}
	txn.journalEntries = append(txn.journalEntries, entry)
	return nil
}

func (d *Database) journalWrite(entry JournalEntry) error {
	return d.journal.Update(func(txn *badger.Txn) error {
		seq, err := d.journalNextSeq(txn)
		if err != nil {
			return err
		}
		entry.Seq = seq
		data, err := json.Marshal(&entry)
		if err != nil {
			return err
		}
		return txn.Set(journalKey(seq), data)
	})
}

// journalNextSeq determines the next sequence number by looking at the
// last journal key
func (d *Database) journalNextSeq(txn *badger.Txn) (uint64, error) {
	iterOpts := badger.DefaultIteratorOptions
	iterOpts.Reverse = true
	iterOpts.PrefetchValues = false
	iterOpts.Prefix = []byte(journalKeyPrefix)
	iter := txn.NewIterator(iterOpts)
	defer iter.Close()
	// Seek to the last possible journal key
	iter.Seek(journalKey(^uint64(0)))
	if !iter.ValidForPrefix([]byte(journalKeyPrefix)) {
		return 0, nil
	}
	key := iter.Item().Key()
	if len(key) != len(journalKeyPrefix)+8 {
		return 0, errors.New("malformed journal key")
	}
	lastSeq := binary.BigEndian.Uint64(key[len(journalKeyPrefix):])
	return lastSeq + 1, nil
}

// JournalEntries returns up to limit journal entries starting at startSeq
func (d *Database) JournalEntries(
	startSeq uint64,
	limit int,
) ([]JournalEntry, error) {
	var ret []JournalEntry
	err := d.journal.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(journalKeyPrefix)
		iter := txn.NewIterator(iterOpts)
		defer iter.Close()
		for iter.Seek(journalKey(startSeq)); iter.ValidForPrefix([]byte(journalKeyPrefix)); iter.Next() {
			if limit > 0 && len(ret) >= limit {
				break
			}
			var entry JournalEntry
			err := iter.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}
			ret = append(ret, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
