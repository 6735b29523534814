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
	"gorm.io/gorm"
)

// Txn is a combined transaction over the metadata store and the journal.
// Journal appends are buffered and written only on commit, after the
// metadata transaction has committed.
type Txn struct {
	db             *Database
	metadata       *gorm.DB
	journalEntries []JournalEntry
	finished       bool
}

// NewTxn starts a transaction against the given database
func NewTxn(db *Database) *Txn {
	return &Txn{
		db:       db,
		metadata: db.metadata.Begin(),
	}
}

// Metadata returns the metadata store transaction handle
func (t *Txn) Metadata() *gorm.DB {
	return t.metadata
}

// Commit commits the metadata transaction and flushes any buffered
// journal entries
func (t *Txn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if err := t.metadata.Commit().Error; err != nil {
		return err
	}
	for _, entry := range t.journalEntries {
		if err := t.db.journalWrite(entry); err != nil {
			// The metadata commit already happened; surface the journal
			// failure but don't attempt to unwind
			return err
		}
	}
	t.journalEntries = nil
	return nil
}

// Rollback aborts the transaction and discards buffered journal entries
func (t *Txn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	t.journalEntries = nil
	return t.metadata.Rollback().Error
}
