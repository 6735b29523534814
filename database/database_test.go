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

package database_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/lockup"
	"github.com/blinklabs-io/vestry/registry"
)

func testIdentity(fill byte) registry.Identity {
	var ret registry.Identity
	for i := range ret {
		ret[i] = fill
	}
	return ret
}

func testDb(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(
		&database.Config{
			DataDir: t.TempDir(),
		},
	)
	if err != nil {
		t.Fatalf("unexpected error creating database: %s", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("unexpected error closing database: %s", err)
		}
	})
	return db
}

func testRegistrar(fill byte) *registry.Registrar {
	r := registry.NewRegistrar(
		testIdentity(fill),
		testIdentity(fill+1),
		testIdentity(fill+2),
		testIdentity(fill+3),
		testIdentity(fill+4),
		true,
	)
	r.TimeOffset = 3600
	r.VotingMints[1] = registry.VotingMintConfig{
		Mint:                 testIdentity(fill + 5),
		GrantAuthority:       testIdentity(fill + 6),
		UnlockedScaledFactor: registry.FactorScale,
		LockupScaledFactor:   2 * registry.FactorScale,
		LockupSaturationSecs: 86400,
		DigitShift:           -3,
	}
	return r
}

func TestRegistrarRoundTrip(t *testing.T) {
	db := testDb(t)
	expected := testRegistrar(0x10)
	if err := db.SetRegistrar(expected, nil); err != nil {
		t.Fatalf("unexpected error storing registrar: %s", err)
	}
	actual, err := db.GetRegistrar(expected.Key(), nil)
	if err != nil {
		t.Fatalf("unexpected error retrieving registrar: %s", err)
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Fatalf(
			"did not get expected registrar\n  got:    %#v\n  wanted: %#v",
			actual,
			expected,
		)
	}
}

func TestRegistrarUpdate(t *testing.T) {
	db := testDb(t)
	r := testRegistrar(0x20)
	if err := db.SetRegistrar(r, nil); err != nil {
		t.Fatalf("unexpected error storing registrar: %s", err)
	}
	r.TimeOffset = 7200
	r.VotingMints[1].LockupSaturationSecs = 172800
	if err := db.SetRegistrar(r, nil); err != nil {
		t.Fatalf("unexpected error updating registrar: %s", err)
	}
	actual, err := db.GetRegistrar(r.Key(), nil)
	if err != nil {
		t.Fatalf("unexpected error retrieving registrar: %s", err)
	}
	if actual.TimeOffset != 7200 {
		t.Fatalf(
			"did not get expected time offset: got %d, wanted %d",
			actual.TimeOffset,
			7200,
		)
	}
	if actual.VotingMints[1].LockupSaturationSecs != 172800 {
		t.Fatalf(
			"did not get expected saturation: got %d, wanted %d",
			actual.VotingMints[1].LockupSaturationSecs,
			172800,
		)
	}
}

func TestRegistrarNotFound(t *testing.T) {
	db := testDb(t)
	_, err := db.GetRegistrar(testIdentity(0xff), nil)
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("did not get expected error: got %v, wanted %v", err, database.ErrNotFound)
	}
}

func TestVoterRoundTrip(t *testing.T) {
	db := testDb(t)
	r := testRegistrar(0x30)
	expected := registry.NewVoter(r.Key(), testIdentity(0x42))
	expected.LastDepositSlot = 99
	expected.Deposits[3] = registry.DepositEntry{
		Lockup: lockup.Lockup{
			StartTs: 1000,
			EndTs:   1000 + 10*lockup.SecsPerDay,
			Kind:    lockup.KindDaily,
		},
		AmountDepositedNative:       10000,
		AmountInitiallyLockedNative: 10000,
		IsUsed:                      true,
		AllowClawback:               true,
		VotingMintConfigIdx:         1,
	}
	if err := db.SetVoter(expected, nil); err != nil {
		t.Fatalf("unexpected error storing voter: %s", err)
	}
	actual, err := db.GetVoter(expected.Key(), nil)
	if err != nil {
		t.Fatalf("unexpected error retrieving voter: %s", err)
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Fatalf(
			"did not get expected voter\n  got:    %#v\n  wanted: %#v",
			actual,
			expected,
		)
	}
}

func TestVoterDelete(t *testing.T) {
	db := testDb(t)
	r := testRegistrar(0x40)
	v := registry.NewVoter(r.Key(), testIdentity(0x43))
	if err := db.SetVoter(v, nil); err != nil {
		t.Fatalf("unexpected error storing voter: %s", err)
	}
	if err := db.DeleteVoter(v.Key(), nil); err != nil {
		t.Fatalf("unexpected error deleting voter: %s", err)
	}
	_, err := db.GetVoter(v.Key(), nil)
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("did not get expected error: got %v, wanted %v", err, database.ErrNotFound)
	}
}

func TestListVoters(t *testing.T) {
	db := testDb(t)
	r := testRegistrar(0x50)
	other := testRegistrar(0x60)
	for _, fill := range []byte{0x44, 0x45, 0x46} {
		v := registry.NewVoter(r.Key(), testIdentity(fill))
		if err := db.SetVoter(v, nil); err != nil {
			t.Fatalf("unexpected error storing voter: %s", err)
		}
	}
	otherVoter := registry.NewVoter(other.Key(), testIdentity(0x47))
	if err := db.SetVoter(otherVoter, nil); err != nil {
		t.Fatalf("unexpected error storing voter: %s", err)
	}
	voters, err := db.ListVoters(r.Key(), nil)
	if err != nil {
		t.Fatalf("unexpected error listing voters: %s", err)
	}
	if len(voters) != 3 {
		t.Fatalf("did not get expected voter count: got %d, wanted %d", len(voters), 3)
	}
}

func TestTxnRollback(t *testing.T) {
	db := testDb(t)
	r := testRegistrar(0x70)
	txn := db.Transaction()
	if err := db.SetRegistrar(r, txn); err != nil {
		t.Fatalf("unexpected error storing registrar: %s", err)
	}
	if err := txn.Rollback(); err != nil {
		t.Fatalf("unexpected error rolling back: %s", err)
	}
	_, err := db.GetRegistrar(r.Key(), nil)
	if !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("did not get expected error: got %v, wanted %v", err, database.ErrNotFound)
	}
}

func TestTxnCommitWithJournal(t *testing.T) {
	db := testDb(t)
	r := testRegistrar(0x80)
	txn := db.Transaction()
	if err := db.SetRegistrar(r, txn); err != nil {
		t.Fatalf("unexpected error storing registrar: %s", err)
	}
	err := db.JournalAppend(
		database.JournalEntry{
			Op:        "create_registrar",
			Registrar: r.Key().String(),
		},
		txn,
	)
	if err != nil {
		t.Fatalf("unexpected error appending journal entry: %s", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("unexpected error committing: %s", err)
	}
	if _, err := db.GetRegistrar(r.Key(), nil); err != nil {
		t.Fatalf("unexpected error retrieving registrar: %s", err)
	}
	entries, err := db.JournalEntries(0, 0)
	if err != nil {
		t.Fatalf("unexpected error reading journal: %s", err)
	}
	if len(entries) != 1 {
		t.Fatalf("did not get expected journal length: got %d, wanted %d", len(entries), 1)
	}
	if entries[0].Op != "create_registrar" {
		t.Fatalf(
			"did not get expected journal op: got %q, wanted %q",
			entries[0].Op,
			"create_registrar",
		)
	}
}

func TestJournalSequenceAndRange(t *testing.T) {
	db := testDb(t)
	for _, op := range []string{"deposit", "withdraw", "grant"} {
		if err := db.JournalAppend(database.JournalEntry{Op: op}, nil); err != nil {
			t.Fatalf("unexpected error appending journal entry: %s", err)
		}
	}
	entries, err := db.JournalEntries(1, 1)
	if err != nil {
		t.Fatalf("unexpected error reading journal: %s", err)
	}
	if len(entries) != 1 {
		t.Fatalf("did not get expected journal length: got %d, wanted %d", len(entries), 1)
	}
	if entries[0].Seq != 1 || entries[0].Op != "withdraw" {
		t.Fatalf(
			"did not get expected journal entry: got seq %d op %q",
			entries[0].Seq,
			entries[0].Op,
		)
	}
}
