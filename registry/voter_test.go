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

package registry

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/vestry/lockup"
)

func TestVoterWeight(t *testing.T) {
	r := testRegistrar(false)
	if err := r.ConfigureVotingMint(0, testMintConfig(Identity{1})); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	v := NewVoter(r.Key(), Identity{0x42})
	// Unlocked deposit contributes its deposited balance
	v.Deposits[0] = DepositEntry{
		IsUsed:                true,
		AmountDepositedNative: 1_000,
	}
	// Cliff deposit at start with saturation equal to the lockup length
	// contributes deposited + full locked bonus
	cliffLockup, err := lockup.NewFromPeriods(lockup.KindCliff, testStartTs, 1)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	v.Deposits[3] = DepositEntry{
		IsUsed:                      true,
		AmountDepositedNative:       2_000,
		AmountInitiallyLockedNative: 2_000,
		Lockup:                      cliffLockup,
	}
	weight, err := v.Weight(r, testStartTs)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if weight != 1_000+2_000+2_000 {
		t.Fatalf("did not get expected weight: got %d, wanted 5000", weight)
	}
	baseline, err := v.BaselineWeight(r)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if baseline != 3_000 {
		t.Fatalf(
			"did not get expected baseline weight: got %d, wanted 3000",
			baseline,
		)
	}
	// After expiry the lockup bonus is gone
	weight, err = v.Weight(r, cliffLockup.EndTs)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if weight != 3_000 {
		t.Fatalf(
			"did not get expected weight after expiry: got %d, wanted 3000",
			weight,
		)
	}
}

func TestVoterWeightStaleMintReference(t *testing.T) {
	// A deposit entry pointing at an unused config slot must surface an
	// error rather than silently counting as zero
	r := testRegistrar(false)
	v := NewVoter(r.Key(), Identity{0x42})
	v.Deposits[0] = DepositEntry{
		IsUsed:                true,
		AmountDepositedNative: 1_000,
		VotingMintConfigIdx:   2,
	}
	if _, err := v.Weight(r, testStartTs); !errors.Is(err, ErrVotingMintNotFound) {
		t.Fatalf("expected ErrVotingMintNotFound, got %v", err)
	}
}

func TestActiveDeposit(t *testing.T) {
	v := NewVoter(Identity{1}, Identity{2})
	if _, err := v.ActiveDeposit(0); !errors.Is(err, ErrUnusedDepositEntryIndex) {
		t.Fatalf("expected ErrUnusedDepositEntryIndex, got %v", err)
	}
	if _, err := v.ActiveDeposit(MaxDeposits); !errors.Is(err, ErrOutOfBoundsDepositEntryIndex) {
		t.Fatalf("expected ErrOutOfBoundsDepositEntryIndex, got %v", err)
	}
	v.Deposits[5].IsUsed = true
	d, err := v.ActiveDeposit(5)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if d != &v.Deposits[5] {
		t.Fatalf("did not get expected deposit entry pointer")
	}
}

func TestFirstFreeDeposit(t *testing.T) {
	v := NewVoter(Identity{1}, Identity{2})
	idx, _, err := v.FirstFreeDeposit()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if idx != 0 {
		t.Fatalf("did not get expected free index: got %d, wanted 0", idx)
	}
	for i := range v.Deposits {
		v.Deposits[i].IsUsed = true
	}
	v.Deposits[7].IsUsed = false
	idx, _, err = v.FirstFreeDeposit()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if idx != 7 {
		t.Fatalf("did not get expected free index: got %d, wanted 7", idx)
	}
	v.Deposits[7].IsUsed = true
	if _, _, err := v.FirstFreeDeposit(); !errors.Is(err, ErrDepositEntryFull) {
		t.Fatalf("expected ErrDepositEntryFull, got %v", err)
	}
}

func TestVoterEmpty(t *testing.T) {
	v := NewVoter(Identity{1}, Identity{2})
	if !v.Empty() {
		t.Fatalf("expected new voter to be empty")
	}
	v.Deposits[3].AmountDepositedNative = 1
	if v.Empty() {
		t.Fatalf("expected voter with balance to be non-empty")
	}
}

func TestIdentityBech32RoundTrip(t *testing.T) {
	id := Identity{0xde, 0xad, 0xbe, 0xef}
	encoded := id.String()
	if encoded == "" {
		t.Fatalf("unexpected empty identity encoding")
	}
	decoded, err := NewIdentityFromBech32(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if decoded != id {
		t.Fatalf("identity did not round trip: got %s", decoded)
	}
	if _, err := NewIdentityFromBech32("vst1notvalid"); !errors.Is(err, ErrInvalidIdentity) {
		t.Fatalf("expected ErrInvalidIdentity, got %v", err)
	}
}
