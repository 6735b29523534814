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
)

func testRegistrar(debug bool) *Registrar {
	return NewRegistrar(
		Identity{0xa},
		Identity{0xb},
		Identity{0xc},
		Identity{0xd},
		Identity{0xe},
		debug,
	)
}

func testMintConfig(mint Identity) VotingMintConfig {
	return VotingMintConfig{
		Mint:                 mint,
		UnlockedScaledFactor: FactorScale,
		LockupScaledFactor:   FactorScale,
		LockupSaturationSecs: 86_400,
	}
}

func TestConfigureVotingMint(t *testing.T) {
	r := testRegistrar(false)
	mint := Identity{1}
	if err := r.ConfigureVotingMint(0, testMintConfig(mint)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	idx, err := r.VotingMintConfigIndex(mint)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if idx != 0 {
		t.Fatalf("did not get expected mint index: got %d, wanted 0", idx)
	}
	// Reconfiguring the same mint at the same index is allowed
	updated := testMintConfig(mint)
	updated.LockupScaledFactor = 2 * FactorScale
	if err := r.ConfigureVotingMint(0, updated); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	// Rebinding the index to a different mint is rejected
	err = r.ConfigureVotingMint(0, testMintConfig(Identity{2}))
	if !errors.Is(err, ErrVotingMintConfigIndexAlreadyInUse) {
		t.Fatalf("expected ErrVotingMintConfigIndexAlreadyInUse, got %v", err)
	}
	// Configuring the same mint at another index is rejected
	err = r.ConfigureVotingMint(1, testMintConfig(mint))
	if !errors.Is(err, ErrInvalidMint) {
		t.Fatalf("expected ErrInvalidMint, got %v", err)
	}
	// Out of bounds index
	err = r.ConfigureVotingMint(MaxVotingMints, testMintConfig(Identity{3}))
	if !errors.Is(err, ErrOutOfBoundsVotingMintConfigIndex) {
		t.Fatalf("expected ErrOutOfBoundsVotingMintConfigIndex, got %v", err)
	}
	// Zero saturation is rejected
	badCfg := testMintConfig(Identity{3})
	badCfg.LockupSaturationSecs = 0
	if err := r.ConfigureVotingMint(1, badCfg); !errors.Is(err, ErrInvalidLockupSaturation) {
		t.Fatalf("expected ErrInvalidLockupSaturation, got %v", err)
	}
}

func TestVotingMintConfigWeakReference(t *testing.T) {
	r := testRegistrar(false)
	if _, err := r.VotingMintConfig(0); !errors.Is(err, ErrVotingMintNotFound) {
		t.Fatalf("expected ErrVotingMintNotFound, got %v", err)
	}
	if err := r.ConfigureVotingMint(0, testMintConfig(Identity{1})); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	cfg, err := r.VotingMintConfig(0)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cfg.Mint != (Identity{1}) {
		t.Fatalf("did not get expected mint from config lookup")
	}
	if _, err := r.VotingMintConfig(MaxVotingMints); !errors.Is(err, ErrOutOfBoundsVotingMintConfigIndex) {
		t.Fatalf("expected ErrOutOfBoundsVotingMintConfigIndex, got %v", err)
	}
}

func TestSetTimeOffsetGuard(t *testing.T) {
	r := testRegistrar(false)
	if err := r.SetTimeOffset(100); !errors.Is(err, ErrDebugInstruction) {
		t.Fatalf("expected ErrDebugInstruction, got %v", err)
	}
	debugRegistrar := testRegistrar(true)
	if err := debugRegistrar.SetTimeOffset(100); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if debugRegistrar.CurrentTime(1000) != 1100 {
		t.Fatalf(
			"did not get expected offset time: got %d, wanted 1100",
			debugRegistrar.CurrentTime(1000),
		)
	}
}

func TestMaxVoteWeight(t *testing.T) {
	r := testRegistrar(false)
	cfg := testMintConfig(Identity{1})
	cfg.UnlockedScaledFactor = FactorScale
	cfg.LockupScaledFactor = FactorScale / 2
	if err := r.ConfigureVotingMint(0, cfg); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	var supplies [MaxVotingMints]uint64
	supplies[0] = 1_000_000
	weight, err := r.MaxVoteWeight(supplies)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if weight != 1_500_000 {
		t.Fatalf(
			"did not get expected max vote weight: got %d, wanted 1500000",
			weight,
		)
	}
}

func TestRegistrarKeyDeterministic(t *testing.T) {
	r := testRegistrar(false)
	other := testRegistrar(false)
	if r.Key() != other.Key() {
		t.Fatalf("expected identical registrars to derive identical keys")
	}
	other.Realm = Identity{0xff}
	if r.Key() == other.Key() {
		t.Fatalf("expected different realms to derive different keys")
	}
}
