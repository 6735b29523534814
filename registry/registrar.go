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

import "fmt"

// MaxVotingMints is the fixed capacity of a registrar's mint table
const MaxVotingMints = 4

// maxDigitShift bounds the power-of-ten normalization so it stays
// representable in 64 bits
const maxDigitShift = 19

// Registrar is the voting configuration for one (realm, governing token
// mint) pair. It owns the voting mint config table and exists once per
// realm.
type Registrar struct {
	// GovernanceProgram identifies the external governance module this
	// registrar serves
	GovernanceProgram Identity `json:"governanceProgram"`
	// Realm is the governance realm
	Realm Identity `json:"realm"`
	// GoverningTokenMint is the realm's governing token
	GoverningTokenMint Identity `json:"governingTokenMint"`
	// RealmAuthority may configure mints and push grants
	RealmAuthority Identity `json:"realmAuthority"`
	// ClawbackAuthority may reclaim unvested funds from entries created
	// with clawback enabled
	ClawbackAuthority Identity `json:"clawbackAuthority"`
	// VotingMints is the fixed-capacity table of per-mint configs
	VotingMints [MaxVotingMints]VotingMintConfig `json:"votingMints"`
	// TimeOffset shifts the clock for debug registrars
	TimeOffset int64 `json:"timeOffset"`
	// Debug permits SetTimeOffset. Only set when the registrar was
	// created against a designated non-production governance identity.
	Debug bool `json:"debug"`
}

// NewRegistrar creates a registrar for a (realm, governing token mint)
// pair
func NewRegistrar(
	governanceProgram Identity,
	realm Identity,
	governingTokenMint Identity,
	realmAuthority Identity,
	clawbackAuthority Identity,
	debug bool,
) *Registrar {
	return &Registrar{
		GovernanceProgram:  governanceProgram,
		Realm:              realm,
		GoverningTokenMint: governingTokenMint,
		RealmAuthority:     realmAuthority,
		ClawbackAuthority:  clawbackAuthority,
		Debug:              debug,
	}
}

// Key returns the derived record address for this registrar
func (r *Registrar) Key() Identity {
	return RegistrarKey(r.GovernanceProgram, r.Realm, r.GoverningTokenMint)
}

// ConfigureVotingMint binds a mint config to a table index. An index can
// be reconfigured, but never rebound to a different mint.
func (r *Registrar) ConfigureVotingMint(
	idx uint8,
	cfg VotingMintConfig,
) error {
	if int(idx) >= len(r.VotingMints) {
		return ErrOutOfBoundsVotingMintConfigIndex
	}
	if cfg.Mint.IsZero() {
		return fmt.Errorf("%w: mint identity not set", ErrInvalidMint)
	}
	if cfg.LockupSaturationSecs == 0 {
		return ErrInvalidLockupSaturation
	}
	if cfg.DigitShift > maxDigitShift || cfg.DigitShift < -maxDigitShift {
		return fmt.Errorf(
			"%w: digit shift %d out of range",
			ErrInvalidMint,
			cfg.DigitShift,
		)
	}
	existing := r.VotingMints[idx]
	if existing.InUse() && existing.Mint != cfg.Mint {
		return ErrVotingMintConfigIndexAlreadyInUse
	}
	for otherIdx, other := range r.VotingMints {
		if otherIdx == int(idx) {
			continue
		}
		if other.InUse() && other.Mint == cfg.Mint {
			return fmt.Errorf(
				"%w: mint already configured at index %d",
				ErrInvalidMint,
				otherIdx,
			)
		}
	}
	r.VotingMints[idx] = cfg
	return nil
}

// VotingMintConfigIndex returns the table index configured for a mint
func (r *Registrar) VotingMintConfigIndex(mint Identity) (uint8, error) {
	for idx, cfg := range r.VotingMints {
		if cfg.InUse() && cfg.Mint == mint {
			return uint8(idx), nil // #nosec G115
		}
	}
	return 0, ErrVotingMintNotFound
}

// VotingMintConfig resolves a deposit entry's weak mint reference,
// re-validating that the slot is still in use
func (r *Registrar) VotingMintConfig(idx uint8) (*VotingMintConfig, error) {
	if int(idx) >= len(r.VotingMints) {
		return nil, ErrOutOfBoundsVotingMintConfigIndex
	}
	cfg := &r.VotingMints[idx]
	if !cfg.InUse() {
		return nil, ErrVotingMintNotFound
	}
	return cfg, nil
}

// CurrentTime applies the registrar's debug offset to an externally
// supplied timestamp. Callers capture the result once per operation.
func (r *Registrar) CurrentTime(now int64) int64 {
	return now + r.TimeOffset
}

// SetTimeOffset shifts the registrar clock for tests. Refused unless the
// registrar was created in debug mode.
func (r *Registrar) SetTimeOffset(offset int64) error {
	if !r.Debug {
		return ErrDebugInstruction
	}
	r.TimeOffset = offset
	return nil
}

// MaxVoteWeight returns the largest possible vote weight over all
// configured mints, given each mint's total supply indexed by config
// slot.
func (r *Registrar) MaxVoteWeight(
	supplies [MaxVotingMints]uint64,
) (uint64, error) {
	var sum uint64
	for idx, cfg := range r.VotingMints {
		if !cfg.InUse() {
			continue
		}
		unlocked, err := cfg.UnlockedVoteWeight(supplies[idx])
		if err != nil {
			return 0, err
		}
		locked, err := cfg.MaxLockupVoteWeight(supplies[idx])
		if err != nil {
			return 0, err
		}
		sum, err = checkedAdd(sum, unlocked)
		if err != nil {
			return 0, err
		}
		sum, err = checkedAdd(sum, locked)
		if err != nil {
			return 0, err
		}
	}
	return sum, nil
}
