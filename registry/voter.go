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

// MaxDeposits is the fixed capacity of a voter's deposit entry table
const MaxDeposits = 32

// Voter is the per-holder record: a fixed-capacity table of deposit
// entries plus a back-reference to its registrar. It exists once per
// (registrar, owning authority) pair.
type Voter struct {
	// VoterAuthority is the identity controlling this voter record
	VoterAuthority Identity `json:"voterAuthority"`
	// Registrar is the derived address of the owning registrar
	Registrar Identity `json:"registrar"`
	// Deposits is the entry table; closed entries are reused
	Deposits [MaxDeposits]DepositEntry `json:"deposits"`
	// LastDepositSlot is the external sequence counter value of the most
	// recent deposit, used to forbid same-slot deposit-then-withdraw
	LastDepositSlot uint64 `json:"lastDepositSlot"`
}

// NewVoter creates an empty voter record
func NewVoter(registrar, voterAuthority Identity) *Voter {
	return &Voter{
		VoterAuthority: voterAuthority,
		Registrar:      registrar,
	}
}

// Key returns the derived record address for this voter
func (v *Voter) Key() Identity {
	return VoterKey(v.Registrar, v.VoterAuthority)
}

// ActiveDeposit returns the deposit entry at idx, requiring it to be in
// use
func (v *Voter) ActiveDeposit(idx uint8) (*DepositEntry, error) {
	if int(idx) >= len(v.Deposits) {
		return nil, ErrOutOfBoundsDepositEntryIndex
	}
	d := &v.Deposits[idx]
	if !d.IsUsed {
		return nil, ErrUnusedDepositEntryIndex
	}
	return d, nil
}

// FirstFreeDeposit returns the first unused entry slot
func (v *Voter) FirstFreeDeposit() (uint8, *DepositEntry, error) {
	for idx := range v.Deposits {
		if !v.Deposits[idx].IsUsed {
			return uint8(idx), &v.Deposits[idx], nil // #nosec G115
		}
	}
	return 0, nil, ErrDepositEntryFull
}

// Weight returns the voter's total vote weight at currTs, summing the
// voting power of every used deposit entry. Each entry's mint reference
// is re-validated against the registrar's current config table.
func (v *Voter) Weight(r *Registrar, currTs int64) (uint64, error) {
	var sum uint64
	for idx := range v.Deposits {
		d := &v.Deposits[idx]
		if !d.IsUsed {
			continue
		}
		cfg, err := r.VotingMintConfig(d.VotingMintConfigIdx)
		if err != nil {
			return 0, err
		}
		power, err := d.VotingPower(cfg, currTs)
		if err != nil {
			return 0, err
		}
		sum, err = checkedAdd(sum, power)
		if err != nil {
			return 0, err
		}
	}
	return sum, nil
}

// BaselineWeight returns the voter's vote weight ignoring all lockup
// bonuses, counting only the unlocked weight of deposited balances
func (v *Voter) BaselineWeight(r *Registrar) (uint64, error) {
	var sum uint64
	for idx := range v.Deposits {
		d := &v.Deposits[idx]
		if !d.IsUsed {
			continue
		}
		cfg, err := r.VotingMintConfig(d.VotingMintConfigIdx)
		if err != nil {
			return 0, err
		}
		weight, err := cfg.UnlockedVoteWeight(d.AmountDepositedNative)
		if err != nil {
			return 0, err
		}
		sum, err = checkedAdd(sum, weight)
		if err != nil {
			return 0, err
		}
	}
	return sum, nil
}

// Empty returns whether every deposit entry holds a zero balance
func (v *Voter) Empty() bool {
	for idx := range v.Deposits {
		if v.Deposits[idx].AmountDepositedNative != 0 {
			return false
		}
	}
	return true
}
