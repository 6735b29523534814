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

package engine

import (
	"github.com/blinklabs-io/vestry/registry"
)

// DepositInfo is a read-only projection of one used deposit entry
type DepositInfo struct {
	EntryIdx              uint8             `json:"entryIdx"`
	Mint                  registry.Identity `json:"mint"`
	LockupKind            string            `json:"lockupKind"`
	LockupStartTs         int64             `json:"lockupStartTs"`
	LockupEndTs           int64             `json:"lockupEndTs"`
	AllowClawback         bool              `json:"allowClawback"`
	AmountDeposited       uint64            `json:"amountDeposited"`
	AmountInitiallyLocked uint64            `json:"amountInitiallyLocked"`
	Vested                uint64            `json:"vested"`
	Locked                uint64            `json:"locked"`
	Withdrawable          uint64            `json:"withdrawable"`
	VotingPower           uint64            `json:"votingPower"`
}

// VoterInfo is a read-only snapshot of a voter record with vesting
// projections for every used deposit entry
type VoterInfo struct {
	Voter          registry.Identity `json:"voter"`
	VoterAuthority registry.Identity `json:"voterAuthority"`
	Registrar      registry.Identity `json:"registrar"`
	CurrentTime    int64             `json:"currentTime"`
	Weight         uint64            `json:"weight"`
	BaselineWeight uint64            `json:"baselineWeight"`
	Deposits       []DepositInfo     `json:"deposits"`
}

// VoterInfo returns a snapshot of a voter's deposits, amounts, and
// voting power at the current time
func (e *Engine) VoterInfo(
	registrarKey registry.Identity,
	voterAuthority registry.Identity,
) (*VoterInfo, error) {
	r, err := e.db.GetRegistrar(registrarKey, nil)
	if err != nil {
		return nil, err
	}
	now := r.CurrentTime(e.clock.UnixTime())
	v, err := e.db.GetVoter(
		registry.VoterKey(registrarKey, voterAuthority),
		nil,
	)
	if err != nil {
		return nil, err
	}
	weight, err := v.Weight(r, now)
	if err != nil {
		return nil, err
	}
	baseline, err := v.BaselineWeight(r)
	if err != nil {
		return nil, err
	}
	info := &VoterInfo{
		Voter:          v.Key(),
		VoterAuthority: v.VoterAuthority,
		Registrar:      v.Registrar,
		CurrentTime:    now,
		Weight:         weight,
		BaselineWeight: baseline,
		Deposits:       []DepositInfo{},
	}
	for idx := range v.Deposits {
		entry := &v.Deposits[idx]
		if !entry.IsUsed {
			continue
		}
		cfg, err := r.VotingMintConfig(entry.VotingMintConfigIdx)
		if err != nil {
			return nil, err
		}
		vested, err := entry.Vested(now)
		if err != nil {
			return nil, err
		}
		locked, err := entry.AmountLocked(now)
		if err != nil {
			return nil, err
		}
		withdrawable, err := entry.AmountWithdrawable(now)
		if err != nil {
			return nil, err
		}
		power, err := entry.VotingPower(cfg, now)
		if err != nil {
			return nil, err
		}
		info.Deposits = append(info.Deposits, DepositInfo{
			EntryIdx:              uint8(idx), // #nosec G115
			Mint:                  cfg.Mint,
			LockupKind:            entry.Lockup.Kind.String(),
			LockupStartTs:         entry.Lockup.StartTs,
			LockupEndTs:           entry.Lockup.EndTs,
			AllowClawback:         entry.AllowClawback,
			AmountDeposited:       entry.AmountDepositedNative,
			AmountInitiallyLocked: entry.AmountInitiallyLockedNative,
			Vested:                vested,
			Locked:                locked,
			Withdrawable:          withdrawable,
			VotingPower:           power,
		})
	}
	return info, nil
}
