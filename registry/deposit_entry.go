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
	"math/bits"

	"github.com/blinklabs-io/vestry/lockup"
)

// DepositEntry is the bookkeeping for a single deposit of one mint under
// one lockup schedule.
type DepositEntry struct {
	// Lockup is the vesting schedule for the locked portion
	Lockup lockup.Lockup `json:"lockup"`
	// AmountDepositedNative is the current custody-backed balance, in
	// native units. Withdrawals reduce this directly.
	AmountDepositedNative uint64 `json:"amountDepositedNative"`
	// AmountInitiallyLockedNative is the principal subject to vesting
	// decay. It is not adjusted for withdrawals, so it can exceed
	// AmountDepositedNative after some vesting and withdrawals.
	AmountInitiallyLockedNative uint64 `json:"amountInitiallyLockedNative"`
	// IsUsed marks the entry slot as allocated
	IsUsed bool `json:"isUsed"`
	// AllowClawback permits the clawback authority to reclaim unvested
	// funds from this entry
	AllowClawback bool `json:"allowClawback"`
	// VotingMintConfigIdx is a weak reference into the registrar's mint
	// table and must be re-validated on every use
	VotingMintConfigIdx uint8 `json:"votingMintConfigIdx"`
}

// VotingPower returns the current vote weight of the deposit: the
// unlocked weight of the full deposited balance, plus the decaying
// lockup bonus on the initially locked principal.
func (d *DepositEntry) VotingPower(
	cfg *VotingMintConfig,
	currTs int64,
) (uint64, error) {
	fixed, err := cfg.UnlockedVoteWeight(d.AmountDepositedNative)
	if err != nil {
		return 0, err
	}
	if cfg.LockupScaledFactor == 0 {
		return fixed, nil
	}
	lockedBase, err := cfg.MaxLockupVoteWeight(d.AmountInitiallyLockedNative)
	if err != nil {
		return 0, err
	}
	locked, err := d.VotingPowerLocked(
		currTs,
		lockedBase,
		cfg.LockupSaturationSecs,
	)
	if err != nil {
		return 0, err
	}
	return checkedAdd(fixed, locked)
}

// VotingPowerLocked returns the vote weight contribution from locked
// funds only, given the maximum possible contribution at full saturation.
func (d *DepositEntry) VotingPowerLocked(
	currTs int64,
	maxContribution uint64,
	saturationSecs uint64,
) (uint64, error) {
	if saturationSecs == 0 {
		return 0, ErrInvalidLockupSaturation
	}
	if d.Lockup.Expired(currTs) {
		return 0, nil
	}
	switch d.Lockup.Kind {
	case lockup.KindNone:
		return 0, nil
	case lockup.KindDaily, lockup.KindMonthly:
		return d.votingPowerLinearVesting(currTs, maxContribution, saturationSecs)
	case lockup.KindCliff, lockup.KindConstant:
		return d.votingPowerCliff(currTs, maxContribution, saturationSecs)
	default:
		return 0, lockup.ErrInvalidLockupKind
	}
}

// votingPowerCliff decays linearly with the seconds remaining, clamped
// at the saturation window so lockups longer than the window never
// exceed the full weight.
func (d *DepositEntry) votingPowerCliff(
	currTs int64,
	maxContribution uint64,
	saturationSecs uint64,
) (uint64, error) {
	secsLeft := uint64(d.Lockup.SecondsLeft(currTs)) // #nosec G115
	if secsLeft > saturationSecs {
		secsLeft = saturationSecs
	}
	return mulDiv(maxContribution, secsLeft, saturationSecs)
}

// votingPowerLinearVesting treats the schedule as periodsTotal
// independent cliff-locked sub-deposits of maxContribution/periodsTotal
// each and sums their remaining-seconds-weighted contributions. The sum
// over the not-yet-vested periods reduces to a closed form, with periods
// whose remaining time exceeds the saturation window contributing the
// full per-period weight.
func (d *DepositEntry) votingPowerLinearVesting(
	currTs int64,
	maxContribution uint64,
	saturationSecs uint64,
) (uint64, error) {
	periodsLeft, err := d.Lockup.PeriodsLeft(currTs)
	if err != nil {
		return 0, err
	}
	periodsTotal, err := d.Lockup.PeriodsTotal()
	if err != nil {
		return 0, err
	}
	if periodsLeft == 0 || periodsTotal == 0 {
		return 0, nil
	}
	periodSecs := uint64(d.Lockup.Kind.PeriodSecs()) // #nosec G115
	secsLeft := uint64(d.Lockup.SecondsLeft(currTs)) // #nosec G115
	// Seconds until the nearest future period boundary
	secsToNext := secsLeft - (periodsLeft-1)*periodSecs
	// Count the periods whose remaining time stays below the saturation
	// window; the rest contribute the full per-period weight
	var unsaturated uint64
	if saturationSecs > secsToNext {
		unsaturated = min(
			periodsLeft,
			(saturationSecs-secsToNext+periodSecs-1)/periodSecs,
		)
	}
	lockedSecs, err := checkedMul(unsaturated, secsToNext)
	if err != nil {
		return 0, err
	}
	if unsaturated > 0 {
		rampSecs, err := checkedMul(periodSecs, unsaturated*(unsaturated-1)/2)
		if err != nil {
			return 0, err
		}
		lockedSecs, err = checkedAdd(lockedSecs, rampSecs)
		if err != nil {
			return 0, err
		}
	}
	saturatedSecs, err := checkedMul(periodsLeft-unsaturated, saturationSecs)
	if err != nil {
		return 0, err
	}
	lockedSecs, err = checkedAdd(lockedSecs, saturatedSecs)
	if err != nil {
		return 0, err
	}
	denom, err := checkedMul(saturationSecs, periodsTotal)
	if err != nil {
		return 0, err
	}
	return mulDiv(maxContribution, lockedSecs, denom)
}

// Vested returns the amount of the initially locked principal that has
// vested by currTs, in native units. Constant lockups never vest on
// their own; they must be converted to another kind first.
func (d *DepositEntry) Vested(currTs int64) (uint64, error) {
	if d.Lockup.Kind == lockup.KindConstant {
		return 0, nil
	}
	if currTs < d.Lockup.StartTs {
		return 0, nil
	}
	if currTs >= d.Lockup.EndTs {
		return d.AmountInitiallyLockedNative, nil
	}
	switch d.Lockup.Kind {
	case lockup.KindNone:
		return d.AmountInitiallyLockedNative, nil
	case lockup.KindCliff:
		return 0, nil
	case lockup.KindDaily, lockup.KindMonthly:
		return d.vestedLinearly(currTs)
	default:
		return 0, lockup.ErrInvalidLockupKind
	}
}

func (d *DepositEntry) vestedLinearly(currTs int64) (uint64, error) {
	periodCurrent, err := d.Lockup.PeriodCurrent(currTs)
	if err != nil {
		return 0, err
	}
	periodsTotal, err := d.Lockup.PeriodsTotal()
	if err != nil {
		return 0, err
	}
	if periodCurrent >= periodsTotal {
		return d.AmountInitiallyLockedNative, nil
	}
	return mulDiv(
		d.AmountInitiallyLockedNative,
		periodCurrent,
		periodsTotal,
	)
}

// AmountLocked returns the native tokens still locked at currTs
func (d *DepositEntry) AmountLocked(currTs int64) (uint64, error) {
	vested, err := d.Vested(currTs)
	if err != nil {
		return 0, err
	}
	return checkedSub(d.AmountInitiallyLockedNative, vested)
}

// AmountWithdrawable returns the amount that may be withdrawn at currTs
// given current vesting and previous withdrawals
func (d *DepositEntry) AmountWithdrawable(currTs int64) (uint64, error) {
	locked, err := d.AmountLocked(currTs)
	if err != nil {
		return 0, err
	}
	return checkedSub(d.AmountDepositedNative, locked)
}

// ResolveVesting finalizes the already-elapsed portion of an in-flight
// vesting schedule: the vested part of the principal is released and the
// schedule start moves to the most recent period boundary. Funds added
// afterwards vest uniformly over the remaining periods without
// accelerating or diluting the old principal.
func (d *DepositEntry) ResolveVesting(currTs int64) error {
	vested, err := d.Vested(currTs)
	if err != nil {
		return err
	}
	remaining, err := checkedSub(d.AmountInitiallyLockedNative, vested)
	if err != nil {
		return err
	}
	periodCurrent, err := d.Lockup.PeriodCurrent(currTs)
	if err != nil {
		return err
	}
	d.AmountInitiallyLockedNative = remaining
	d.Lockup.StartTs += int64(periodCurrent) * d.Lockup.Kind.PeriodSecs() // #nosec G115
	return nil
}

// mulDiv computes a * b / div using a 128-bit intermediate product
func mulDiv(a, b, div uint64) (uint64, error) {
	if div == 0 {
		return 0, ErrOverflow
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= div {
		return 0, ErrOverflow
	}
	quo, _ := bits.Div64(hi, lo, div)
	return quo, nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrOverflow
	}
	return diff, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}
