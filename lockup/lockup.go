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

package lockup

import (
	"errors"
	"fmt"
)

const (
	// SecsPerDay is the number of seconds in one day
	SecsPerDay int64 = 86_400
	// SecsPerMonth is the number of seconds in one month (1/12 of a 365-day year)
	SecsPerMonth int64 = 365 * SecsPerDay / 12
	// MaxDaysLocked is the maximum number of daily periods in a lockup
	MaxDaysLocked uint64 = 7 * 365
	// MaxMonthsLocked is the maximum number of monthly periods in a lockup
	MaxMonthsLocked uint64 = 7 * 12
)

var (
	ErrInvalidLockupKind   = errors.New("invalid lockup kind")
	ErrInvalidLockupPeriod = errors.New(
		"lockup duration is not a multiple of the period length",
	)
	ErrInvalidPeriods = errors.New("invalid number of lockup periods")
)

// Kind identifies the shape of a lockup's vesting schedule
type Kind uint8

const (
	// KindNone is an unlocked deposit with no schedule
	KindNone Kind = iota
	// KindDaily vests linearly in daily increments
	KindDaily
	// KindMonthly vests linearly in monthly increments
	KindMonthly
	// KindCliff releases the full principal at once at the end timestamp
	KindCliff
	// KindConstant never counts down until converted to another kind
	KindConstant
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDaily:
		return "daily"
	case KindMonthly:
		return "monthly"
	case KindCliff:
		return "cliff"
	case KindConstant:
		return "constant"
	default:
		return fmt.Sprintf("unknown (%d)", uint8(k))
	}
}

// KindFromString returns the Kind named by s
func KindFromString(s string) (Kind, error) {
	switch s {
	case "none":
		return KindNone, nil
	case "daily":
		return KindDaily, nil
	case "monthly":
		return KindMonthly, nil
	case "cliff":
		return KindCliff, nil
	case "constant":
		return KindConstant, nil
	default:
		return KindNone, fmt.Errorf("%w: %q", ErrInvalidLockupKind, s)
	}
}

func (k Kind) Valid() bool {
	return k <= KindConstant
}

// PeriodSecs returns the length of one period for the kind. Cliff and
// Constant lockups use the daily constant as their bookkeeping unit.
func (k Kind) PeriodSecs() int64 {
	switch k {
	case KindDaily, KindCliff, KindConstant:
		return SecsPerDay
	case KindMonthly:
		return SecsPerMonth
	default:
		return 0
	}
}

// MaxPeriods returns the maximum allowed period count for the kind
func (k Kind) MaxPeriods() uint64 {
	switch k {
	case KindDaily, KindCliff, KindConstant:
		return MaxDaysLocked
	case KindMonthly:
		return MaxMonthsLocked
	default:
		return 0
	}
}

// Strictness defines a total order over lockup kinds. Resetting or
// transferring locked funds may never decrease strictness. Cliff and
// Constant rank equal so funds can move freely between them.
func (k Kind) Strictness() int {
	switch k {
	case KindDaily:
		return 1
	case KindMonthly:
		return 2
	case KindCliff, KindConstant:
		return 3
	default:
		return 0
	}
}

// Lockup is a time-bound vesting schedule for a single deposit entry.
// All functions are pure over (schedule, current time).
type Lockup struct {
	StartTs int64 `json:"startTs"`
	EndTs   int64 `json:"endTs"`
	Kind    Kind  `json:"kind"`
}

// NewFromPeriods creates a lockup of the given kind starting at startTs
// and running for the given number of periods
func NewFromPeriods(
	kind Kind,
	startTs int64,
	periods uint32,
) (Lockup, error) {
	if !kind.Valid() {
		return Lockup{}, ErrInvalidLockupKind
	}
	if uint64(periods) > kind.MaxPeriods() {
		return Lockup{}, fmt.Errorf(
			"%w: %d exceeds maximum of %d for %s lockup",
			ErrInvalidPeriods,
			periods,
			kind.MaxPeriods(),
			kind,
		)
	}
	return Lockup{
		Kind:    kind,
		StartTs: startTs,
		EndTs:   startTs + int64(periods)*kind.PeriodSecs(),
	}, nil
}

// SecondsLeft returns the seconds remaining until the lockup expires.
// Constant lockups are evaluated as if the current time were pinned at
// StartTs, so they never count down.
func (l Lockup) SecondsLeft(currTs int64) int64 {
	if l.Kind == KindConstant {
		currTs = l.StartTs
	}
	if currTs >= l.EndTs {
		return 0
	}
	return l.EndTs - currTs
}

// Expired returns whether the lockup has fully run out
func (l Lockup) Expired(currTs int64) bool {
	return l.SecondsLeft(currTs) == 0
}

// PeriodsTotal returns the total number of periods in the lockup. A
// kind with no period length (None) always has zero periods.
func (l Lockup) PeriodsTotal() (uint64, error) {
	periodSecs := l.Kind.PeriodSecs()
	if periodSecs == 0 {
		return 0, nil
	}
	lockupSecs := l.EndTs - l.StartTs
	if lockupSecs < 0 {
		return 0, fmt.Errorf(
			"%w: end %d before start %d",
			ErrInvalidLockupPeriod,
			l.EndTs,
			l.StartTs,
		)
	}
	if lockupSecs%periodSecs != 0 {
		return 0, ErrInvalidLockupPeriod
	}
	return uint64(lockupSecs / periodSecs), nil
}

// PeriodsLeft returns the number of not-yet-elapsed periods, rounding
// partial periods up. A lockup that has not started yet is fully locked.
func (l Lockup) PeriodsLeft(currTs int64) (uint64, error) {
	periodSecs := l.Kind.PeriodSecs()
	if periodSecs == 0 {
		return 0, nil
	}
	total, err := l.PeriodsTotal()
	if err != nil {
		return 0, err
	}
	if currTs < l.StartTs {
		return total, nil
	}
	secsLeft := l.SecondsLeft(currTs)
	return uint64((secsLeft + periodSecs - 1) / periodSecs), nil
}

// PeriodCurrent returns the zero-based index of the current period in
// the vesting schedule
func (l Lockup) PeriodCurrent(currTs int64) (uint64, error) {
	total, err := l.PeriodsTotal()
	if err != nil {
		return 0, err
	}
	left, err := l.PeriodsLeft(currTs)
	if err != nil {
		return 0, err
	}
	if left > total {
		return 0, nil
	}
	return total - left, nil
}
