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
	"math"
	"testing"
)

const testStartTs = int64(1634929833)

func daysToSecs(days float64) int64 {
	return int64(math.Round(float64(SecsPerDay) * days))
}

func monthsToSecs(months float64) int64 {
	return int64(math.Round(float64(SecsPerMonth) * months))
}

func TestPeriodsLeftDaily(t *testing.T) {
	testDefs := []struct {
		daysTotal    float64
		currDay      float64
		expectedLeft uint64
	}{
		{daysTotal: 10, currDay: 0, expectedLeft: 10},
		{daysTotal: 10, currDay: 0.5, expectedLeft: 10},
		{daysTotal: 10, currDay: 1, expectedLeft: 9},
		{daysTotal: 10, currDay: 1.5, expectedLeft: 9},
		{daysTotal: 10, currDay: 9, expectedLeft: 1},
		{daysTotal: 10, currDay: 9.1, expectedLeft: 1},
		{daysTotal: 10, currDay: 9.9, expectedLeft: 1},
		{daysTotal: 10, currDay: 10, expectedLeft: 0},
		{daysTotal: 10, currDay: 11, expectedLeft: 0},
		// Not-yet-started lockups are fully locked
		{daysTotal: 10, currDay: -0.5, expectedLeft: 10},
	}
	for _, testDef := range testDefs {
		l := Lockup{
			Kind:    KindCliff,
			StartTs: testStartTs,
			EndTs:   testStartTs + daysToSecs(testDef.daysTotal),
		}
		left, err := l.PeriodsLeft(testStartTs + daysToSecs(testDef.currDay))
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if left != testDef.expectedLeft {
			t.Fatalf(
				"did not get expected periods left at day %.1f: got %d, wanted %d",
				testDef.currDay,
				left,
				testDef.expectedLeft,
			)
		}
	}
}

func TestPeriodsLeftMonthly(t *testing.T) {
	testDefs := []struct {
		monthsTotal  float64
		currMonth    float64
		expectedLeft uint64
	}{
		{monthsTotal: 10, currMonth: 0, expectedLeft: 10},
		{monthsTotal: 10, currMonth: 0.5, expectedLeft: 10},
		{monthsTotal: 10, currMonth: 1.5, expectedLeft: 9},
		{monthsTotal: 10, currMonth: 10, expectedLeft: 0},
		{monthsTotal: 10, currMonth: 11, expectedLeft: 0},
	}
	for _, testDef := range testDefs {
		l := Lockup{
			Kind:    KindMonthly,
			StartTs: testStartTs,
			EndTs:   testStartTs + monthsToSecs(testDef.monthsTotal),
		}
		left, err := l.PeriodsLeft(testStartTs + monthsToSecs(testDef.currMonth))
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if left != testDef.expectedLeft {
			t.Fatalf(
				"did not get expected periods left at month %.1f: got %d, wanted %d",
				testDef.currMonth,
				left,
				testDef.expectedLeft,
			)
		}
	}
}

func TestConstantNeverDecays(t *testing.T) {
	l, err := NewFromPeriods(KindConstant, testStartTs, 10)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	for _, currDay := range []float64{0, 5, 10, 100} {
		currTs := testStartTs + daysToSecs(currDay)
		if secsLeft := l.SecondsLeft(currTs); secsLeft != 10*SecsPerDay {
			t.Fatalf(
				"constant lockup decayed at day %.0f: got %d seconds left, wanted %d",
				currDay,
				secsLeft,
				10*SecsPerDay,
			)
		}
		if l.Expired(currTs) {
			t.Fatalf("constant lockup expired at day %.0f", currDay)
		}
	}
}

func TestPeriodsTotalUnevenSpan(t *testing.T) {
	l := Lockup{
		Kind:    KindDaily,
		StartTs: testStartTs,
		EndTs:   testStartTs + 10*SecsPerDay + 1,
	}
	if _, err := l.PeriodsTotal(); !errors.Is(err, ErrInvalidLockupPeriod) {
		t.Fatalf("expected ErrInvalidLockupPeriod, got %v", err)
	}
}

func TestNoneKindHasNoPeriods(t *testing.T) {
	l := Lockup{Kind: KindNone, StartTs: testStartTs, EndTs: testStartTs}
	total, err := l.PeriodsTotal()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if total != 0 {
		t.Fatalf("expected 0 periods for none lockup, got %d", total)
	}
	left, err := l.PeriodsLeft(testStartTs - 100)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if left != 0 {
		t.Fatalf("expected 0 periods left for none lockup, got %d", left)
	}
	if !l.Expired(testStartTs) {
		t.Fatalf("expected none lockup to be expired")
	}
}

func TestNewFromPeriodsLimits(t *testing.T) {
	if _, err := NewFromPeriods(KindDaily, testStartTs, uint32(MaxDaysLocked)+1); !errors.Is(err, ErrInvalidPeriods) {
		t.Fatalf("expected ErrInvalidPeriods, got %v", err)
	}
	if _, err := NewFromPeriods(KindMonthly, testStartTs, uint32(MaxMonthsLocked)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	l, err := NewFromPeriods(KindCliff, testStartTs, 10)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if l.EndTs != testStartTs+10*SecsPerDay {
		t.Fatalf(
			"did not get expected end timestamp: got %d, wanted %d",
			l.EndTs,
			testStartTs+10*SecsPerDay,
		)
	}
}

func TestStrictnessOrder(t *testing.T) {
	if KindNone.Strictness() >= KindDaily.Strictness() {
		t.Fatalf("expected none to rank below daily")
	}
	if KindDaily.Strictness() >= KindMonthly.Strictness() {
		t.Fatalf("expected daily to rank below monthly")
	}
	if KindMonthly.Strictness() >= KindCliff.Strictness() {
		t.Fatalf("expected monthly to rank below cliff")
	}
	if KindCliff.Strictness() != KindConstant.Strictness() {
		t.Fatalf("expected cliff and constant to rank equal")
	}
}

func TestKindStringRoundTrip(t *testing.T) {
	for _, kind := range []Kind{KindNone, KindDaily, KindMonthly, KindCliff, KindConstant} {
		parsed, err := KindFromString(kind.String())
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if parsed != kind {
			t.Fatalf("kind %s did not round trip: got %s", kind, parsed)
		}
	}
	if _, err := KindFromString("bogus"); !errors.Is(err, ErrInvalidLockupKind) {
		t.Fatalf("expected ErrInvalidLockupKind, got %v", err)
	}
}
