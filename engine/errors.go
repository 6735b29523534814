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

import "errors"

var (
	ErrRegistrarExists  = errors.New("registrar already exists")
	ErrVoterExists      = errors.New("voter already exists")
	ErrActiveVotesExist = errors.New(
		"voter has outstanding votes recorded by governance",
	)
	ErrSameSlotWithdraw = errors.New(
		"withdrawal in the same slot as the most recent deposit",
	)
	ErrClawbackNotAllowed = errors.New(
		"deposit entry was created without clawback",
	)
	ErrLockupStrictnessDecrease = errors.New(
		"new lockup is less strict than the current lockup",
	)
	ErrLockupDurationDecrease = errors.New(
		"new lockup is shorter than the time remaining on the current lockup",
	)
	ErrVotingMintMismatch = errors.New(
		"deposit entries reference different voting mints",
	)
)
