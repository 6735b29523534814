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

import "errors"

var (
	// Capacity errors
	ErrDepositEntryFull                 = errors.New("no free deposit entry available")
	ErrOutOfBoundsVotingMintConfigIndex = errors.New(
		"voting mint config index out of bounds",
	)
	ErrVotingMintConfigIndexAlreadyInUse = errors.New(
		"voting mint config index already bound to a different mint",
	)

	// Reference errors
	ErrOutOfBoundsDepositEntryIndex = errors.New(
		"deposit entry index out of bounds",
	)
	ErrUnusedDepositEntryIndex = errors.New(
		"deposit entry index refers to an unused entry",
	)
	ErrVotingMintNotFound = errors.New("mint not configured on registrar")
	ErrInvalidMint        = errors.New("invalid mint for deposit entry")

	// Temporal/balance errors
	ErrInsufficientVestedTokens = errors.New(
		"insufficient vested tokens for withdrawal",
	)
	ErrInsufficientLockedTokens = errors.New(
		"insufficient locked tokens for transfer",
	)
	ErrVotingTokenNonZero = errors.New(
		"deposit entry still holds a token balance",
	)
	ErrDepositStillLocked = errors.New(
		"deposit entry lockup has not expired",
	)

	// Authorization errors
	ErrInvalidAuthority = errors.New("invalid authority for operation")
	ErrDebugInstruction = errors.New(
		"debug-only operation not allowed on this registrar",
	)

	// Arithmetic errors
	ErrOverflow                = errors.New("arithmetic overflow in vote weight scaling")
	ErrInvalidLockupSaturation = errors.New(
		"lockup saturation must be greater than zero",
	)
)
