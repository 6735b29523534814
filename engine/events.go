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
	"github.com/blinklabs-io/vestry/event"
	"github.com/blinklabs-io/vestry/registry"
)

const (
	DepositEventType  event.EventType = "engine.deposit"
	WithdrawEventType event.EventType = "engine.withdraw"
	GrantEventType    event.EventType = "engine.grant"
	ClawbackEventType event.EventType = "engine.clawback"
)

// DepositEvent is sent after tokens are deposited into a deposit entry
type DepositEvent struct {
	Registrar registry.Identity `json:"registrar"`
	Voter     registry.Identity `json:"voter"`
	Mint      registry.Identity `json:"mint"`
	EntryIdx  uint8             `json:"entryIdx"`
	Amount    uint64            `json:"amount"`
}

// WithdrawEvent is sent after tokens are withdrawn from a deposit entry
type WithdrawEvent struct {
	Registrar registry.Identity `json:"registrar"`
	Voter     registry.Identity `json:"voter"`
	Mint      registry.Identity `json:"mint"`
	EntryIdx  uint8             `json:"entryIdx"`
	Amount    uint64            `json:"amount"`
}

// GrantEvent is sent after an authority pushes a locked grant
type GrantEvent struct {
	Registrar registry.Identity `json:"registrar"`
	Voter     registry.Identity `json:"voter"`
	Mint      registry.Identity `json:"mint"`
	Authority registry.Identity `json:"authority"`
	EntryIdx  uint8             `json:"entryIdx"`
	Amount    uint64            `json:"amount"`
}

// ClawbackEvent is sent after the clawback authority reclaims unvested
// tokens
type ClawbackEvent struct {
	Registrar registry.Identity `json:"registrar"`
	Voter     registry.Identity `json:"voter"`
	Mint      registry.Identity `json:"mint"`
	EntryIdx  uint8             `json:"entryIdx"`
	Amount    uint64            `json:"amount"`
}
