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
	"errors"
	"sync"

	"github.com/blinklabs-io/vestry/registry"
)

// ErrInsufficientFunds is returned when a custody transfer exceeds the
// source account balance
var ErrInsufficientFunds = errors.New("insufficient funds")

type vaultAccount struct {
	account registry.Identity
	mint    registry.Identity
}

// MemoryVault is an in-process custody ledger tracking per-account
// per-mint balances. It stands in for an external custody service in
// tests and single-node deployments.
type MemoryVault struct {
	mutex    sync.Mutex
	balances map[vaultAccount]uint64
}

// NewMemoryVault creates an empty in-process custody ledger
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		balances: make(map[vaultAccount]uint64),
	}
}

// Mint credits an account balance out of thin air. This is how external
// funds enter the vault.
func (v *MemoryVault) Mint(
	account, mint registry.Identity,
	amount uint64,
) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.balances[vaultAccount{account: account, mint: mint}] += amount
}

// Balance returns an account's balance for a mint
func (v *MemoryVault) Balance(account, mint registry.Identity) uint64 {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.balances[vaultAccount{account: account, mint: mint}]
}

// Transfer moves tokens between accounts, failing without any change
// when the source balance is insufficient
func (v *MemoryVault) Transfer(
	source, destination, mint registry.Identity,
	amount uint64,
) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	sourceKey := vaultAccount{account: source, mint: mint}
	if v.balances[sourceKey] < amount {
		return ErrInsufficientFunds
	}
	v.balances[sourceKey] -= amount
	v.balances[vaultAccount{account: destination, mint: mint}] += amount
	return nil
}
