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

package database

import (
	"errors"

	"github.com/blinklabs-io/vestry/lockup"
	"github.com/blinklabs-io/vestry/registry"

	"gorm.io/gorm"
)

// SetVoter stores a voter record, replacing any existing record with the
// same key
func (d *Database) SetVoter(v *registry.Voter, txn *Txn) error {
	metadata := d.metadata
	if txn != nil {
		metadata = txn.Metadata()
	}
	key := v.Key()
	var existing Voter
	result := metadata.Where("key = ?", key[:]).First(&existing)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}
	}
	row := voterToModel(v)
	row.ID = existing.ID
	if result := metadata.Save(row); result.Error != nil {
		return result.Error
	}
	if result := metadata.Where("voter_id = ?", row.ID).Delete(&DepositEntry{}); result.Error != nil {
		return result.Error
	}
	for idx := range v.Deposits {
		entry := &v.Deposits[idx]
		if !entry.IsUsed {
			continue
		}
		entryRow := DepositEntry{
			VoterID:                     row.ID,
			Idx:                         uint8(idx), // #nosec G115
			VotingMintConfigIdx:         entry.VotingMintConfigIdx,
			AmountDepositedNative:       entry.AmountDepositedNative,
			AmountInitiallyLockedNative: entry.AmountInitiallyLockedNative,
			AllowClawback:               entry.AllowClawback,
			LockupKind:                  uint8(entry.Lockup.Kind),
			LockupStartTs:               entry.Lockup.StartTs,
			LockupEndTs:                 entry.Lockup.EndTs,
		}
		if result := metadata.Create(&entryRow); result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// GetVoter retrieves a voter record by its derived key
func (d *Database) GetVoter(
	key registry.Identity,
	txn *Txn,
) (*registry.Voter, error) {
	metadata := d.metadata
	if txn != nil {
		metadata = txn.Metadata()
	}
	var row Voter
	result := metadata.Where("key = ?", key[:]).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return voterFromModelWithDeposits(metadata, &row)
}

// ListVoters retrieves all voter records belonging to a registrar
func (d *Database) ListVoters(
	registrarKey registry.Identity,
	txn *Txn,
) ([]*registry.Voter, error) {
	metadata := d.metadata
	if txn != nil {
		metadata = txn.Metadata()
	}
	var rows []Voter
	result := metadata.Where("registrar_key = ?", registrarKey[:]).
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	ret := make([]*registry.Voter, 0, len(rows))
	for i := range rows {
		v, err := voterFromModelWithDeposits(metadata, &rows[i])
		if err != nil {
			return nil, err
		}
		ret = append(ret, v)
	}
	return ret, nil
}

// DeleteVoter removes a voter record and its deposit entries
func (d *Database) DeleteVoter(key registry.Identity, txn *Txn) error {
	metadata := d.metadata
	if txn != nil {
		metadata = txn.Metadata()
	}
	var row Voter
	result := metadata.Where("key = ?", key[:]).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return result.Error
	}
	if result := metadata.Where("voter_id = ?", row.ID).Delete(&DepositEntry{}); result.Error != nil {
		return result.Error
	}
	if result := metadata.Delete(&row); result.Error != nil {
		return result.Error
	}
	return nil
}

func voterToModel(v *registry.Voter) *Voter {
	key := v.Key()
	return &Voter{
		Key:             key[:],
		RegistrarKey:    v.Registrar[:],
		VoterAuthority:  v.VoterAuthority[:],
		LastDepositSlot: v.LastDepositSlot,
	}
}

func voterFromModelWithDeposits(
	metadata *gorm.DB,
	row *Voter,
) (*registry.Voter, error) {
	registrarKey, err := registry.NewIdentityFromBytes(row.RegistrarKey)
	if err != nil {
		return nil, err
	}
	voterAuthority, err := registry.NewIdentityFromBytes(row.VoterAuthority)
	if err != nil {
		return nil, err
	}
	v := registry.NewVoter(registrarKey, voterAuthority)
	v.LastDepositSlot = row.LastDepositSlot
	var entryRows []DepositEntry
	result := metadata.Where("voter_id = ?", row.ID).Find(&entryRows)
	if result.Error != nil {
		return nil, result.Error
	}
	for i := range entryRows {
		entryRow := &entryRows[i]
		if int(entryRow.Idx) >= len(v.Deposits) {
			return nil, registry.ErrOutOfBoundsDepositEntryIndex
		}
		kind := lockup.Kind(entryRow.LockupKind)
		if !kind.Valid() {
			return nil, lockup.ErrInvalidLockupKind
		}
		v.Deposits[entryRow.Idx] = registry.DepositEntry{
			Lockup: lockup.Lockup{
				StartTs: entryRow.LockupStartTs,
				EndTs:   entryRow.LockupEndTs,
				Kind:    kind,
			},
			AmountDepositedNative:       entryRow.AmountDepositedNative,
			AmountInitiallyLockedNative: entryRow.AmountInitiallyLockedNative,
			IsUsed:                      true,
			AllowClawback:               entryRow.AllowClawback,
			VotingMintConfigIdx:         entryRow.VotingMintConfigIdx,
		}
	}
	return v, nil
}
