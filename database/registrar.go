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

	"github.com/blinklabs-io/vestry/registry"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// SetRegistrar stores a registrar record, replacing any existing record
// with the same key
func (d *Database) SetRegistrar(r *registry.Registrar, txn *Txn) error {
	metadata := d.metadata
	if txn != nil {
		metadata = txn.Metadata()
	}
	key := r.Key()
	var existing Registrar
	result := metadata.Where("key = ?", key[:]).First(&existing)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}
	}
	row := registrarToModel(r)
	row.ID = existing.ID
	if result := metadata.Save(row); result.Error != nil {
		return result.Error
	}
	// Replace the mint config rows wholesale. The table is tiny, so
	// there's no benefit to diffing.
	if result := metadata.Where("registrar_id = ?", row.ID).Delete(&VotingMintConfig{}); result.Error != nil {
		return result.Error
	}
	for idx := range r.VotingMints {
		cfg := &r.VotingMints[idx]
		if !cfg.InUse() {
			continue
		}
		cfgRow := VotingMintConfig{
			RegistrarID:          row.ID,
			Idx:                  uint8(idx), // #nosec G115
			Mint:                 cfg.Mint[:],
			GrantAuthority:       cfg.GrantAuthority[:],
			UnlockedScaledFactor: cfg.UnlockedScaledFactor,
			LockupScaledFactor:   cfg.LockupScaledFactor,
			LockupSaturationSecs: cfg.LockupSaturationSecs,
			DigitShift:           cfg.DigitShift,
		}
		if result := metadata.Create(&cfgRow); result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// GetRegistrar retrieves a registrar record by its derived key
func (d *Database) GetRegistrar(
	key registry.Identity,
	txn *Txn,
) (*registry.Registrar, error) {
	metadata := d.metadata
	if txn != nil {
		metadata = txn.Metadata()
	}
	var row Registrar
	result := metadata.Where("key = ?", key[:]).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	var cfgRows []VotingMintConfig
	result = metadata.Where("registrar_id = ?", row.ID).Find(&cfgRows)
	if result.Error != nil {
		return nil, result.Error
	}
	return registrarFromModel(&row, cfgRows)
}

// ListRegistrars retrieves all registrar records
func (d *Database) ListRegistrars(txn *Txn) ([]*registry.Registrar, error) {
	metadata := d.metadata
	if txn != nil {
		metadata = txn.Metadata()
	}
	var rows []Registrar
	if result := metadata.Find(&rows); result.Error != nil {
		return nil, result.Error
	}
	ret := make([]*registry.Registrar, 0, len(rows))
	for i := range rows {
		var cfgRows []VotingMintConfig
		result := metadata.Where("registrar_id = ?", rows[i].ID).
			Find(&cfgRows)
		if result.Error != nil {
			return nil, result.Error
		}
		r, err := registrarFromModel(&rows[i], cfgRows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, r)
	}
	return ret, nil
}

func registrarToModel(r *registry.Registrar) *Registrar {
	key := r.Key()
	return &Registrar{
		Key:                key[:],
		GovernanceProgram:  r.GovernanceProgram[:],
		Realm:              r.Realm[:],
		GoverningTokenMint: r.GoverningTokenMint[:],
		RealmAuthority:     r.RealmAuthority[:],
		ClawbackAuthority:  r.ClawbackAuthority[:],
		TimeOffset:         r.TimeOffset,
		Debug:              r.Debug,
	}
}

func registrarFromModel(
	row *Registrar,
	cfgRows []VotingMintConfig,
) (*registry.Registrar, error) {
	governanceProgram, err := registry.NewIdentityFromBytes(
		row.GovernanceProgram,
	)
	if err != nil {
		return nil, err
	}
	realm, err := registry.NewIdentityFromBytes(row.Realm)
	if err != nil {
		return nil, err
	}
	governingTokenMint, err := registry.NewIdentityFromBytes(
		row.GoverningTokenMint,
	)
	if err != nil {
		return nil, err
	}
	realmAuthority, err := registry.NewIdentityFromBytes(row.RealmAuthority)
	if err != nil {
		return nil, err
	}
	clawbackAuthority, err := registry.NewIdentityFromBytes(
		row.ClawbackAuthority,
	)
	if err != nil {
		return nil, err
	}
	r := registry.NewRegistrar(
		governanceProgram,
		realm,
		governingTokenMint,
		realmAuthority,
		clawbackAuthority,
		row.Debug,
	)
	r.TimeOffset = row.TimeOffset
	for i := range cfgRows {
		cfgRow := &cfgRows[i]
		if int(cfgRow.Idx) >= len(r.VotingMints) {
			return nil, registry.ErrOutOfBoundsVotingMintConfigIndex
		}
		mint, err := registry.NewIdentityFromBytes(cfgRow.Mint)
		if err != nil {
			return nil, err
		}
		grantAuthority, err := registry.NewIdentityFromBytes(
			cfgRow.GrantAuthority,
		)
		if err != nil {
			return nil, err
		}
		r.VotingMints[cfgRow.Idx] = registry.VotingMintConfig{
			Mint:                 mint,
			GrantAuthority:       grantAuthority,
			UnlockedScaledFactor: cfgRow.UnlockedScaledFactor,
			LockupScaledFactor:   cfgRow.LockupScaledFactor,
			LockupSaturationSecs: cfgRow.LockupSaturationSecs,
			DigitShift:           cfgRow.DigitShift,
		}
	}
	return r, nil
}
