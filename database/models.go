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

// migrateModels is the list of models to migrate on startup
var migrateModels = []any{
	&Registrar{},
	&VotingMintConfig{},
	&Voter{},
	&DepositEntry{},
}

// Registrar is the stored form of a registry.Registrar
type Registrar struct {
	ID                 uint   `gorm:"primarykey"`
	Key                []byte `gorm:"index,unique"`
	GovernanceProgram  []byte
	Realm              []byte
	GoverningTokenMint []byte
	RealmAuthority     []byte
	ClawbackAuthority  []byte
	TimeOffset         int64
	Debug              bool
}

func (Registrar) TableName() string {
	return "registrar"
}

// VotingMintConfig is one mint table slot of a stored registrar
type VotingMintConfig struct {
	ID                   uint   `gorm:"primarykey"`
	RegistrarID          uint   `gorm:"index"`
	Idx                  uint8  `gorm:"index"`
	Mint                 []byte `gorm:"index"`
	GrantAuthority       []byte
	UnlockedScaledFactor uint64
	LockupScaledFactor   uint64
	LockupSaturationSecs uint64
	DigitShift           int8
}

func (VotingMintConfig) TableName() string {
	return "voting_mint_config"
}

// Voter is the stored form of a registry.Voter
type Voter struct {
	ID              uint   `gorm:"primarykey"`
	Key             []byte `gorm:"index,unique"`
	RegistrarKey    []byte `gorm:"index"`
	VoterAuthority  []byte `gorm:"index"`
	LastDepositSlot uint64
}

func (Voter) TableName() string {
	return "voter"
}

// DepositEntry is one used deposit slot of a stored voter. Unused slots
// are not stored.
type DepositEntry struct {
	ID                          uint  `gorm:"primarykey"`
	VoterID                     uint  `gorm:"index"`
	Idx                         uint8 `gorm:"index"`
	VotingMintConfigIdx         uint8
	AmountDepositedNative       uint64
	AmountInitiallyLockedNative uint64
	AllowClawback               bool
	LockupKind                  uint8
	LockupStartTs               int64
	LockupEndTs                 int64
}

func (DepositEntry) TableName() string {
	return "deposit_entry"
}
