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
	"math/bits"
	"time"

	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/lockup"
	"github.com/blinklabs-io/vestry/registry"
)

// CreateRegistrar creates the registrar for a (realm, governing token
// mint) pair
func (e *Engine) CreateRegistrar(
	governanceProgram registry.Identity,
	realm registry.Identity,
	governingTokenMint registry.Identity,
	realmAuthority registry.Identity,
	clawbackAuthority registry.Identity,
	debug bool,
) (retRegistrar *registry.Registrar, retErr error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	defer func() { e.finishOp("create_registrar", retErr) }()
	r := registry.NewRegistrar(
		governanceProgram,
		realm,
		governingTokenMint,
		realmAuthority,
		clawbackAuthority,
		debug,
	)
	if _, err := e.db.GetRegistrar(r.Key(), nil); err == nil {
		return nil, ErrRegistrarExists
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	txn := e.db.Transaction()
	defer txn.Rollback() //nolint:errcheck
	if err := e.db.SetRegistrar(r, txn); err != nil {
		return nil, err
	}
	err := e.db.JournalAppend(
		database.JournalEntry{
			Timestamp: time.Now().UTC(),
			Op:        "create_registrar",
			Registrar: r.Key().String(),
		},
		txn,
	)
	if err != nil {
		return nil, err
	}
	if err := txn.Commit(); err != nil {
		return nil, err
	}
	e.logger.Info(
		"created registrar",
		"component", "engine",
		"registrar", r.Key().String(),
	)
	return r, nil
}

// ConfigureVotingMint binds or updates a voting mint config slot on a
// registrar. Only the realm authority may configure mints.
func (e *Engine) ConfigureVotingMint(
	registrarKey registry.Identity,
	authority registry.Identity,
	idx uint8,
	cfg registry.VotingMintConfig,
) (retErr error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	defer func() { e.finishOp("configure_voting_mint", retErr) }()
	r, err := e.db.GetRegistrar(registrarKey, nil)
	if err != nil {
		return err
	}
	if authority != r.RealmAuthority {
		return registry.ErrInvalidAuthority
	}
	if err := r.ConfigureVotingMint(idx, cfg); err != nil {
		return err
	}
	txn := e.db.Transaction()
	defer txn.Rollback() //nolint:errcheck
	if err := e.db.SetRegistrar(r, txn); err != nil {
		return err
	}
	err = e.db.JournalAppend(
		database.JournalEntry{
			Timestamp: time.Now().UTC(),
			Op:        "configure_voting_mint",
			Registrar: registrarKey.String(),
			EntryIdx:  int(idx),
		},
		txn,
	)
	if err != nil {
		return err
	}
	return txn.Commit()
}

// CreateVoter creates the voter record for a (registrar, authority)
// pair
func (e *Engine) CreateVoter(
	registrarKey registry.Identity,
	voterAuthority registry.Identity,
) (retVoter *registry.Voter, retErr error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	defer func() { e.finishOp("create_voter", retErr) }()
	if _, err := e.db.GetRegistrar(registrarKey, nil); err != nil {
		return nil, err
	}
	v := registry.NewVoter(registrarKey, voterAuthority)
	if _, err := e.db.GetVoter(v.Key(), nil); err == nil {
		return nil, ErrVoterExists
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	txn := e.db.Transaction()
	defer txn.Rollback() //nolint:errcheck
	if err := e.db.SetVoter(v, txn); err != nil {
		return nil, err
	}
	err := e.db.JournalAppend(
		database.JournalEntry{
			Timestamp: time.Now().UTC(),
			Op:        "create_voter",
			Registrar: registrarKey.String(),
			Voter:     v.Key().String(),
		},
		txn,
	)
	if err != nil {
		return nil, err
	}
	if err := txn.Commit(); err != nil {
		return nil, err
	}
	return v, nil
}

// CreateDepositEntry allocates the first free deposit entry slot on a
// voter with a zero-balance lockup starting at startTs (or the current
// time when zero) and returns the allocated index
func (e *Engine) CreateDepositEntry(
	registrarKey registry.Identity,
	voterAuthority registry.Identity,
	mint registry.Identity,
	kind lockup.Kind,
	startTs int64,
	periods uint32,
	allowClawback bool,
) (retIdx uint8, retErr error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	defer func() { e.finishOp("create_deposit_entry", retErr) }()
	r, err := e.db.GetRegistrar(registrarKey, nil)
	if err != nil {
		return 0, err
	}
	now := r.CurrentTime(e.clock.UnixTime())
	v, err := e.db.GetVoter(
		registry.VoterKey(registrarKey, voterAuthority),
		nil,
	)
	if err != nil {
		return 0, err
	}
	mintIdx, err := r.VotingMintConfigIndex(mint)
	if err != nil {
		return 0, err
	}
	if startTs == 0 {
		startTs = now
	}
	lk, err := lockup.NewFromPeriods(kind, startTs, periods)
	if err != nil {
		return 0, err
	}
	idx, entry, err := v.FirstFreeDeposit()
	if err != nil {
		return 0, err
	}
	*entry = registry.DepositEntry{
		Lockup:              lk,
		IsUsed:              true,
		AllowClawback:       allowClawback,
		VotingMintConfigIdx: mintIdx,
	}
	txn := e.db.Transaction()
	defer txn.Rollback() //nolint:errcheck
	if err := e.db.SetVoter(v, txn); err != nil {
		return 0, err
	}
	err = e.db.JournalAppend(
		database.JournalEntry{
			Timestamp: time.Now().UTC(),
			Op:        "create_deposit_entry",
			Registrar: registrarKey.String(),
			Voter:     v.Key().String(),
			EntryIdx:  int(idx),
		},
		txn,
	)
	if err != nil {
		return 0, err
	}
	if err := txn.Commit(); err != nil {
		return 0, err
	}
	return idx, nil
}

// Deposit transfers tokens from the depositor into custody and adds them
// to a deposit entry's locked principal. For an in-flight vesting
// schedule the already-vested portion is finalized first, so the new
// funds vest uniformly with the remaining principal over the remaining
// periods. A zero amount leaves all ledger fields unchanged.
func (e *Engine) Deposit(
	registrarKey registry.Identity,
	voterAuthority registry.Identity,
	depositor registry.Identity,
	entryIdx uint8,
	amount uint64,
) (retErr error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	defer func() { e.finishOp("deposit", retErr) }()
	if amount == 0 {
		return nil
	}
	r, err := e.db.GetRegistrar(registrarKey, nil)
	if err != nil {
		return err
	}
	now := r.CurrentTime(e.clock.UnixTime())
	slot := e.clock.Slot()
	v, err := e.db.GetVoter(
		registry.VoterKey(registrarKey, voterAuthority),
		nil,
	)
	if err != nil {
		return err
	}
	entry, err := v.ActiveDeposit(entryIdx)
	if err != nil {
		return err
	}
	cfg, err := r.VotingMintConfig(entry.VotingMintConfigIdx)
	if err != nil {
		return err
	}
	if err := entry.ResolveVesting(now); err != nil {
		return err
	}
	entry.AmountDepositedNative, err = checkedAdd(
		entry.AmountDepositedNative,
		amount,
	)
	if err != nil {
		return err
	}
	entry.AmountInitiallyLockedNative, err = checkedAdd(
		entry.AmountInitiallyLockedNative,
		amount,
	)
	if err != nil {
		return err
	}
	v.LastDepositSlot = slot
	txn := e.db.Transaction()
	defer txn.Rollback() //nolint:errcheck
	if err := e.db.SetVoter(v, txn); err != nil {
		return err
	}
	err = e.db.JournalAppend(
		database.JournalEntry{
			Timestamp: time.Now().UTC(),
			Op:        "deposit",
			Registrar: registrarKey.String(),
			Voter:     v.Key().String(),
			EntryIdx:  int(entryIdx),
			Amount:    amount,
			Slot:      slot,
		},
		txn,
	)
	if err != nil {
		return err
	}
	err = e.custody.Transfer(
		depositor,
		registry.VaultKey(registrarKey, cfg.Mint),
		cfg.Mint,
		amount,
	)
	if err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return err
	}
	e.publish(DepositEventType, DepositEvent{
		Registrar: registrarKey,
		Voter:     v.Key(),
		Mint:      cfg.Mint,
		EntryIdx:  entryIdx,
		Amount:    amount,
	})
	return nil
}

// Withdraw moves vested tokens out of custody to the destination. It is
// refused in the same slot as the voter's most recent deposit and while
// governance reports outstanding votes for the voter.
func (e *Engine) Withdraw(
	registrarKey registry.Identity,
	voterAuthority registry.Identity,
	destination registry.Identity,
	entryIdx uint8,
	amount uint64,
) (retErr error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	defer func() { e.finishOp("withdraw", retErr) }()
	r, err := e.db.GetRegistrar(registrarKey, nil)
	if err != nil {
		return err
	}
	now := r.CurrentTime(e.clock.UnixTime())
	slot := e.clock.Slot()
	v, err := e.db.GetVoter(
		registry.VoterKey(registrarKey, voterAuthority),
		nil,
	)
	if err != nil {
		return err
	}
	if v.LastDepositSlot >= slot {
		return ErrSameSlotWithdraw
	}
	votingTokens, err := e.governance.VotingTokens(
		r.Realm,
		r.GoverningTokenMint,
		voterAuthority,
	)
	if err != nil {
		return err
	}
	if votingTokens > 0 {
		return ErrActiveVotesExist
	}
	entry, err := v.ActiveDeposit(entryIdx)
	if err != nil {
		return err
	}
	cfg, err := r.VotingMintConfig(entry.VotingMintConfigIdx)
	if err != nil {
		return err
	}
	withdrawable, err := entry.AmountWithdrawable(now)
	if err != nil {
		return err
	}
	if amount > withdrawable {
		return registry.ErrInsufficientVestedTokens
	}
	entry.AmountDepositedNative, err = checkedSub(
		entry.AmountDepositedNative,
		amount,
	)
	if err != nil {
		return err
	}
	txn := e.db.Transaction()
	defer txn.Rollback() //nolint:errcheck
	if err := e.db.SetVoter(v, txn); err != nil {
		return err
	}
	err = e.db.JournalAppend(
		database.JournalEntry{
			Timestamp: time.Now().UTC(),
			Op:        "withdraw",
			Registrar: registrarKey.String(),
			Voter:     v.Key().String(),
			EntryIdx:  int(entryIdx),
			Amount:    amount,
			Slot:      slot,
		},
		txn,
	)
	if err != nil {
		return err
	}
	err = e.custody.Transfer(
		registry.VaultKey(registrarKey, cfg.Mint),
		destination,
		cfg.Mint,
		amount,
	)
	if err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return err
	}
	e.publish(WithdrawEventType, WithdrawEvent{
		Registrar: registrarKey,
		Voter:     v.Key(),
		Mint:      cfg.Mint,
		EntryIdx:  entryIdx,
		Amount:    amount,
	})
	return nil
}

// Grant pushes a fully-locked deposit onto a holder's voter record,
// funded by the granting authority. The voter record is created when it
// does not exist yet. Only the realm authority or the mint's configured
// grant authority may grant.
func (e *Engine) Grant(
	registrarKey registry.Identity,
	authority registry.Identity,
	voterAuthority registry.Identity,
	mint registry.Identity,
	kind lockup.Kind,
	startTs int64,
	periods uint32,
	allowClawback bool,
	amount uint64,
) (retIdx uint8, retErr error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	defer func() { e.finishOp("grant", retErr) }()
	r, err := e.db.GetRegistrar(registrarKey, nil)
	if err != nil {
		return 0, err
	}
	now := r.CurrentTime(e.clock.UnixTime())
	mintIdx, err := r.VotingMintConfigIndex(mint)
	if err != nil {
		return 0, err
	}
	cfg := r.VotingMints[mintIdx]
	if authority != r.RealmAuthority &&
		(cfg.GrantAuthority.IsZero() || authority != cfg.GrantAuthority) {
		return 0, registry.ErrInvalidAuthority
	}
	voterKey := registry.VoterKey(registrarKey, voterAuthority)
	v, err := e.db.GetVoter(voterKey, nil)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return 0, err
		}
		v = registry.NewVoter(registrarKey, voterAuthority)
	}
	if startTs == 0 {
		startTs = now
	}
	lk, err := lockup.NewFromPeriods(kind, startTs, periods)
	if err != nil {
		return 0, err
	}
	idx, entry, err := v.FirstFreeDeposit()
	if err != nil {
		return 0, err
	}
	*entry = registry.DepositEntry{
		Lockup:                      lk,
		AmountDepositedNative:       amount,
		AmountInitiallyLockedNative: amount,
		IsUsed:                      true,
		AllowClawback:               allowClawback,
		VotingMintConfigIdx:         mintIdx,
	}
	txn := e.db.Transaction()
	defer txn.Rollback() //nolint:errcheck
	if err := e.db.SetVoter(v, txn); err != nil {
		return 0, err
	}
	err = e.db.JournalAppend(
		database.JournalEntry{
			Timestamp: time.Now().UTC(),
			Op:        "grant",
			Registrar: registrarKey.String(),
			Voter:     v.Key().String(),
			EntryIdx:  int(idx),
			Amount:    amount,
		},
		txn,
	)
	if err != nil {
		return 0, err
	}
	err = e.custody.Transfer(
		authority,
		registry.VaultKey(registrarKey, mint),
		mint,
		amount,
	)
	if err != nil {
		return 0, err
	}
	if err := txn.Commit(); err != nil {
		return 0, err
	}
	e.publish(GrantEventType, GrantEvent{
		Registrar: registrarKey,
		Voter:     v.Key(),
		Mint:      mint,
		Authority: authority,
		EntryIdx:  idx,
		Amount:    amount,
	})
	return idx, nil
}

// Clawback reclaims the still-unvested portion of a clawback-enabled
// deposit entry to the clawback authority and terminates the lockup, so
// the already-vested remainder becomes a plain unlocked deposit. Returns
// the reclaimed amount.
func (e *Engine) Clawback(
	registrarKey registry.Identity,
	authority registry.Identity,
	voterAuthority registry.Identity,
	entryIdx uint8,
) (retAmount uint64, retErr error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	defer func() { e.finishOp("clawback", retErr) }()
	r, err := e.db.GetRegistrar(registrarKey, nil)
	if err != nil {
		return 0, err
	}
	if authority != r.ClawbackAuthority {
		return 0, registry.ErrInvalidAuthority
	}
	now := r.CurrentTime(e.clock.UnixTime())
	v, err := e.db.GetVoter(
		registry.VoterKey(registrarKey, voterAuthority),
		nil,
	)
	if err != nil {
		return 0, err
	}
	entry, err := v.ActiveDeposit(entryIdx)
	if err != nil {
		return 0, err
	}
	if !entry.AllowClawback {
		return 0, ErrClawbackNotAllowed
	}
	cfg, err := r.VotingMintConfig(entry.VotingMintConfigIdx)
	if err != nil {
		return 0, err
	}
	unvested, err := entry.AmountLocked(now)
	if err != nil {
		return 0, err
	}
	entry.AmountDepositedNative, err = checkedSub(
		entry.AmountDepositedNative,
		unvested,
	)
	if err != nil {
		return 0, err
	}
	entry.Lockup = lockup.Lockup{
		Kind:    lockup.KindNone,
		StartTs: now,
		EndTs:   now,
	}
	entry.AmountInitiallyLockedNative = 0
	entry.AllowClawback = false
	txn := e.db.Transaction()
	defer txn.Rollback() //nolint:errcheck
	if err := e.db.SetVoter(v, txn); err != nil {
		return 0, err
	}
	err = e.db.JournalAppend(
		database.JournalEntry{
			Timestamp: time.Now().UTC(),
			Op:        "clawback",
			Registrar: registrarKey.String(),
			Voter:     v.Key().String(),
			EntryIdx:  int(entryIdx),
			Amount:    unvested,
		},
		txn,
	)
	if err != nil {
		return 0, err
	}
	err = e.custody.Transfer(
		registry.VaultKey(registrarKey, cfg.Mint),
		authority,
		cfg.Mint,
		unvested,
	)
	if err != nil {
		return 0, err
	}
	if err := txn.Commit(); err != nil {
		return 0, err
	}
	e.publish(ClawbackEventType, ClawbackEvent{
		Registrar: registrarKey,
		Voter:     v.Key(),
		Mint:      cfg.Mint,
		EntryIdx:  entryIdx,
		Amount:    unvested,
	})
	return unvested, nil
}

// ResetLockup re-locks a deposit entry's full balance under a new
// schedule starting now. The new schedule may never be less strict than
// the current one, nor shorter than the time the current one has left.
func (e *Engine) ResetLockup(
	registrarKey registry.Identity,
	voterAuthority registry.Identity,
	entryIdx uint8,
	kind lockup.Kind,
	periods uint32,
) (retErr error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	defer func() { e.finishOp("reset_lockup", retErr) }()
	r, err := e.db.GetRegistrar(registrarKey, nil)
	if err != nil {
		return err
	}
	now := r.CurrentTime(e.clock.UnixTime())
	v, err := e.db.GetVoter(
		registry.VoterKey(registrarKey, voterAuthority),
		nil,
	)
	if err != nil {
		return err
	}
	entry, err := v.ActiveDeposit(entryIdx)
	if err != nil {
		return err
	}
	if kind.Strictness() < entry.Lockup.Kind.Strictness() {
		return ErrLockupStrictnessDecrease
	}
	lk, err := lockup.NewFromPeriods(kind, now, periods)
	if err != nil {
		return err
	}
	if lk.SecondsLeft(now) < entry.Lockup.SecondsLeft(now) {
		return ErrLockupDurationDecrease
	}
	entry.Lockup = lk
	entry.AmountInitiallyLockedNative = entry.AmountDepositedNative
	txn := e.db.Transaction()
	defer txn.Rollback() //nolint:errcheck
	if err := e.db.SetVoter(v, txn); err != nil {
		return err
	}
	err = e.db.JournalAppend(
		database.JournalEntry{
			Timestamp: time.Now().UTC(),
			Op:        "reset_lockup",
			Registrar: registrarKey.String(),
			Voter:     v.Key().String(),
			EntryIdx:  int(entryIdx),
		},
		txn,
	)
	if err != nil {
		return err
	}
	return txn.Commit()
}

// InternalTransferLocked moves still-locked principal between two
// entries of the same voter without touching external custody. The
// target must reference the same voting mint and offer at least as
// strict a lockup with at least as much time remaining as the source.
func (e *Engine) InternalTransferLocked(
	registrarKey registry.Identity,
	voterAuthority registry.Identity,
	sourceIdx uint8,
	targetIdx uint8,
	amount uint64,
) (retErr error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	defer func() { e.finishOp("internal_transfer_locked", retErr) }()
	r, err := e.db.GetRegistrar(registrarKey, nil)
	if err != nil {
		return err
	}
	now := r.CurrentTime(e.clock.UnixTime())
	v, err := e.db.GetVoter(
		registry.VoterKey(registrarKey, voterAuthority),
		nil,
	)
	if err != nil {
		return err
	}
	source, err := v.ActiveDeposit(sourceIdx)
	if err != nil {
		return err
	}
	target, err := v.ActiveDeposit(targetIdx)
	if err != nil {
		return err
	}
	if source.VotingMintConfigIdx != target.VotingMintConfigIdx {
		return ErrVotingMintMismatch
	}
	if err := source.ResolveVesting(now); err != nil {
		return err
	}
	if err := target.ResolveVesting(now); err != nil {
		return err
	}
	if amount > source.AmountInitiallyLockedNative {
		return registry.ErrInsufficientLockedTokens
	}
	if target.Lockup.Kind.Strictness() < source.Lockup.Kind.Strictness() {
		return ErrLockupStrictnessDecrease
	}
	if target.Lockup.SecondsLeft(now) < source.Lockup.SecondsLeft(now) {
		return ErrLockupDurationDecrease
	}
	source.AmountInitiallyLockedNative, err = checkedSub(
		source.AmountInitiallyLockedNative,
		amount,
	)
	if err != nil {
		return err
	}
	source.AmountDepositedNative, err = checkedSub(
		source.AmountDepositedNative,
		amount,
	)
	if err != nil {
		return err
	}
	target.AmountDepositedNative, err = checkedAdd(
		target.AmountDepositedNative,
		amount,
	)
	if err != nil {
		return err
	}
	target.AmountInitiallyLockedNative, err = checkedAdd(
		target.AmountInitiallyLockedNative,
		amount,
	)
	if err != nil {
		return err
	}
	txn := e.db.Transaction()
	defer txn.Rollback() //nolint:errcheck
	if err := e.db.SetVoter(v, txn); err != nil {
		return err
	}
	err = e.db.JournalAppend(
		database.JournalEntry{
			Timestamp: time.Now().UTC(),
			Op:        "internal_transfer_locked",
			Registrar: registrarKey.String(),
			Voter:     v.Key().String(),
			EntryIdx:  int(targetIdx),
			Amount:    amount,
		},
		txn,
	)
	if err != nil {
		return err
	}
	return txn.Commit()
}

// InternalTransferUnlocked moves already-vested surplus between two
// entries of the same voter without touching external custody
func (e *Engine) InternalTransferUnlocked(
	registrarKey registry.Identity,
	voterAuthority registry.Identity,
	sourceIdx uint8,
	targetIdx uint8,
	amount uint64,
) (retErr error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	defer func() { e.finishOp("internal_transfer_unlocked", retErr) }()
	r, err := e.db.GetRegistrar(registrarKey, nil)
	if err != nil {
		return err
	}
	now := r.CurrentTime(e.clock.UnixTime())
	v, err := e.db.GetVoter(
		registry.VoterKey(registrarKey, voterAuthority),
		nil,
	)
	if err != nil {
		return err
	}
	source, err := v.ActiveDeposit(sourceIdx)
	if err != nil {
		return err
	}
	target, err := v.ActiveDeposit(targetIdx)
	if err != nil {
		return err
	}
	if source.VotingMintConfigIdx != target.VotingMintConfigIdx {
		return ErrVotingMintMismatch
	}
	withdrawable, err := source.AmountWithdrawable(now)
	if err != nil {
		return err
	}
	if amount > withdrawable {
		return registry.ErrInsufficientVestedTokens
	}
	source.AmountDepositedNative, err = checkedSub(
		source.AmountDepositedNative,
		amount,
	)
	if err != nil {
		return err
	}
	target.AmountDepositedNative, err = checkedAdd(
		target.AmountDepositedNative,
		amount,
	)
	if err != nil {
		return err
	}
	txn := e.db.Transaction()
	defer txn.Rollback() //nolint:errcheck
	if err := e.db.SetVoter(v, txn); err != nil {
		return err
	}
	err = e.db.JournalAppend(
		database.JournalEntry{
			Timestamp: time.Now().UTC(),
			Op:        "internal_transfer_unlocked",
			Registrar: registrarKey.String(),
			Voter:     v.Key().String(),
			EntryIdx:  int(targetIdx),
			Amount:    amount,
		},
		txn,
	)
	if err != nil {
		return err
	}
	return txn.Commit()
}

// CloseDepositEntry releases a deposit entry slot for reuse. The entry
// must hold a zero balance, and a clawback-enabled entry may only be
// closed once its lockup has fully expired.
func (e *Engine) CloseDepositEntry(
	registrarKey registry.Identity,
	voterAuthority registry.Identity,
	entryIdx uint8,
) (retErr error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	defer func() { e.finishOp("close_deposit_entry", retErr) }()
	r, err := e.db.GetRegistrar(registrarKey, nil)
	if err != nil {
		return err
	}
	now := r.CurrentTime(e.clock.UnixTime())
	v, err := e.db.GetVoter(
		registry.VoterKey(registrarKey, voterAuthority),
		nil,
	)
	if err != nil {
		return err
	}
	entry, err := v.ActiveDeposit(entryIdx)
	if err != nil {
		return err
	}
	if entry.AmountDepositedNative != 0 {
		return registry.ErrVotingTokenNonZero
	}
	if entry.AllowClawback && !entry.Lockup.Expired(now) {
		return registry.ErrDepositStillLocked
	}
	*entry = registry.DepositEntry{}
	txn := e.db.Transaction()
	defer txn.Rollback() //nolint:errcheck
	if err := e.db.SetVoter(v, txn); err != nil {
		return err
	}
	err = e.db.JournalAppend(
		database.JournalEntry{
			Timestamp: time.Now().UTC(),
			Op:        "close_deposit_entry",
			Registrar: registrarKey.String(),
			Voter:     v.Key().String(),
			EntryIdx:  int(entryIdx),
		},
		txn,
	)
	if err != nil {
		return err
	}
	return txn.Commit()
}

// CloseVoter removes a voter record. Every deposit entry must hold a
// zero balance.
func (e *Engine) CloseVoter(
	registrarKey registry.Identity,
	voterAuthority registry.Identity,
) (retErr error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	defer func() { e.finishOp("close_voter", retErr) }()
	v, err := e.db.GetVoter(
		registry.VoterKey(registrarKey, voterAuthority),
		nil,
	)
	if err != nil {
		return err
	}
	if !v.Empty() {
		return registry.ErrVotingTokenNonZero
	}
	txn := e.db.Transaction()
	defer txn.Rollback() //nolint:errcheck
	if err := e.db.DeleteVoter(v.Key(), txn); err != nil {
		return err
	}
	err = e.db.JournalAppend(
		database.JournalEntry{
			Timestamp: time.Now().UTC(),
			Op:        "close_voter",
			Registrar: registrarKey.String(),
			Voter:     v.Key().String(),
		},
		txn,
	)
	if err != nil {
		return err
	}
	return txn.Commit()
}

// SetTimeOffset shifts a debug registrar's clock for testing. Only the
// realm authority may set it, and only on a registrar created in debug
// mode.
func (e *Engine) SetTimeOffset(
	registrarKey registry.Identity,
	authority registry.Identity,
	offset int64,
) (retErr error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	defer func() { e.finishOp("set_time_offset", retErr) }()
	r, err := e.db.GetRegistrar(registrarKey, nil)
	if err != nil {
		return err
	}
	if authority != r.RealmAuthority {
		return registry.ErrInvalidAuthority
	}
	if err := r.SetTimeOffset(offset); err != nil {
		return err
	}
	txn := e.db.Transaction()
	defer txn.Rollback() //nolint:errcheck
	if err := e.db.SetRegistrar(r, txn); err != nil {
		return err
	}
	err = e.db.JournalAppend(
		database.JournalEntry{
			Timestamp: time.Now().UTC(),
			Op:        "set_time_offset",
			Registrar: registrarKey.String(),
		},
		txn,
	)
	if err != nil {
		return err
	}
	return txn.Commit()
}

// VoterWeight computes a voter's current total vote weight, including
// lockup bonuses, valid for the current time
func (e *Engine) VoterWeight(
	registrarKey registry.Identity,
	voterAuthority registry.Identity,
) (uint64, error) {
	r, err := e.db.GetRegistrar(registrarKey, nil)
	if err != nil {
		return 0, err
	}
	now := r.CurrentTime(e.clock.UnixTime())
	v, err := e.db.GetVoter(
		registry.VoterKey(registrarKey, voterAuthority),
		nil,
	)
	if err != nil {
		return 0, err
	}
	return v.Weight(r, now)
}

// VoterBaselineWeight computes a voter's vote weight ignoring all
// lockup bonuses
func (e *Engine) VoterBaselineWeight(
	registrarKey registry.Identity,
	voterAuthority registry.Identity,
) (uint64, error) {
	r, err := e.db.GetRegistrar(registrarKey, nil)
	if err != nil {
		return 0, err
	}
	v, err := e.db.GetVoter(
		registry.VoterKey(registrarKey, voterAuthority),
		nil,
	)
	if err != nil {
		return 0, err
	}
	return v.BaselineWeight(r)
}

// MaxVoteWeight computes the largest possible vote weight over all of a
// registrar's configured mints, given each mint's total supply indexed
// by config slot
func (e *Engine) MaxVoteWeight(
	registrarKey registry.Identity,
	supplies [registry.MaxVotingMints]uint64,
) (uint64, error) {
	r, err := e.db.GetRegistrar(registrarKey, nil)
	if err != nil {
		return 0, err
	}
	return r.MaxVoteWeight(supplies)
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, registry.ErrOverflow
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, registry.ErrOverflow
	}
	return diff, nil
}
