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

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/engine"
	"github.com/blinklabs-io/vestry/lockup"
	"github.com/blinklabs-io/vestry/registry"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (a *Api) writeJson(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.config.Logger.Error("failed to encode response", "error", err)
	}
}

func (a *Api) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, registry.ErrInvalidAuthority),
		errors.Is(err, registry.ErrDebugInstruction):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrRegistrarExists),
		errors.Is(err, engine.ErrVoterExists):
		status = http.StatusConflict
	case errors.Is(err, registry.ErrDepositEntryFull),
		errors.Is(err, registry.ErrOutOfBoundsVotingMintConfigIndex),
		errors.Is(err, registry.ErrVotingMintConfigIndexAlreadyInUse),
		errors.Is(err, registry.ErrOutOfBoundsDepositEntryIndex),
		errors.Is(err, registry.ErrUnusedDepositEntryIndex),
		errors.Is(err, registry.ErrVotingMintNotFound),
		errors.Is(err, registry.ErrInvalidMint),
		errors.Is(err, registry.ErrInsufficientVestedTokens),
		errors.Is(err, registry.ErrInsufficientLockedTokens),
		errors.Is(err, registry.ErrVotingTokenNonZero),
		errors.Is(err, registry.ErrDepositStillLocked),
		errors.Is(err, registry.ErrOverflow),
		errors.Is(err, registry.ErrInvalidLockupSaturation),
		errors.Is(err, engine.ErrActiveVotesExist),
		errors.Is(err, engine.ErrSameSlotWithdraw),
		errors.Is(err, engine.ErrClawbackNotAllowed),
		errors.Is(err, engine.ErrLockupStrictnessDecrease),
		errors.Is(err, engine.ErrLockupDurationDecrease),
		errors.Is(err, engine.ErrVotingMintMismatch),
		errors.Is(err, engine.ErrInsufficientFunds),
		errors.Is(err, lockup.ErrInvalidLockupKind),
		errors.Is(err, lockup.ErrInvalidLockupPeriod),
		errors.Is(err, lockup.ErrInvalidPeriods):
		status = http.StatusBadRequest
	}
	a.writeJson(w, status, errorResponse{Error: err.Error()})
}

// decodeRequest enforces the POST method and decodes the JSON request
// body, writing the error response itself on failure
func (a *Api) decodeRequest(
	w http.ResponseWriter,
	r *http.Request,
	v any,
) bool {
	if r.Method != http.MethodPost {
		a.writeJson(
			w,
			http.StatusMethodNotAllowed,
			errorResponse{Error: "method not allowed"},
		)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.writeJson(
			w,
			http.StatusBadRequest,
			errorResponse{Error: "invalid request body: " + err.Error()},
		)
		return false
	}
	return true
}

// queryIdentity parses a bech32 identity from a query parameter,
// writing the error response itself on failure
func (a *Api) queryIdentity(
	w http.ResponseWriter,
	r *http.Request,
	param string,
) (registry.Identity, bool) {
	val := r.URL.Query().Get(param)
	if val == "" {
		a.writeJson(
			w,
			http.StatusBadRequest,
			errorResponse{Error: "missing query parameter: " + param},
		)
		return registry.Identity{}, false
	}
	id, err := registry.NewIdentityFromBech32(val)
	if err != nil {
		a.writeJson(
			w,
			http.StatusBadRequest,
			errorResponse{Error: "invalid " + param + ": " + err.Error()},
		)
		return registry.Identity{}, false
	}
	return id, true
}

type createRegistrarRequest struct {
	GovernanceProgram  registry.Identity `json:"governanceProgram"`
	Realm              registry.Identity `json:"realm"`
	GoverningTokenMint registry.Identity `json:"governingTokenMint"`
	RealmAuthority     registry.Identity `json:"realmAuthority"`
	ClawbackAuthority  registry.Identity `json:"clawbackAuthority"`
	Debug              bool              `json:"debug"`
}

type createRegistrarResponse struct {
	Registrar registry.Identity `json:"registrar"`
}

func (a *Api) handleCreateRegistrar(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req createRegistrarRequest
	if !a.decodeRequest(w, r, &req) {
		return
	}
	reg, err := a.config.Engine.CreateRegistrar(
		req.GovernanceProgram,
		req.Realm,
		req.GoverningTokenMint,
		req.RealmAuthority,
		req.ClawbackAuthority,
		req.Debug,
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJson(
		w,
		http.StatusCreated,
		createRegistrarResponse{Registrar: reg.Key()},
	)
}

type configureVotingMintRequest struct {
	Registrar            registry.Identity `json:"registrar"`
	Authority            registry.Identity `json:"authority"`
	Idx                  uint8             `json:"idx"`
	Mint                 registry.Identity `json:"mint"`
	GrantAuthority       registry.Identity `json:"grantAuthority"`
	UnlockedScaledFactor uint64            `json:"unlockedScaledFactor"`
	LockupScaledFactor   uint64            `json:"lockupScaledFactor"`
	LockupSaturationSecs uint64            `json:"lockupSaturationSecs"`
	DigitShift           int8              `json:"digitShift"`
}

func (a *Api) handleConfigureVotingMint(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req configureVotingMintRequest
	if !a.decodeRequest(w, r, &req) {
		return
	}
	err := a.config.Engine.ConfigureVotingMint(
		req.Registrar,
		req.Authority,
		req.Idx,
		registry.VotingMintConfig{
			Mint:                 req.Mint,
			GrantAuthority:       req.GrantAuthority,
			UnlockedScaledFactor: req.UnlockedScaledFactor,
			LockupScaledFactor:   req.LockupScaledFactor,
			LockupSaturationSecs: req.LockupSaturationSecs,
			DigitShift:           req.DigitShift,
		},
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setTimeOffsetRequest struct {
	Registrar registry.Identity `json:"registrar"`
	Authority registry.Identity `json:"authority"`
	Offset    int64             `json:"offset"`
}

func (a *Api) handleSetTimeOffset(w http.ResponseWriter, r *http.Request) {
	var req setTimeOffsetRequest
	if !a.decodeRequest(w, r, &req) {
		return
	}
	err := a.config.Engine.SetTimeOffset(
		req.Registrar,
		req.Authority,
		req.Offset,
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type maxVoteWeightRequest struct {
	Registrar registry.Identity               `json:"registrar"`
	Supplies  [registry.MaxVotingMints]uint64 `json:"supplies"`
}

type maxVoteWeightResponse struct {
	MaxVoteWeight uint64 `json:"maxVoteWeight"`
}

func (a *Api) handleMaxVoteWeight(w http.ResponseWriter, r *http.Request) {
	var req maxVoteWeightRequest
	if !a.decodeRequest(w, r, &req) {
		return
	}
	weight, err := a.config.Engine.MaxVoteWeight(
		req.Registrar,
		req.Supplies,
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJson(
		w,
		http.StatusOK,
		maxVoteWeightResponse{MaxVoteWeight: weight},
	)
}

type createVoterRequest struct {
	Registrar      registry.Identity `json:"registrar"`
	VoterAuthority registry.Identity `json:"voterAuthority"`
}

type createVoterResponse struct {
	Voter registry.Identity `json:"voter"`
}

func (a *Api) handleCreateVoter(w http.ResponseWriter, r *http.Request) {
	var req createVoterRequest
	if !a.decodeRequest(w, r, &req) {
		return
	}
	v, err := a.config.Engine.CreateVoter(req.Registrar, req.VoterAuthority)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJson(w, http.StatusCreated, createVoterResponse{Voter: v.Key()})
}

func (a *Api) handleCloseVoter(w http.ResponseWriter, r *http.Request) {
	var req createVoterRequest
	if !a.decodeRequest(w, r, &req) {
		return
	}
	err := a.config.Engine.CloseVoter(req.Registrar, req.VoterAuthority)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type voterWeightResponse struct {
	Weight         uint64 `json:"weight"`
	BaselineWeight uint64 `json:"baselineWeight"`
}

func (a *Api) handleVoterWeight(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeJson(
			w,
			http.StatusMethodNotAllowed,
			errorResponse{Error: "method not allowed"},
		)
		return
	}
	registrarKey, ok := a.queryIdentity(w, r, "registrar")
	if !ok {
		return
	}
	voterAuthority, ok := a.queryIdentity(w, r, "voterAuthority")
	if !ok {
		return
	}
	weight, err := a.config.Engine.VoterWeight(registrarKey, voterAuthority)
	if err != nil {
		a.writeError(w, err)
		return
	}
	baseline, err := a.config.Engine.VoterBaselineWeight(
		registrarKey,
		voterAuthority,
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJson(
		w,
		http.StatusOK,
		voterWeightResponse{Weight: weight, BaselineWeight: baseline},
	)
}

func (a *Api) handleVoterInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeJson(
			w,
			http.StatusMethodNotAllowed,
			errorResponse{Error: "method not allowed"},
		)
		return
	}
	registrarKey, ok := a.queryIdentity(w, r, "registrar")
	if !ok {
		return
	}
	voterAuthority, ok := a.queryIdentity(w, r, "voterAuthority")
	if !ok {
		return
	}
	info, err := a.config.Engine.VoterInfo(registrarKey, voterAuthority)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJson(w, http.StatusOK, info)
}

type createDepositEntryRequest struct {
	Registrar      registry.Identity `json:"registrar"`
	VoterAuthority registry.Identity `json:"voterAuthority"`
	Mint           registry.Identity `json:"mint"`
	Kind           string            `json:"kind"`
	StartTs        int64             `json:"startTs"`
	Periods        uint32            `json:"periods"`
	AllowClawback  bool              `json:"allowClawback"`
}

type depositEntryResponse struct {
	EntryIdx uint8 `json:"entryIdx"`
}

func (a *Api) handleCreateDepositEntry(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req createDepositEntryRequest
	if !a.decodeRequest(w, r, &req) {
		return
	}
	kind, err := lockup.KindFromString(req.Kind)
	if err != nil {
		a.writeError(w, err)
		return
	}
	idx, err := a.config.Engine.CreateDepositEntry(
		req.Registrar,
		req.VoterAuthority,
		req.Mint,
		kind,
		req.StartTs,
		req.Periods,
		req.AllowClawback,
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJson(w, http.StatusCreated, depositEntryResponse{EntryIdx: idx})
}

type closeDepositEntryRequest struct {
	Registrar      registry.Identity `json:"registrar"`
	VoterAuthority registry.Identity `json:"voterAuthority"`
	EntryIdx       uint8             `json:"entryIdx"`
}

func (a *Api) handleCloseDepositEntry(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req closeDepositEntryRequest
	if !a.decodeRequest(w, r, &req) {
		return
	}
	err := a.config.Engine.CloseDepositEntry(
		req.Registrar,
		req.VoterAuthority,
		req.EntryIdx,
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type depositRequest struct {
	Registrar      registry.Identity `json:"registrar"`
	VoterAuthority registry.Identity `json:"voterAuthority"`
	Depositor      registry.Identity `json:"depositor"`
	EntryIdx       uint8             `json:"entryIdx"`
	Amount         uint64            `json:"amount"`
}

func (a *Api) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !a.decodeRequest(w, r, &req) {
		return
	}
	err := a.config.Engine.Deposit(
		req.Registrar,
		req.VoterAuthority,
		req.Depositor,
		req.EntryIdx,
		req.Amount,
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type withdrawRequest struct {
	Registrar      registry.Identity `json:"registrar"`
	VoterAuthority registry.Identity `json:"voterAuthority"`
	Destination    registry.Identity `json:"destination"`
	EntryIdx       uint8             `json:"entryIdx"`
	Amount         uint64            `json:"amount"`
}

func (a *Api) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if !a.decodeRequest(w, r, &req) {
		return
	}
	err := a.config.Engine.Withdraw(
		req.Registrar,
		req.VoterAuthority,
		req.Destination,
		req.EntryIdx,
		req.Amount,
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type grantRequest struct {
	Registrar      registry.Identity `json:"registrar"`
	Authority      registry.Identity `json:"authority"`
	VoterAuthority registry.Identity `json:"voterAuthority"`
	Mint           registry.Identity `json:"mint"`
	Kind           string            `json:"kind"`
	StartTs        int64             `json:"startTs"`
	Periods        uint32            `json:"periods"`
	AllowClawback  bool              `json:"allowClawback"`
	Amount         uint64            `json:"amount"`
}

func (a *Api) handleGrant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if !a.decodeRequest(w, r, &req) {
		return
	}
	kind, err := lockup.KindFromString(req.Kind)
	if err != nil {
		a.writeError(w, err)
		return
	}
	idx, err := a.config.Engine.Grant(
		req.Registrar,
		req.Authority,
		req.VoterAuthority,
		req.Mint,
		kind,
		req.StartTs,
		req.Periods,
		req.AllowClawback,
		req.Amount,
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJson(w, http.StatusCreated, depositEntryResponse{EntryIdx: idx})
}

type clawbackRequest struct {
	Registrar      registry.Identity `json:"registrar"`
	Authority      registry.Identity `json:"authority"`
	VoterAuthority registry.Identity `json:"voterAuthority"`
	EntryIdx       uint8             `json:"entryIdx"`
}

type clawbackResponse struct {
	Amount uint64 `json:"amount"`
}

func (a *Api) handleClawback(w http.ResponseWriter, r *http.Request) {
	var req clawbackRequest
	if !a.decodeRequest(w, r, &req) {
		return
	}
	amount, err := a.config.Engine.Clawback(
		req.Registrar,
		req.Authority,
		req.VoterAuthority,
		req.EntryIdx,
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJson(w, http.StatusOK, clawbackResponse{Amount: amount})
}

type resetLockupRequest struct {
	Registrar      registry.Identity `json:"registrar"`
	VoterAuthority registry.Identity `json:"voterAuthority"`
	EntryIdx       uint8             `json:"entryIdx"`
	Kind           string            `json:"kind"`
	Periods        uint32            `json:"periods"`
}

func (a *Api) handleResetLockup(w http.ResponseWriter, r *http.Request) {
	var req resetLockupRequest
	if !a.decodeRequest(w, r, &req) {
		return
	}
	kind, err := lockup.KindFromString(req.Kind)
	if err != nil {
		a.writeError(w, err)
		return
	}
	err = a.config.Engine.ResetLockup(
		req.Registrar,
		req.VoterAuthority,
		req.EntryIdx,
		kind,
		req.Periods,
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transferRequest struct {
	Registrar      registry.Identity `json:"registrar"`
	VoterAuthority registry.Identity `json:"voterAuthority"`
	SourceIdx      uint8             `json:"sourceIdx"`
	TargetIdx      uint8             `json:"targetIdx"`
	Amount         uint64            `json:"amount"`
}

func (a *Api) handleTransferLocked(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !a.decodeRequest(w, r, &req) {
		return
	}
	err := a.config.Engine.InternalTransferLocked(
		req.Registrar,
		req.VoterAuthority,
		req.SourceIdx,
		req.TargetIdx,
		req.Amount,
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Api) handleTransferUnlocked(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req transferRequest
	if !a.decodeRequest(w, r, &req) {
		return
	}
	err := a.config.Engine.InternalTransferUnlocked(
		req.Registrar,
		req.VoterAuthority,
		req.SourceIdx,
		req.TargetIdx,
		req.Amount,
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Api) handleJournal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.writeJson(
			w,
			http.StatusMethodNotAllowed,
			errorResponse{Error: "method not allowed"},
		)
		return
	}
	var startSeq uint64
	limit := 100
	if val := r.URL.Query().Get("start"); val != "" {
		parsed, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			a.writeJson(
				w,
				http.StatusBadRequest,
				errorResponse{Error: "invalid start: " + err.Error()},
			)
			return
		}
		startSeq = parsed
	}
	if val := r.URL.Query().Get("limit"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil || parsed < 0 {
			a.writeJson(
				w,
				http.StatusBadRequest,
				errorResponse{Error: "invalid limit"},
			)
			return
		}
		limit = parsed
	}
	entries, err := a.config.Engine.Database().
		JournalEntries(startSeq, limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []database.JournalEntry{}
	}
	a.writeJson(w, http.StatusOK, entries)
}
