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

package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blinklabs-io/vestry/api"
	"github.com/blinklabs-io/vestry/database"
	"github.com/blinklabs-io/vestry/engine"
	"github.com/blinklabs-io/vestry/registry"
)

type stubClock struct {
	ts   int64
	slot uint64
}

func (c *stubClock) UnixTime() int64 {
	return c.ts
}

func (c *stubClock) Slot() uint64 {
	return c.slot
}

func testIdentity(fill byte) registry.Identity {
	var ret registry.Identity
	for i := range ret {
		ret[i] = fill
	}
	return ret
}

func testServer(t *testing.T) (*httptest.Server, *engine.MemoryVault, *stubClock) {
	t.Helper()
	db, err := database.New(
		&database.Config{
			DataDir: t.TempDir(),
		},
	)
	if err != nil {
		t.Fatalf("unexpected error creating database: %s", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("unexpected error closing database: %s", err)
		}
	})
	vault := engine.NewMemoryVault()
	clock := &stubClock{ts: 1_700_000_000, slot: 1}
	eng := engine.New(engine.Config{
		Database: db,
		Custody:  vault,
		Clock:    clock,
	})
	a := api.NewApi(api.ApiConfig{Engine: eng})
	server := httptest.NewServer(a.Handler())
	t.Cleanup(server.Close)
	return server, vault, clock
}

func postJson(
	t *testing.T,
	server *httptest.Server,
	path string,
	body any,
	expectedStatus int,
) []byte {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("unexpected error marshaling request: %s", err)
	}
	resp, err := http.Post(
		server.URL+path,
		"application/json",
		bytes.NewReader(data),
	)
	if err != nil {
		t.Fatalf("unexpected error posting to %s: %s", path, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("unexpected error reading response: %s", err)
	}
	if resp.StatusCode != expectedStatus {
		t.Fatalf(
			"did not get expected status for %s: got %d, wanted %d (body: %s)",
			path,
			resp.StatusCode,
			expectedStatus,
			buf.String(),
		)
	}
	return buf.Bytes()
}

func getJson(
	t *testing.T,
	server *httptest.Server,
	path string,
	expectedStatus int,
) []byte {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	if err != nil {
		t.Fatalf("unexpected error getting %s: %s", path, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("unexpected error reading response: %s", err)
	}
	if resp.StatusCode != expectedStatus {
		t.Fatalf(
			"did not get expected status for %s: got %d, wanted %d (body: %s)",
			path,
			resp.StatusCode,
			expectedStatus,
			buf.String(),
		)
	}
	return buf.Bytes()
}

func TestApiLifecycle(t *testing.T) {
	server, vault, clock := testServer(t)
	mint := testIdentity(0x01)
	realmAuthority := testIdentity(0x02)
	voterAuthority := testIdentity(0x05)
	vault.Mint(voterAuthority, mint, 100_000)
	// Create registrar
	body := postJson(t, server, "/api/registrar", map[string]any{
		"governanceProgram":  testIdentity(0x10),
		"realm":              testIdentity(0x11),
		"governingTokenMint": mint,
		"realmAuthority":     realmAuthority,
		"clawbackAuthority":  testIdentity(0x03),
		"debug":              true,
	}, http.StatusCreated)
	var registrarResp struct {
		Registrar registry.Identity `json:"registrar"`
	}
	if err := json.Unmarshal(body, &registrarResp); err != nil {
		t.Fatalf("unexpected error unmarshaling response: %s", err)
	}
	registrarKey := registrarResp.Registrar
	// Creating the same registrar again conflicts
	postJson(t, server, "/api/registrar", map[string]any{
		"governanceProgram":  testIdentity(0x10),
		"realm":              testIdentity(0x11),
		"governingTokenMint": mint,
		"realmAuthority":     realmAuthority,
		"clawbackAuthority":  testIdentity(0x03),
		"debug":              true,
	}, http.StatusConflict)
	// Configure a voting mint
	postJson(t, server, "/api/registrar/mint", map[string]any{
		"registrar":            registrarKey,
		"authority":            realmAuthority,
		"idx":                  0,
		"mint":                 mint,
		"unlockedScaledFactor": registry.FactorScale,
		"lockupScaledFactor":   registry.FactorScale,
		"lockupSaturationSecs": 86400,
	}, http.StatusNoContent)
	// Wrong authority is forbidden
	postJson(t, server, "/api/registrar/mint", map[string]any{
		"registrar":            registrarKey,
		"authority":            testIdentity(0x99),
		"idx":                  1,
		"mint":                 testIdentity(0x31),
		"unlockedScaledFactor": registry.FactorScale,
		"lockupSaturationSecs": 86400,
	}, http.StatusForbidden)
	// Create voter and deposit entry
	postJson(t, server, "/api/voter", map[string]any{
		"registrar":      registrarKey,
		"voterAuthority": voterAuthority,
	}, http.StatusCreated)
	body = postJson(t, server, "/api/deposit-entry", map[string]any{
		"registrar":      registrarKey,
		"voterAuthority": voterAuthority,
		"mint":           mint,
		"kind":           "none",
		"periods":        0,
	}, http.StatusCreated)
	var entryResp struct {
		EntryIdx uint8 `json:"entryIdx"`
	}
	if err := json.Unmarshal(body, &entryResp); err != nil {
		t.Fatalf("unexpected error unmarshaling response: %s", err)
	}
	// An unknown lockup kind is rejected
	postJson(t, server, "/api/deposit-entry", map[string]any{
		"registrar":      registrarKey,
		"voterAuthority": voterAuthority,
		"mint":           mint,
		"kind":           "hourly",
	}, http.StatusBadRequest)
	// Deposit and check weight
	postJson(t, server, "/api/deposit", map[string]any{
		"registrar":      registrarKey,
		"voterAuthority": voterAuthority,
		"depositor":      voterAuthority,
		"entryIdx":       entryResp.EntryIdx,
		"amount":         12345,
	}, http.StatusNoContent)
	clock.slot++
	weightPath := fmt.Sprintf(
		"/api/voter/weight?registrar=%s&voterAuthority=%s",
		registrarKey,
		voterAuthority,
	)
	body = getJson(t, server, weightPath, http.StatusOK)
	var weightResp struct {
		Weight         uint64 `json:"weight"`
		BaselineWeight uint64 `json:"baselineWeight"`
	}
	if err := json.Unmarshal(body, &weightResp); err != nil {
		t.Fatalf("unexpected error unmarshaling response: %s", err)
	}
	if weightResp.Weight != 12345 || weightResp.BaselineWeight != 12345 {
		t.Fatalf(
			"did not get expected weights: got %d/%d, wanted 12345/12345",
			weightResp.Weight,
			weightResp.BaselineWeight,
		)
	}
	// Voter info includes the deposit projection
	infoPath := fmt.Sprintf(
		"/api/voter/info?registrar=%s&voterAuthority=%s",
		registrarKey,
		voterAuthority,
	)
	body = getJson(t, server, infoPath, http.StatusOK)
	var info engine.VoterInfo
	if err := json.Unmarshal(body, &info); err != nil {
		t.Fatalf("unexpected error unmarshaling response: %s", err)
	}
	if len(info.Deposits) != 1 {
		t.Fatalf(
			"did not get expected deposit count: got %d, wanted %d",
			len(info.Deposits),
			1,
		)
	}
	if info.Deposits[0].AmountDeposited != 12345 {
		t.Fatalf(
			"did not get expected deposited amount: got %d, wanted %d",
			info.Deposits[0].AmountDeposited,
			12345,
		)
	}
	// Withdraw and close out
	postJson(t, server, "/api/withdraw", map[string]any{
		"registrar":      registrarKey,
		"voterAuthority": voterAuthority,
		"destination":    voterAuthority,
		"entryIdx":       entryResp.EntryIdx,
		"amount":         12345,
	}, http.StatusNoContent)
	postJson(t, server, "/api/deposit-entry/close", map[string]any{
		"registrar":      registrarKey,
		"voterAuthority": voterAuthority,
		"entryIdx":       entryResp.EntryIdx,
	}, http.StatusNoContent)
	postJson(t, server, "/api/voter/close", map[string]any{
		"registrar":      registrarKey,
		"voterAuthority": voterAuthority,
	}, http.StatusNoContent)
	// The journal recorded the committed operations
	body = getJson(t, server, "/api/journal", http.StatusOK)
	var entries []database.JournalEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		t.Fatalf("unexpected error unmarshaling response: %s", err)
	}
	var ops []string
	for _, entry := range entries {
		ops = append(ops, entry.Op)
	}
	expectedOps := []string{
		"create_registrar",
		"configure_voting_mint",
		"create_voter",
		"create_deposit_entry",
		"deposit",
		"withdraw",
		"close_deposit_entry",
		"close_voter",
	}
	if len(ops) != len(expectedOps) {
		t.Fatalf(
			"did not get expected journal ops: got %v, wanted %v",
			ops,
			expectedOps,
		)
	}
	for i := range expectedOps {
		if ops[i] != expectedOps[i] {
			t.Fatalf(
				"did not get expected journal op at %d: got %q, wanted %q",
				i,
				ops[i],
				expectedOps[i],
			)
		}
	}
}

func TestApiUnknownVoter(t *testing.T) {
	server, _, _ := testServer(t)
	postJson(t, server, "/api/registrar", map[string]any{
		"governanceProgram":  testIdentity(0x10),
		"realm":              testIdentity(0x11),
		"governingTokenMint": testIdentity(0x01),
		"realmAuthority":     testIdentity(0x02),
		"clawbackAuthority":  testIdentity(0x03),
	}, http.StatusCreated)
	registrarKey := registry.RegistrarKey(
		testIdentity(0x10),
		testIdentity(0x11),
		testIdentity(0x01),
	)
	path := fmt.Sprintf(
		"/api/voter/weight?registrar=%s&voterAuthority=%s",
		registrarKey,
		testIdentity(0x42),
	)
	getJson(t, server, path, http.StatusNotFound)
}

func TestApiMethodNotAllowed(t *testing.T) {
	server, _, _ := testServer(t)
	getJson(t, server, "/api/registrar", http.StatusMethodNotAllowed)
}
