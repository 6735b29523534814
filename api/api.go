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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/blinklabs-io/vestry/engine"
	"github.com/blinklabs-io/vestry/event"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// ServiceName is the name reported by the gRPC health service
const ServiceName = "vestry.api.v1.RegistryService"

type Api struct {
	config ApiConfig
}

type ApiConfig struct {
	Logger          *slog.Logger
	EventBus        *event.EventBus
	Engine          *engine.Engine
	Host            string
	Port            uint
	TlsCertFilePath string
	TlsKeyFilePath  string
}

func NewApi(cfg ApiConfig) *Api {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "api")
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
	return &Api{
		config: cfg,
	}
}

// Handler returns the full API handler, including the gRPC health
// service
func (a *Api) Handler() http.Handler {
	mux := http.NewServeMux()
	compress1KB := connect.WithCompressMinBytes(1024)
	mux.HandleFunc("/api/registrar", a.handleCreateRegistrar)
	mux.HandleFunc("/api/registrar/mint", a.handleConfigureVotingMint)
	mux.HandleFunc("/api/registrar/time-offset", a.handleSetTimeOffset)
	mux.HandleFunc("/api/registrar/max-vote-weight", a.handleMaxVoteWeight)
	mux.HandleFunc("/api/voter", a.handleCreateVoter)
	mux.HandleFunc("/api/voter/close", a.handleCloseVoter)
	mux.HandleFunc("/api/voter/weight", a.handleVoterWeight)
	mux.HandleFunc("/api/voter/info", a.handleVoterInfo)
	mux.HandleFunc("/api/deposit-entry", a.handleCreateDepositEntry)
	mux.HandleFunc("/api/deposit-entry/close", a.handleCloseDepositEntry)
	mux.HandleFunc("/api/deposit", a.handleDeposit)
	mux.HandleFunc("/api/withdraw", a.handleWithdraw)
	mux.HandleFunc("/api/grant", a.handleGrant)
	mux.HandleFunc("/api/clawback", a.handleClawback)
	mux.HandleFunc("/api/reset-lockup", a.handleResetLockup)
	mux.HandleFunc("/api/transfer/locked", a.handleTransferLocked)
	mux.HandleFunc("/api/transfer/unlocked", a.handleTransferUnlocked)
	mux.HandleFunc("/api/journal", a.handleJournal)
	mux.Handle(
		grpchealth.NewHandler(
			grpchealth.NewStaticChecker(ServiceName),
			compress1KB,
		),
	)
	return mux
}

func (a *Api) Start() error {
	mux := a.Handler()
	if a.config.TlsCertFilePath != "" && a.config.TlsKeyFilePath != "" {
		a.config.Logger.Info(
			fmt.Sprintf(
				"starting API TLS listener on %s:%d",
				a.config.Host,
				a.config.Port,
			),
		)
		server := &http.Server{
			Addr: fmt.Sprintf(
				"%s:%d",
				a.config.Host,
				a.config.Port,
			),
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
		}
		return server.ListenAndServeTLS(
			a.config.TlsCertFilePath,
			a.config.TlsKeyFilePath,
		)
	} else {
		a.config.Logger.Info(
			fmt.Sprintf(
				"starting API listener on %s:%d",
				a.config.Host,
				a.config.Port,
			),
		)
		server := &http.Server{
			Addr: fmt.Sprintf(
				"%s:%d",
				a.config.Host,
				a.config.Port,
			),
			// Use h2c so we can serve HTTP/2 without TLS
			Handler:           h2c.NewHandler(mux, &http2.Server{}),
			ReadHeaderTimeout: 60 * time.Second,
		}
		return server.ListenAndServe()
	}
}
