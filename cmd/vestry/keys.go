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

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/vestry/internal/config"
	"github.com/blinklabs-io/vestry/keystore"
	"github.com/spf13/cobra"
)

func openKeystore(cfg *config.Config) (*keystore.Keystore, error) {
	if cfg.KeystoreDir == "" {
		return nil, fmt.Errorf("no keystore directory configured")
	}
	if err := os.MkdirAll(cfg.KeystoreDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}
	return keystore.New(keystore.KeystoreConfig{
		Dir:       cfg.KeystoreDir,
		Encrypted: cfg.KeystoreEncrypted,
	})
}

func keysGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate [name]",
		Short: "Generate a new authority key",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			ks, err := openKeystore(cfg)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			id, err := ks.Generate(args[0])
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			fmt.Printf("%s %s\n", args[0], id)
		},
	}
}

func keysListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List authority keys and their identities",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			ks, err := openKeystore(cfg)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			for _, name := range ks.Names() {
				id, err := ks.Identity(name)
				if err != nil {
					slog.Error(err.Error())
					os.Exit(1)
				}
				fmt.Printf("%s %s\n", name, id)
			}
		},
	}
}

func keysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage authority keys",
	}
	cmd.AddCommand(keysGenerateCommand())
	cmd.AddCommand(keysListCommand())
	return cmd
}
