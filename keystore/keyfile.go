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

package keystore

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

const (
	keyFileSuffix = ".vkey"
	keyFileType   = "VestryAuthorityKey"
)

type keyFile struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Hex         string `json:"hex"`
}

func loadKeyFromFile(path string, encrypted bool) (ed25519.PrivateKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}
	defer f.Close()
	// Check the permissions on the open filehandle rather than the
	// path to avoid the file changing underneath us
	if err := checkOpenFilePermissions(f); err != nil {
		return nil, fmt.Errorf("key file %s: %w", path, err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	if encrypted {
		data, err = decryptKeyFile(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt key file: %w", err)
		}
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("failed to parse key file: %w", err)
	}
	if kf.Type != keyFileType {
		return nil, fmt.Errorf(
			"unexpected key file type: %s",
			kf.Type,
		)
	}
	keyBytes, err := hex.DecodeString(kf.Hex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode key: %w", err)
	}
	if len(keyBytes) != ed25519.SeedSize {
		return nil, fmt.Errorf(
			"unexpected key length: %d",
			len(keyBytes),
		)
	}
	return ed25519.NewKeyFromSeed(keyBytes), nil
}

func saveKeyToFile(
	path string,
	key ed25519.PrivateKey,
	encrypted bool,
) error {
	kf := keyFile{
		Type:        keyFileType,
		Description: "Authority Signing Key",
		Hex:         hex.EncodeToString(key.Seed()),
	}
	data, err := json.MarshalIndent(kf, "", "    ")
	if err != nil {
		return err
	}
	if encrypted {
		data, err = encryptKeyFile(data)
		if err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}
