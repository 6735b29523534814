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
	"errors"
	"fmt"
	"os"

	sopsapi "github.com/getsops/sops/v3"
	"github.com/getsops/sops/v3/aes"
	sopsage "github.com/getsops/sops/v3/age"
	scommon "github.com/getsops/sops/v3/cmd/sops/common"
	"github.com/getsops/sops/v3/config"
	"github.com/getsops/sops/v3/decrypt"
	"github.com/getsops/sops/v3/gcpkms"
	awskms "github.com/getsops/sops/v3/kms"
	jsonstore "github.com/getsops/sops/v3/stores/json"
	"github.com/getsops/sops/v3/version"
)

// encryptKeyFile wraps a plaintext key file envelope in a SOPS binary
// document. Master keys come from the environment; at least one of
// VESTRY_AGE_RECIPIENTS, VESTRY_GCP_KMS_RESOURCE_ID, or
// VESTRY_AWS_KMS_KEY_ARNS must be set
func encryptKeyFile(data []byte) ([]byte, error) {
	store := jsonstore.NewBinaryStore(&config.JSONBinaryStoreConfig{})
	branches, err := store.LoadPlainFile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load key file content: %w", err)
	}
	// prevent double encryption
	for _, branch := range branches {
		for _, item := range branch {
			if item.Key == "sops" {
				return nil, errors.New("key file is already encrypted")
			}
		}
	}
	keyGroup, err := masterKeyGroupFromEnv()
	if err != nil {
		return nil, err
	}
	tree := sopsapi.Tree{
		Branches: branches,
		Metadata: sopsapi.Metadata{
			KeyGroups: []sopsapi.KeyGroup{keyGroup},
			Version:   version.Version,
		},
	}
	dataKey, errs := tree.GenerateDataKey()
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed generating data key: %v", errs)
	}
	if err := scommon.EncryptTree(scommon.EncryptTreeOpts{
		DataKey: dataKey,
		Tree:    &tree,
		Cipher:  aes.NewCipher(),
	}); err != nil {
		return nil, fmt.Errorf("failed to encrypt key file: %w", err)
	}
	return store.EmitEncryptedFile(tree)
}

func decryptKeyFile(data []byte) ([]byte, error) {
	return decrypt.Data(data, "binary")
}

// masterKeyGroupFromEnv builds a single SOPS key group from the
// VESTRY_* environment. Any combination of age recipients, Google KMS,
// and AWS KMS may be configured; every listed key can decrypt
func masterKeyGroupFromEnv() (sopsapi.KeyGroup, error) {
	var group sopsapi.KeyGroup
	if recipients := os.Getenv("VESTRY_AGE_RECIPIENTS"); recipients != "" {
		ageKeys, err := sopsage.MasterKeysFromRecipients(recipients)
		if err != nil {
			return nil, fmt.Errorf("invalid age recipients: %w", err)
		}
		for _, k := range ageKeys {
			group = append(group, k)
		}
	}
	if rid := os.Getenv("VESTRY_GCP_KMS_RESOURCE_ID"); rid != "" {
		for _, k := range gcpkms.MasterKeysFromResourceIDString(rid) {
			group = append(group, k)
		}
	}
	if arns := os.Getenv("VESTRY_AWS_KMS_KEY_ARNS"); arns != "" {
		profile := os.Getenv("VESTRY_AWS_KMS_PROFILE")
		for _, k := range awskms.MasterKeysFromArnString(arns, nil, profile) {
			group = append(group, k)
		}
	}
	if len(group) == 0 {
		return nil, errors.New(
			"key file encryption requires a master key: set VESTRY_AGE_RECIPIENTS, VESTRY_GCP_KMS_RESOURCE_ID, and/or VESTRY_AWS_KMS_KEY_ARNS",
		)
	}
	return group, nil
}
