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
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/blinklabs-io/vestry/registry"
)

var (
	ErrKeyNotFound = errors.New("key not found in keystore")
	ErrKeyExists   = errors.New("key already exists in keystore")
)

// KeystoreConfig holds the configuration for a keystore
type KeystoreConfig struct {
	Logger *slog.Logger
	// Dir is the directory holding key files
	Dir string
	// Encrypted enables SOPS encryption of key files at rest
	Encrypted bool
}

// Keystore manages the signing keys behind authority identities. Each
// key is an Ed25519 keypair stored in its own file; the identity
// derived from a key is its 32-byte public key.
type Keystore struct {
	mutex  sync.RWMutex
	logger *slog.Logger
	config KeystoreConfig
	keys   map[string]ed25519.PrivateKey
}

// New creates a keystore and loads any existing key files from the
// configured directory
func New(cfg KeystoreConfig) (*Keystore, error) {
	k := &Keystore{
		config: cfg,
		keys:   make(map[string]ed25519.PrivateKey),
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		k.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		k.logger = cfg.Logger
	}
	if cfg.Dir != "" {
		if err := k.loadDir(); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func (k *Keystore) loadDir() error {
	entries, err := os.ReadDir(k.config.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read keystore dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() ||
			!strings.HasSuffix(entry.Name(), keyFileSuffix) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), keyFileSuffix)
		key, err := loadKeyFromFile(
			filepath.Join(k.config.Dir, entry.Name()),
			k.config.Encrypted,
		)
		if err != nil {
			return err
		}
		k.keys[name] = key
		k.logger.Debug(
			"loaded key",
			"component", "keystore",
			"name", name,
		)
	}
	return nil
}

// Generate creates a new named keypair, persists it when a directory is
// configured, and returns its identity
func (k *Keystore) Generate(name string) (registry.Identity, error) {
	k.mutex.Lock()
	defer k.mutex.Unlock()
	if _, ok := k.keys[name]; ok {
		return registry.Identity{}, ErrKeyExists
	}
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return registry.Identity{}, err
	}
	if k.config.Dir != "" {
		err := saveKeyToFile(
			filepath.Join(k.config.Dir, name+keyFileSuffix),
			priv,
			k.config.Encrypted,
		)
		if err != nil {
			return registry.Identity{}, err
		}
	}
	k.keys[name] = priv
	return registry.NewIdentityFromBytes(pub)
}

// Identity returns the identity for a named key
func (k *Keystore) Identity(name string) (registry.Identity, error) {
	k.mutex.RLock()
	defer k.mutex.RUnlock()
	priv, ok := k.keys[name]
	if !ok {
		return registry.Identity{}, ErrKeyNotFound
	}
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return registry.Identity{}, errors.New("unexpected public key type")
	}
	return registry.NewIdentityFromBytes(pub)
}

// Sign signs a message with a named key
func (k *Keystore) Sign(name string, message []byte) ([]byte, error) {
	k.mutex.RLock()
	defer k.mutex.RUnlock()
	priv, ok := k.keys[name]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return ed25519.Sign(priv, message), nil
}

// Names returns the sorted names of all loaded keys
func (k *Keystore) Names() []string {
	k.mutex.RLock()
	defer k.mutex.RUnlock()
	ret := make([]string, 0, len(k.keys))
	for name := range k.keys {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Verify checks a signature against the identity that signed it
func Verify(id registry.Identity, message, signature []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(id[:]), message, signature)
}
