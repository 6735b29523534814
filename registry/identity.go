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

package registry

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// IdentityHrp is the human-readable prefix used when rendering identities
const IdentityHrp = "vst"

var ErrInvalidIdentity = errors.New("invalid identity")

// Identity is an opaque 32-byte identifier for mints, realms, authorities
// and derived record addresses. The zero value means "unset".
type Identity [32]byte

// ZeroIdentity is the unset identity value
var ZeroIdentity = Identity{}

func (i Identity) IsZero() bool {
	return i == ZeroIdentity
}

func (i Identity) String() string {
	// Convert data to base32 and encode as bech32
	convData, err := bech32.ConvertBits(i[:], 8, 5, true)
	if err != nil {
		return ""
	}
	encoded, err := bech32.Encode(IdentityHrp, convData)
	if err != nil {
		return ""
	}
	return encoded
}

func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Identity) UnmarshalText(text []byte) error {
	tmpIdentity, err := NewIdentityFromBech32(string(text))
	if err != nil {
		return err
	}
	*i = tmpIdentity
	return nil
}

// NewIdentityFromBytes creates an Identity from a raw 32-byte value
func NewIdentityFromBytes(data []byte) (Identity, error) {
	var ret Identity
	if len(data) != len(ret) {
		return ret, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidIdentity,
			len(ret),
			len(data),
		)
	}
	copy(ret[:], data)
	return ret, nil
}

// NewIdentityFromBech32 parses a bech32-encoded identity
func NewIdentityFromBech32(encoded string) (Identity, error) {
	var ret Identity
	hrp, convData, err := bech32.Decode(encoded)
	if err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	if hrp != IdentityHrp {
		return ret, fmt.Errorf(
			"%w: unexpected prefix %q",
			ErrInvalidIdentity,
			hrp,
		)
	}
	data, err := bech32.ConvertBits(convData, 5, 8, false)
	if err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	return NewIdentityFromBytes(data)
}

// RegistrarKey derives the record address for a registrar from its realm
// and governing token mint
func RegistrarKey(governanceProgram, realm, governingTokenMint Identity) Identity {
	h := sha256.New()
	h.Write(governanceProgram[:])
	h.Write(realm[:])
	h.Write([]byte("registrar"))
	h.Write(governingTokenMint[:])
	return Identity(h.Sum(nil))
}

// VoterKey derives the record address for a voter from its registrar and
// owning authority
func VoterKey(registrar, voterAuthority Identity) Identity {
	h := sha256.New()
	h.Write(registrar[:])
	h.Write([]byte("voter"))
	h.Write(voterAuthority[:])
	return Identity(h.Sum(nil))
}

// VaultKey derives the custody account address holding deposits for one
// mint under a registrar
func VaultKey(registrar, mint Identity) Identity {
	h := sha256.New()
	h.Write(registrar[:])
	h.Write([]byte("vault"))
	h.Write(mint[:])
	return Identity(h.Sum(nil))
}
