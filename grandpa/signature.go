// Copyright 2025 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package grandpa

import (
	"github.com/ChainSafe/gossamer/lib/crypto/ed25519"
)

// AuthoritySignature is an ed25519 authority signature.
type AuthoritySignature [64]byte

// AuthorityID is an ed25519 authority public key, held as a string so it can
// be used as a voter set identifier.
type AuthorityID = string

// NewAuthorityID returns the voter set identifier for a raw ed25519 public key.
func NewAuthorityID(publicKey []byte) AuthorityID {
	return AuthorityID(publicKey)
}

// Ed25519SignatureVerifier verifies authority signatures with the ed25519
// scheme used by GRANDPA on Polkadot-like chains. The authority id is the raw
// public key.
type Ed25519SignatureVerifier struct{}

var _ SignatureVerifier[AuthoritySignature, AuthorityID] = Ed25519SignatureVerifier{}

// Verify implements SignatureVerifier. A malformed public key counts as a
// failed verification rather than an error, matching the treatment of any
// other invalid vote.
func (Ed25519SignatureVerifier) Verify(message []byte, id AuthorityID, signature AuthoritySignature) bool {
	publicKey, err := ed25519.NewPublicKey([]byte(id))
	if err != nil {
		return false
	}
	ok, err := publicKey.Verify(message, signature[:])
	return err == nil && ok
}
