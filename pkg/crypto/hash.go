// Package crypto implements the KlingVM signing core: recoverable low-S
// ECDSA, BIP340 Schnorr, an address-committing Schnorr variant for cheap
// on-chain verification, and the wire codecs for all of them.
//
// Curve arithmetic is delegated to decred's secp256k1 package; everything
// here is byte-compatible with EVM tooling.
package crypto

import (
	"github.com/Klingon-tech/klingvm-sdk/pkg/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/sha3"
)

// Keccak256 computes the legacy (non-NIST-padded) Keccak-256 hash of the
// concatenation of the given chunks.
func Keccak256(chunks ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, c := range chunks {
		h.Write(c)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// Keccak256Hash is Keccak256 returning a types.Hash.
func Keccak256Hash(chunks ...[]byte) types.Hash {
	return types.Hash(Keccak256(chunks...))
}

// AddressFromPubKey derives the account address for a public key.
// Address = Keccak256(uncompressed_pubkey[1:])[12:].
func AddressFromPubKey(pub *secp256k1.PublicKey) types.Address {
	h := Keccak256(pub.SerializeUncompressed()[1:])
	var addr types.Address
	copy(addr[:], h[32-types.AddressSize:])
	return addr
}
