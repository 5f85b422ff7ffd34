// Package wallet implements BIP-39 mnemonics, the BIP-32 derivation tree,
// and encrypted seed storage for KlingVM accounts.
package wallet

import (
	"crypto/sha512"
	"fmt"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"
)

// Seed derivation parameters fixed by BIP-39.
const (
	// SeedSize is the length of a derived seed in bytes (512 bits).
	SeedSize = 64

	// seedSaltPrefix is the PBKDF2 salt prefix; the optional passphrase is
	// appended to it.
	seedSaltPrefix = "mnemonic"

	// seedIterations is the PBKDF2 iteration count.
	seedIterations = 2048
)

// MnemonicEntropyBits is the entropy size for 24-word mnemonics.
const MnemonicEntropyBits = 256

// GenerateMnemonic creates a new 24-word BIP-39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks if a mnemonic is valid per BIP-39
// (correct word count, valid words, valid checksum).
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// MnemonicToSeed derives the 64-byte seed for a mnemonic phrase:
// PBKDF2-HMAC-SHA512 with salt "mnemonic" and 2048 iterations. The phrase
// is not validated against the wordlist; use ValidateMnemonic for that.
func MnemonicToSeed(mnemonic string) []byte {
	return MnemonicToSeedWithPassphrase(mnemonic, "")
}

// MnemonicToSeedWithPassphrase derives the seed with an optional BIP-39
// passphrase appended to the salt.
func MnemonicToSeedWithPassphrase(mnemonic, passphrase string) []byte {
	salt := []byte(seedSaltPrefix + passphrase)
	return pbkdf2.Key([]byte(mnemonic), salt, seedIterations, SeedSize, sha512.New)
}
