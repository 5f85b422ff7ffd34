package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Sealed-seed format:
// version(1) | salt(16) | time(4) | memory(4) | threads(1) | nonce(24) | box
const (
	sealVersion    = 1
	sealSaltSize   = 16
	sealHeaderSize = 1 + sealSaltSize + 4 + 4 + 1
)

// ErrBadPassphrase is returned when a sealed seed cannot be opened with
// the given passphrase.
var ErrBadPassphrase = errors.New("wrong passphrase or corrupted wallet")

// KDFParams holds the Argon2id parameters used to stretch a passphrase
// into a seal key.
type KDFParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultKDFParams returns the recommended Argon2id parameters.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Time:      3,
		MemoryKiB: 64 * 1024,
		Threads:   4,
	}
}

func (p KDFParams) key(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, p.Time, p.MemoryKiB, p.Threads, chacha20poly1305.KeySize)
}

// SealSeed encrypts a seed under a passphrase with Argon2id and
// XChaCha20-Poly1305. The KDF parameters are stored in the output so
// they can be raised later without breaking existing wallets.
func SealSeed(seed, passphrase []byte, params KDFParams) ([]byte, error) {
	salt := make([]byte, sealSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := params.key(passphrase, salt)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, sealHeaderSize+len(nonce)+len(seed)+aead.Overhead())
	out = append(out, sealVersion)
	out = append(out, salt...)
	out = binary.LittleEndian.AppendUint32(out, params.Time)
	out = binary.LittleEndian.AppendUint32(out, params.MemoryKiB)
	out = append(out, params.Threads)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, seed, nil), nil
}

// OpenSeed decrypts a sealed seed with the given passphrase.
func OpenSeed(sealed, passphrase []byte) ([]byte, error) {
	nonceSize := chacha20poly1305.NonceSizeX
	if len(sealed) < sealHeaderSize+nonceSize+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("sealed seed too short: %d bytes", len(sealed))
	}
	if sealed[0] != sealVersion {
		return nil, fmt.Errorf("unsupported seal version %d", sealed[0])
	}

	salt := sealed[1 : 1+sealSaltSize]
	params := KDFParams{
		Time:      binary.LittleEndian.Uint32(sealed[1+sealSaltSize:]),
		MemoryKiB: binary.LittleEndian.Uint32(sealed[1+sealSaltSize+4:]),
		Threads:   sealed[1+sealSaltSize+8],
	}
	nonce := sealed[sealHeaderSize : sealHeaderSize+nonceSize]
	box := sealed[sealHeaderSize+nonceSize:]

	key := params.key(passphrase, salt)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	seed, err := aead.Open(nil, nonce, box, nil)
	if err != nil {
		return nil, ErrBadPassphrase
	}
	return seed, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
