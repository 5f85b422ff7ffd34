package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingvm-sdk/pkg/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Wire sizes for the signature codecs.
const (
	// SignatureSize is the length of a serialized ECDSA signature: r || s || v.
	SignatureSize = 65

	// SchnorrSignatureSize is the length of a serialized BIP340 signature: r || s.
	SchnorrSignatureSize = 64

	// EthereumSchnorrSignatureSize is the length of a serialized
	// address-committing Schnorr signature with an uncompressed nonce
	// point: s || x || y.
	EthereumSchnorrSignatureSize = 96

	// CompressedEthereumSchnorrSignatureSize is the length of the
	// compressed form: address || s.
	CompressedEthereumSchnorrSignatureSize = 52
)

// Signature is a recoverable ECDSA signature. V is the recovery parity bit
// (0 or 1), not the legacy 27/28 encoding. Signatures produced by
// ECDSASigner always satisfy s <= order/2.
type Signature struct {
	R secp256k1.ModNScalar
	S secp256k1.ModNScalar
	V byte
}

// Serialize returns the 65-byte encoding r(32) || s(32) || v(1).
func (sig *Signature) Serialize() []byte {
	out := make([]byte, SignatureSize)
	r := sig.R.Bytes()
	s := sig.S.Bytes()
	copy(out[:32], r[:])
	copy(out[32:64], s[:])
	out[64] = sig.V
	return out
}

// Hex returns the 0x-prefixed hex encoding of the 65-byte signature.
func (sig *Signature) Hex() string {
	return "0x" + hex.EncodeToString(sig.Serialize())
}

// ParseSignature decodes a 65-byte r || s || v signature. Both scalars
// must be in [1, order-1] and v must be 0 or 1.
func ParseSignature(b []byte) (*Signature, error) {
	if len(b) != SignatureSize {
		return nil, fmt.Errorf("%w: signature must be %d bytes, got %d", ErrInvalidLength, SignatureSize, len(b))
	}
	var sig Signature
	if overflow := sig.R.SetByteSlice(b[:32]); overflow || sig.R.IsZero() {
		return nil, fmt.Errorf("%w: r out of range", ErrInvalidSignature)
	}
	if overflow := sig.S.SetByteSlice(b[32:64]); overflow || sig.S.IsZero() {
		return nil, fmt.Errorf("%w: s out of range", ErrInvalidSignature)
	}
	if b[64] > 1 {
		return nil, fmt.Errorf("%w: recovery bit must be 0 or 1, got %d", ErrInvalidSignature, b[64])
	}
	sig.V = b[64]
	return &sig, nil
}

// ParseSignatureHex decodes a 0x-prefixed 130-character hex signature.
func ParseSignatureHex(s string) (*Signature, error) {
	raw, err := decodeHex(s, SignatureSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return ParseSignature(raw)
}

// CompactSignature is the EIP-2098 encoding of a recoverable signature:
// the recovery bit folded into the top bit of the big-endian s value.
// Bijective with Signature for canonical (low-S) signatures.
type CompactSignature struct {
	R           [32]byte
	YParityAndS [32]byte
}

// ToCompact folds the signature into its EIP-2098 compact form:
// yParityAndS = s | (v << 255).
func (sig *Signature) ToCompact() *CompactSignature {
	var c CompactSignature
	r := sig.R.Bytes()
	s := sig.S.Bytes()
	copy(c.R[:], r[:])
	copy(c.YParityAndS[:], s[:])
	if sig.V == 1 {
		c.YParityAndS[0] |= 0x80
	}
	return &c
}

// Signature unfolds the compact form back into a recoverable signature.
// The parity bit is always cleared before reading the s value, for either
// parity.
func (c *CompactSignature) Signature() (*Signature, error) {
	var sig Signature
	sig.V = c.YParityAndS[0] >> 7

	var sBytes [32]byte
	copy(sBytes[:], c.YParityAndS[:])
	sBytes[0] &= 0x7f

	if overflow := sig.R.SetBytes(&c.R) != 0; overflow || sig.R.IsZero() {
		return nil, fmt.Errorf("%w: r out of range", ErrInvalidSignature)
	}
	if overflow := sig.S.SetBytes(&sBytes) != 0; overflow || sig.S.IsZero() {
		return nil, fmt.Errorf("%w: s out of range", ErrInvalidSignature)
	}
	return &sig, nil
}

// Serialize returns the 64-byte encoding r(32) || yParityAndS(32).
func (c *CompactSignature) Serialize() []byte {
	out := make([]byte, 64)
	copy(out[:32], c.R[:])
	copy(out[32:], c.YParityAndS[:])
	return out
}

// ParseCompactSignature decodes a 64-byte EIP-2098 compact signature.
func ParseCompactSignature(b []byte) (*CompactSignature, error) {
	if len(b) != 64 {
		return nil, fmt.Errorf("%w: compact signature must be 64 bytes, got %d", ErrInvalidLength, len(b))
	}
	var c CompactSignature
	copy(c.R[:], b[:32])
	copy(c.YParityAndS[:], b[32:])
	return &c, nil
}

// SchnorrSignature is a BIP340 signature: the x-only nonce commitment r
// and the scalar s.
type SchnorrSignature struct {
	R [32]byte
	S [32]byte
}

// Serialize returns the 64-byte encoding r(32) || s(32).
func (sig *SchnorrSignature) Serialize() []byte {
	out := make([]byte, SchnorrSignatureSize)
	copy(out[:32], sig.R[:])
	copy(out[32:], sig.S[:])
	return out
}

// Hex returns the 0x-prefixed hex encoding of the signature.
func (sig *SchnorrSignature) Hex() string {
	return "0x" + hex.EncodeToString(sig.Serialize())
}

// ParseSchnorrSignature decodes a 64-byte r || s BIP340 signature.
func ParseSchnorrSignature(b []byte) (*SchnorrSignature, error) {
	if len(b) != SchnorrSignatureSize {
		return nil, fmt.Errorf("%w: schnorr signature must be %d bytes, got %d", ErrInvalidLength, SchnorrSignatureSize, len(b))
	}
	var sig SchnorrSignature
	copy(sig.R[:], b[:32])
	copy(sig.S[:], b[32:])
	return &sig, nil
}

// ParseSchnorrSignatureHex decodes a 0x-prefixed hex BIP340 signature.
func ParseSchnorrSignatureHex(s string) (*SchnorrSignature, error) {
	raw, err := decodeHex(s, SchnorrSignatureSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return ParseSchnorrSignature(raw)
}

// EthereumSchnorrSignature is an address-committing Schnorr signature with
// the nonce point carried in full.
type EthereumSchnorrSignature struct {
	R *secp256k1.PublicKey
	S [32]byte
}

// Serialize returns the 96-byte encoding s(32) || x(32) || y(32) with the
// nonce point in uncompressed affine coordinates.
func (sig *EthereumSchnorrSignature) Serialize() []byte {
	out := make([]byte, EthereumSchnorrSignatureSize)
	copy(out[:32], sig.S[:])
	// SerializeUncompressed is 0x04 || x || y.
	copy(out[32:], sig.R.SerializeUncompressed()[1:])
	return out
}

// ParseEthereumSchnorrSignature decodes a 96-byte s || x || y signature,
// rejecting nonce points that are not on the curve.
func ParseEthereumSchnorrSignature(b []byte) (*EthereumSchnorrSignature, error) {
	if len(b) != EthereumSchnorrSignatureSize {
		return nil, fmt.Errorf("%w: signature must be %d bytes, got %d", ErrInvalidLength, EthereumSchnorrSignatureSize, len(b))
	}
	uncompressed := make([]byte, 65)
	uncompressed[0] = 0x04
	copy(uncompressed[1:], b[32:])
	r, err := secp256k1.ParsePubKey(uncompressed)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce point: %v", ErrInvalidSignature, err)
	}
	sig := &EthereumSchnorrSignature{R: r}
	copy(sig.S[:], b[:32])
	return sig, nil
}

// Compress replaces the nonce point with its derived 20-byte address,
// halving the data an on-chain verifier has to handle.
func (sig *EthereumSchnorrSignature) Compress() *CompressedEthereumSchnorrSignature {
	return &CompressedEthereumSchnorrSignature{
		Address: AddressFromPubKey(sig.R),
		S:       sig.S,
	}
}

// CompressedEthereumSchnorrSignature is the on-chain form of an
// address-committing Schnorr signature: the nonce point reduced to its
// address plus the scalar s.
type CompressedEthereumSchnorrSignature struct {
	Address types.Address
	S       [32]byte
}

// Serialize returns the 52-byte encoding address(20) || s(32).
func (sig *CompressedEthereumSchnorrSignature) Serialize() []byte {
	out := make([]byte, CompressedEthereumSchnorrSignatureSize)
	copy(out[:20], sig.Address[:])
	copy(out[20:], sig.S[:])
	return out
}

// ParseCompressedEthereumSchnorrSignature decodes a 52-byte address || s
// signature.
func ParseCompressedEthereumSchnorrSignature(b []byte) (*CompressedEthereumSchnorrSignature, error) {
	if len(b) != CompressedEthereumSchnorrSignatureSize {
		return nil, fmt.Errorf("%w: signature must be %d bytes, got %d", ErrInvalidLength, CompressedEthereumSchnorrSignatureSize, len(b))
	}
	var sig CompressedEthereumSchnorrSignature
	copy(sig.Address[:], b[:20])
	copy(sig.S[:], b[20:])
	return &sig, nil
}

// decodeHex decodes a 0x-prefixed hex string into exactly size bytes.
func decodeHex(s string, size int) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != size*2 {
		return nil, fmt.Errorf("%w: want %d hex chars, got %d", ErrInvalidLength, size*2, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCharacter, err)
	}
	return raw, nil
}
