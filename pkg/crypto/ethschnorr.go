package crypto

import (
	"crypto/rand"
	"fmt"

	"github.com/Klingon-tech/klingvm-sdk/pkg/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ethSchnorrContext is the single domain-separation context for the
// address-committing Schnorr variant. Every hash in this scheme is
// Keccak256(context || label || data), with the label selecting the
// message, nonce, or challenge domain.
const ethSchnorrContext = "KlingVM/schnorr/v1"

const (
	ethLabelMessage   = "message"
	ethLabelNonce     = "nonce"
	ethLabelChallenge = "challenge"
)

// EthereumSchnorrSigner produces Schnorr signatures whose nonce point is
// committed as its derived 20-byte address instead of raw coordinates,
// halving the data an EVM verifier contract has to hash. Unlike BIP340,
// the public key's y parity is committed inside the challenge, so neither
// the key nor the nonce is forced to an even-y point.
type EthereumSchnorrSigner struct {
	priv   *secp256k1.PrivateKey
	pub    *secp256k1.PublicKey
	pubX   [32]byte
	parity byte // SEC1 compressed-format parity byte, 0x02 or 0x03
}

// GenerateEthereumSchnorrSigner creates a signer with a fresh random key.
func GenerateEthereumSchnorrSigner() (*EthereumSchnorrSigner, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return newEthereumSchnorrSigner(priv), nil
}

// NewEthereumSchnorrSigner creates a signer from a 32-byte private key
// scalar.
func NewEthereumSchnorrSigner(privKey []byte) (*EthereumSchnorrSigner, error) {
	if len(privKey) != 32 {
		return nil, fmt.Errorf("%w: must be 32 bytes, got %d", ErrInvalidPrivateKey, len(privKey))
	}
	var priv secp256k1.PrivateKey
	if overflow := priv.Key.SetByteSlice(privKey); overflow || priv.Key.IsZero() {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidPrivateKey)
	}
	return newEthereumSchnorrSigner(&priv), nil
}

func newEthereumSchnorrSigner(priv *secp256k1.PrivateKey) *EthereumSchnorrSigner {
	pub := priv.PubKey()
	s := &EthereumSchnorrSigner{
		priv:   priv,
		pub:    pub,
		parity: pub.SerializeCompressed()[0],
	}
	copy(s.pubX[:], pub.SerializeCompressed()[1:])
	return s
}

// PublicKey returns the signer's public key.
func (s *EthereumSchnorrSigner) PublicKey() *secp256k1.PublicKey {
	return s.pub
}

// SignUnsafe signs a message without the post-signing self-check.
func (s *EthereumSchnorrSigner) SignUnsafe(message []byte) (*EthereumSchnorrSignature, error) {
	var aux [32]byte
	if _, err := rand.Read(aux[:]); err != nil {
		return nil, fmt.Errorf("read aux randomness: %w", err)
	}
	return s.signWithAux(message, aux)
}

// Sign signs a message and verifies the result before returning it,
// reporting a curve-primitive defect as ErrSelfVerify.
func (s *EthereumSchnorrSigner) Sign(message []byte) (*EthereumSchnorrSignature, error) {
	sig, err := s.SignUnsafe(message)
	if err != nil {
		return nil, err
	}
	if !VerifyEthereumSchnorr(s.pub, sig, message) {
		return nil, ErrSelfVerify
	}
	return sig, nil
}

func (s *EthereumSchnorrSigner) signWithAux(message []byte, aux [32]byte) (*EthereumSchnorrSignature, error) {
	// Mask the private key with the auxiliary randomness, then derive the
	// nonce from the mask, the key, and the message. Same skeleton as
	// BIP340 with the hash domain swapped for the Keccak context.
	t := ethTaggedHash(ethLabelMessage, aux[:])
	dBytes := s.priv.Key.Bytes()
	for i := range t {
		t[i] ^= dBytes[i]
	}

	nonce := ethTaggedHash(ethLabelNonce, t[:], s.pubX[:], message)
	var k secp256k1.ModNScalar
	k.SetByteSlice(nonce[:])
	if k.IsZero() {
		return nil, ErrInvalidNonce
	}
	defer k.Zero()

	// R = k*G, committed to the verifier as its address.
	var r secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&k, &r)
	r.ToAffine()
	noncePt := secp256k1.NewPublicKey(&r.X, &r.Y)
	nonceAddr := AddressFromPubKey(noncePt)

	e := s.challenge(message, nonceAddr)

	// s = k + e*d mod n.
	sigS := e.Mul(&s.priv.Key).Add(&k)
	sig := &EthereumSchnorrSignature{R: noncePt}
	sBytes := sigS.Bytes()
	copy(sig.S[:], sBytes[:])
	return sig, nil
}

// challenge computes e = int(hashChallenge(pubX || parity || m || nonceAddr)) mod n.
func (s *EthereumSchnorrSigner) challenge(message []byte, nonceAddr types.Address) *secp256k1.ModNScalar {
	return ethChallenge(s.pubX[:], s.parity, message, nonceAddr)
}

func ethChallenge(pubX []byte, parity byte, message []byte, nonceAddr types.Address) *secp256k1.ModNScalar {
	h := ethTaggedHash(ethLabelChallenge, pubX, []byte{parity}, message, nonceAddr[:])
	var e secp256k1.ModNScalar
	e.SetByteSlice(h[:])
	return &e
}

// VerifyEthereumSchnorr reports whether sig is valid over message for the
// given public key. The nonce point is reduced to its address and checked
// with the compressed-form verifier.
func VerifyEthereumSchnorr(pub *secp256k1.PublicKey, sig *EthereumSchnorrSignature, message []byte) bool {
	if sig == nil || sig.R == nil {
		return false
	}
	return VerifyCompressedEthereumSchnorr(pub, sig.Compress(), message)
}

// VerifyCompressedEthereumSchnorr reports whether the compressed signature
// is valid over message for the given public key: the address derived
// from s*G - e*P must equal the committed nonce address. Malformed input
// degrades to false.
func VerifyCompressedEthereumSchnorr(pub *secp256k1.PublicKey, sig *CompressedEthereumSchnorrSignature, message []byte) bool {
	if sig == nil || pub == nil || sig.Address.IsZero() {
		return false
	}

	var sScalar secp256k1.ModNScalar
	if overflow := sScalar.SetByteSlice(sig.S[:]); overflow || sScalar.IsZero() {
		return false
	}

	compressed := pub.SerializeCompressed()
	e := ethChallenge(compressed[1:], compressed[0], message, sig.Address)

	// R' = s*G - e*P.
	var p, sG, eP, result secp256k1.JacobianPoint
	pub.AsJacobian(&p)
	secp256k1.ScalarBaseMultNonConst(&sScalar, &sG)
	secp256k1.ScalarMultNonConst(e.Negate(), &p, &eP)
	secp256k1.AddNonConst(&sG, &eP, &result)
	if (result.X.IsZero() && result.Y.IsZero()) || result.Z.IsZero() {
		return false
	}
	result.ToAffine()

	return AddressFromPubKey(secp256k1.NewPublicKey(&result.X, &result.Y)) == sig.Address
}

// ethTaggedHash computes Keccak256(context || label || data...).
func ethTaggedHash(label string, chunks ...[]byte) [32]byte {
	all := make([][]byte, 0, len(chunks)+2)
	all = append(all, []byte(ethSchnorrContext), []byte(label))
	all = append(all, chunks...)
	return Keccak256(all...)
}
