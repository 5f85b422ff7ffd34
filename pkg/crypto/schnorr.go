package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// BIP340 tagged-hash domains.
const (
	tagAux       = "BIP0340/aux"
	tagNonce     = "BIP0340/nonce"
	tagChallenge = "BIP0340/challenge"
)

// SchnorrSigner produces BIP340 Schnorr signatures. Public keys are
// x-only: the private scalar is negated at construction whenever the
// corresponding point has an odd y coordinate, so the stored key always
// maps to an even-y point.
type SchnorrSigner struct {
	priv secp256k1.ModNScalar
	pubX [32]byte
}

// GenerateSchnorrSigner creates a signer with a fresh random private key.
func GenerateSchnorrSigner() (*SchnorrSigner, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return newSchnorrSigner(&priv.Key)
}

// NewSchnorrSigner creates a signer from a 32-byte private key scalar.
func NewSchnorrSigner(privKey []byte) (*SchnorrSigner, error) {
	if len(privKey) != 32 {
		return nil, fmt.Errorf("%w: must be 32 bytes, got %d", ErrInvalidPrivateKey, len(privKey))
	}
	var d secp256k1.ModNScalar
	if overflow := d.SetByteSlice(privKey); overflow || d.IsZero() {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidPrivateKey)
	}
	return newSchnorrSigner(&d)
}

func newSchnorrSigner(d *secp256k1.ModNScalar) (*SchnorrSigner, error) {
	if d.IsZero() {
		return nil, fmt.Errorf("%w: scalar is zero", ErrInvalidPrivateKey)
	}

	var p secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(d, &p)
	p.ToAffine()

	s := &SchnorrSigner{priv: *d}
	if p.Y.IsOdd() {
		s.priv.Negate()
	}
	xBytes := p.X.Bytes()
	copy(s.pubX[:], xBytes[:])
	return s, nil
}

// PublicKeyX returns the 32-byte x-only public key.
func (s *SchnorrSigner) PublicKeyX() [32]byte {
	return s.pubX
}

// SignUnsafe signs a message without the post-signing self-check. The
// nonce is derived from fresh auxiliary randomness per BIP340, so two
// calls over the same message produce different signatures.
func (s *SchnorrSigner) SignUnsafe(message []byte) (*SchnorrSignature, error) {
	var aux [32]byte
	if _, err := rand.Read(aux[:]); err != nil {
		return nil, fmt.Errorf("read aux randomness: %w", err)
	}
	return s.signWithAux(message, aux)
}

// Sign signs a message and verifies the result before returning it. A
// self-check failure indicates a curve-primitive defect and is reported
// as ErrSelfVerify, never suppressed.
func (s *SchnorrSigner) Sign(message []byte) (*SchnorrSignature, error) {
	sig, err := s.SignUnsafe(message)
	if err != nil {
		return nil, err
	}
	if !VerifySchnorr(s.pubX[:], sig, message) {
		return nil, ErrSelfVerify
	}
	return sig, nil
}

func (s *SchnorrSigner) signWithAux(message []byte, aux [32]byte) (*SchnorrSignature, error) {
	// t = hashAux(a) XOR d.
	t := taggedHash(tagAux, aux[:])
	dBytes := s.priv.Bytes()
	for i := range t {
		t[i] ^= dBytes[i]
	}

	// k = int(hashNonce(t || pubX || m)) mod n, nonzero.
	nonce := taggedHash(tagNonce, t[:], s.pubX[:], message)
	var k secp256k1.ModNScalar
	k.SetByteSlice(nonce[:])
	if k.IsZero() {
		return nil, ErrInvalidNonce
	}
	defer k.Zero()

	// R = k*G, with k negated so R has even y.
	var r secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&k, &r)
	r.ToAffine()
	if r.Y.IsOdd() {
		k.Negate()
	}
	rBytes := r.X.Bytes()

	// e = int(hashChallenge(r || pubX || m)) mod n.
	challenge := taggedHash(tagChallenge, rBytes[:], s.pubX[:], message)
	var e secp256k1.ModNScalar
	e.SetByteSlice(challenge[:])

	// s = k + e*d mod n.
	sigS := e.Mul(&s.priv).Add(&k)
	sBytes := sigS.Bytes()

	sig := &SchnorrSignature{}
	copy(sig.R[:], rBytes[:])
	copy(sig.S[:], sBytes[:])
	return sig, nil
}

// VerifySchnorr reports whether sig is a valid BIP340 signature over
// message for the 32-byte x-only public key. Malformed input, including
// an x coordinate with no curve point, degrades to false.
func VerifySchnorr(pubKeyX []byte, sig *SchnorrSignature, message []byte) bool {
	if sig == nil || len(pubKeyX) != 32 {
		return false
	}

	p, ok := liftX(pubKeyX)
	if !ok {
		return false
	}

	var r secp256k1.FieldVal
	if overflow := r.SetByteSlice(sig.R[:]); overflow {
		return false
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(sig.S[:]); overflow {
		return false
	}

	challenge := taggedHash(tagChallenge, sig.R[:], pubKeyX, message)
	var e secp256k1.ModNScalar
	e.SetByteSlice(challenge[:])

	// R' = s*G - e*P; valid iff R' is even-y and R'.x == r.
	var sG, eP, result secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&s, &sG)
	secp256k1.ScalarMultNonConst(e.Negate(), &p, &eP)
	secp256k1.AddNonConst(&sG, &eP, &result)
	if (result.X.IsZero() && result.Y.IsZero()) || result.Z.IsZero() {
		return false
	}
	result.ToAffine()
	if result.Y.IsOdd() {
		return false
	}
	return result.X.Equals(&r)
}

// liftX lifts a 32-byte x coordinate to the curve point with even y.
// Returns false when x is not a residue on the curve.
func liftX(xBytes []byte) (secp256k1.JacobianPoint, bool) {
	var point secp256k1.JacobianPoint
	var x secp256k1.FieldVal
	if overflow := x.SetByteSlice(xBytes); overflow {
		return point, false
	}
	var y secp256k1.FieldVal
	if !secp256k1.DecompressY(&x, false, &y) {
		return point, false
	}
	y.Normalize()
	point.X.Set(&x)
	point.Y.Set(&y)
	point.Z.SetInt(1)
	return point, true
}

// taggedHash computes the BIP340 tagged hash:
// sha256(sha256(tag) || sha256(tag) || data...).
func taggedHash(tag string, chunks ...[]byte) [32]byte {
	tagHash := sha256.Sum256([]byte(tag))
	h := sha256.New()
	h.Write(tagHash[:])
	h.Write(tagHash[:])
	for _, c := range chunks {
		h.Write(c)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}
