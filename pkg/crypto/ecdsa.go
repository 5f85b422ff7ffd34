package crypto

import (
	"fmt"

	"github.com/Klingon-tech/klingvm-sdk/pkg/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ECDSASigner produces deterministic, low-S, recoverable ECDSA signatures
// over secp256k1 and is immutable after construction. The public key and
// address are computed eagerly.
type ECDSASigner struct {
	priv *secp256k1.PrivateKey
	pub  *secp256k1.PublicKey
	addr types.Address
}

// GenerateECDSASigner creates a signer with a fresh random private key.
func GenerateECDSASigner() (*ECDSASigner, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return newECDSASigner(priv), nil
}

// NewECDSASigner creates a signer from a 32-byte private key scalar.
// The scalar must be nonzero and less than the curve order.
func NewECDSASigner(privKey []byte) (*ECDSASigner, error) {
	if len(privKey) != 32 {
		return nil, fmt.Errorf("%w: must be 32 bytes, got %d", ErrInvalidPrivateKey, len(privKey))
	}
	var priv secp256k1.PrivateKey
	if overflow := priv.Key.SetByteSlice(privKey); overflow || priv.Key.IsZero() {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidPrivateKey)
	}
	return newECDSASigner(&priv), nil
}

func newECDSASigner(priv *secp256k1.PrivateKey) *ECDSASigner {
	pub := priv.PubKey()
	return &ECDSASigner{
		priv: priv,
		pub:  pub,
		addr: AddressFromPubKey(pub),
	}
}

// PublicKey returns the signer's public key.
func (s *ECDSASigner) PublicKey() *secp256k1.PublicKey {
	return s.pub
}

// CompressedPubKey returns the 33-byte SEC1-compressed public key.
func (s *ECDSASigner) CompressedPubKey() []byte {
	return s.pub.SerializeCompressed()
}

// Address returns the account address derived from the public key.
func (s *ECDSASigner) Address() types.Address {
	return s.addr
}

// PrivateKeyBytes returns the 32-byte private key scalar.
func (s *ECDSASigner) PrivateKeyBytes() []byte {
	return s.priv.Serialize()
}

// Sign produces a canonical recoverable signature over a 32-byte message
// hash. The nonce is derived per RFC 6979, so the same (key, hash) pair
// always yields the same signature. The recovery bit V is the parity of
// the nonce point's y coordinate, flipped when s is negated to enforce
// s <= order/2.
func (s *ECDSASigner) Sign(hash []byte) (*Signature, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("%w: must be 32 bytes, got %d", ErrInvalidMessageHash, len(hash))
	}

	var z secp256k1.ModNScalar
	z.SetByteSlice(hash)
	if z.IsZero() {
		return nil, fmt.Errorf("%w: hash reduces to zero", ErrInvalidMessageHash)
	}

	k := nonceRFC6979(s.priv.Serialize(), hash)
	defer k.Zero()

	// R = k*G, r = R.x mod order.
	var kG secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &kG)
	kG.ToAffine()
	r, _ := fieldToModNScalar(&kG.X)
	if r.IsZero() {
		return nil, fmt.Errorf("%w: r is zero", ErrIdentityElement)
	}
	var v byte
	if kG.Y.IsOdd() {
		v = 1
	}

	// s = k^-1 (z + r*priv) mod order.
	kInv := new(secp256k1.ModNScalar).InverseValNonConst(k)
	sigS := new(secp256k1.ModNScalar).Mul2(&r, &s.priv.Key).Add(&z).Mul(kInv)
	if sigS.IsZero() {
		return nil, fmt.Errorf("%w: s is zero", ErrIdentityElement)
	}
	if sigS.IsOverHalfOrder() {
		sigS.Negate()
		v ^= 1
	}

	return &Signature{R: r, S: *sigS, V: v}, nil
}

// VerifyHash reports whether the signature is valid for the given 32-byte
// message hash under this signer's public key. Malformed input degrades to
// false, never an error.
func (s *ECDSASigner) VerifyHash(hash []byte, sig *Signature) bool {
	return VerifyECDSA(s.pub, hash, sig)
}

// VerifyECDSA reports whether sig is a valid ECDSA signature over hash for
// the given public key. The recovery bit is ignored.
func VerifyECDSA(pub *secp256k1.PublicKey, hash []byte, sig *Signature) bool {
	if sig == nil || len(hash) != 32 {
		return false
	}
	if sig.R.IsZero() || sig.S.IsZero() {
		return false
	}

	var z secp256k1.ModNScalar
	z.SetByteSlice(hash)

	// R' = s^-1*z*G + s^-1*r*P.
	sInv := new(secp256k1.ModNScalar).InverseValNonConst(&sig.S)
	u1 := new(secp256k1.ModNScalar).Mul2(&z, sInv)
	u2 := new(secp256k1.ModNScalar).Mul2(&sig.R, sInv)

	var p, u1G, u2P, result secp256k1.JacobianPoint
	pub.AsJacobian(&p)
	secp256k1.ScalarBaseMultNonConst(u1, &u1G)
	secp256k1.ScalarMultNonConst(u2, &p, &u2P)
	secp256k1.AddNonConst(&u1G, &u2P, &result)
	if (result.X.IsZero() && result.Y.IsZero()) || result.Z.IsZero() {
		return false
	}
	result.ToAffine()

	rPrime, _ := fieldToModNScalar(&result.X)
	return sig.R.Equals(&rPrime)
}

// RecoverPubkey reconstructs the public key that produced sig over hash,
// using the recovery bit V to pick the nonce point's y parity.
func RecoverPubkey(sig *Signature, hash []byte) (*secp256k1.PublicKey, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("%w: must be 32 bytes, got %d", ErrInvalidMessageHash, len(hash))
	}
	if sig.R.IsZero() || sig.S.IsZero() {
		return nil, fmt.Errorf("%w: r or s is zero", ErrInvalidSignature)
	}

	var z secp256k1.ModNScalar
	z.SetByteSlice(hash)
	if z.IsZero() {
		return nil, fmt.Errorf("%w: hash reduces to zero", ErrInvalidMessageHash)
	}

	// Rebuild the nonce point X = (r, y) with y parity chosen by V.
	rBytes := sig.R.Bytes()
	var rField secp256k1.FieldVal
	rField.SetByteSlice(rBytes[:])
	var y secp256k1.FieldVal
	if !secp256k1.DecompressY(&rField, sig.V == 1, &y) {
		return nil, fmt.Errorf("%w: r is not an x coordinate on the curve", ErrInvalidSignature)
	}
	y.Normalize()

	var noncePt secp256k1.JacobianPoint
	noncePt.X.Set(&rField)
	noncePt.Y.Set(&y)
	noncePt.Z.SetInt(1)

	// Q = u1*G + u2*X with u1 = -z*r^-1 and u2 = s*r^-1.
	rInv := new(secp256k1.ModNScalar).InverseValNonConst(&sig.R)
	u1 := new(secp256k1.ModNScalar).Mul2(&z, rInv).Negate()
	u2 := new(secp256k1.ModNScalar).Mul2(&sig.S, rInv)

	var u1G, u2X, q secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(u1, &u1G)
	secp256k1.ScalarMultNonConst(u2, &noncePt, &u2X)
	secp256k1.AddNonConst(&u1G, &u2X, &q)
	if (q.X.IsZero() && q.Y.IsZero()) || q.Z.IsZero() {
		return nil, fmt.Errorf("%w: recovered point at infinity", ErrIdentityElement)
	}
	q.ToAffine()

	return secp256k1.NewPublicKey(&q.X, &q.Y), nil
}

// RecoverAddress recovers the account address that produced sig over hash.
func RecoverAddress(sig *Signature, hash []byte) (types.Address, error) {
	pub, err := RecoverPubkey(sig, hash)
	if err != nil {
		return types.Address{}, err
	}
	return AddressFromPubKey(pub), nil
}

// fieldToModNScalar converts a field element to a scalar mod the group
// order, reporting whether a reduction occurred.
func fieldToModNScalar(v *secp256k1.FieldVal) (secp256k1.ModNScalar, bool) {
	var buf [32]byte
	v.PutBytes(&buf)
	var s secp256k1.ModNScalar
	overflow := s.SetBytes(&buf) != 0
	return s, overflow
}
