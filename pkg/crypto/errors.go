package crypto

import "errors"

// Sentinel errors returned by the signing core. Callers match these with
// errors.Is; call sites wrap them with additional context.
var (
	// ErrInvalidPrivateKey is returned when a private key scalar is zero or
	// not less than the curve order.
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrInvalidMessageHash is returned when a message hash reduces to the
	// zero scalar and therefore cannot be signed or recovered from.
	ErrInvalidMessageHash = errors.New("invalid message hash")

	// ErrIdentityElement is returned when an intermediate signing value
	// (r, s, or a derived point) degenerates to zero or the point at
	// infinity. Astronomically unlikely with well-formed input.
	ErrIdentityElement = errors.New("signing produced an identity element")

	// ErrInvalidNonce is returned when a derived nonce reduces to zero.
	ErrInvalidNonce = errors.New("derived nonce is zero")

	// ErrInvalidSignature is returned when signature bytes or hex cannot be
	// decoded into a well-formed signature.
	ErrInvalidSignature = errors.New("invalid signature encoding")

	// ErrInvalidLength is returned when a byte or hex buffer has the wrong
	// length for the codec decoding it.
	ErrInvalidLength = errors.New("invalid length")

	// ErrInvalidCharacter is returned when hex input contains a non-hex
	// character.
	ErrInvalidCharacter = errors.New("invalid hex character")

	// ErrSelfVerify is returned when a freshly produced signature fails its
	// own verification. This indicates a defect in the curve primitives,
	// not bad caller input, and must never be suppressed.
	ErrSelfVerify = errors.New("signature failed self-verification")
)
