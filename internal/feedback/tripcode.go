package feedback

import (
	"crypto/sha256"
	"encoding/hex"
)

// DefaultSeparator joins the username and hash in a signature.
const DefaultSeparator = "#"

const (
	tripcodeSalt   = "secret_salt"
	tripcodeLength = 10
)

// DeriveSignature returns the tripcode for a username/secret pair using
// DefaultSeparator, e.g. "alice#1a2b3c4d5e".
func DeriveSignature(username, secret string) string {
	return DeriveSignatureWith(username, secret, DefaultSeparator)
}

// DeriveSignatureWith returns username + separator + the first ten hex
// characters of SHA-256(username + secret + salt).
// Callers must not pass an empty username or secret; see NewUser.
func DeriveSignatureWith(username, secret, separator string) string {
	sum := sha256.Sum256([]byte(username + secret + tripcodeSalt))
	return username + separator + hex.EncodeToString(sum[:])[:tripcodeLength]
}
