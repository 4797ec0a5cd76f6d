// Package vrf provides seed-derived random values with independently
// recomputable proofs. Anyone holding the seed can reproduce both the value
// and the proof; without the seed the proof is unforgeable.
package vrf

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"time"
)

const (
	valueTag = ":value"
	proofTag = ":proof:"
)

// Result is a single verifiable random draw.
type Result struct {
	Value     string    `json:"value"`
	Proof     string    `json:"proof"`
	Seed      string    `json:"seed"`
	Timestamp time.Time `json:"timestamp"`
}

// Generate derives a value and proof from the seed. The derivation is pure:
// value = H(seed || ":value"), proof = H(seed || ":proof:" || value).
func Generate(seed string, at time.Time) Result {
	value := hash(seed + valueTag)
	return Result{
		Value:     value,
		Proof:     hash(seed + proofTag + value),
		Seed:      seed,
		Timestamp: at,
	}
}

// Verify recomputes value and proof from the result's seed and compares.
func Verify(r Result) bool {
	value := hash(r.Seed + valueTag)
	proof := hash(r.Seed + proofTag + value)
	ok := subtle.ConstantTimeCompare([]byte(value), []byte(r.Value)) == 1
	return ok && subtle.ConstantTimeCompare([]byte(proof), []byte(r.Proof)) == 1
}

// Int maps the leading 32 bits of the value into [min, max]. Modulo mapping
// carries a small bias for ranges that do not divide 2^32 evenly; for the
// number ranges used here (hundreds of values) the bias is negligible and
// accepted in exchange for a derivation any party can reproduce.
func (r Result) Int(min, max int) int {
	if max <= min {
		return min
	}
	raw, err := hex.DecodeString(r.Value)
	if err != nil || len(raw) < 4 {
		return min
	}
	span := uint32(max - min + 1)
	return min + int(binary.BigEndian.Uint32(raw[:4])%span)
}

// RandomSeed draws a fresh 256-bit seed from the system entropy source.
// Entropy failure is unrecoverable by contract, so it panics rather than
// letting a game proceed with predictable draws.
func RandomSeed() string {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("vrf: entropy source failed: " + err.Error())
	}
	return hex.EncodeToString(buf[:])
}

func hash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
