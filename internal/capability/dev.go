package capability

import (
	"context"
	"crypto/hmac"
	"encoding/binary"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	"sigil/pkg/domain"
)

// DevCapability is a deterministic local stand-in for the real ciphertext
// capability. Ciphertexts are the raw cleartext bytes, request identifiers
// are UUIDs, and proofs are keyed SHA3 digests over (requestID, cleartexts).
// It exists so the disclosure protocol can run end to end in development and
// in handler tests without an external service.
type DevCapability struct {
	key []byte
}

// NewDevCapability creates a dev capability keyed with the given proof key.
func NewDevCapability(proofKey string) (*DevCapability, error) {
	if proofKey == "" {
		return nil, errors.New("proof key must not be empty")
	}
	return &DevCapability{key: []byte(proofKey)}, nil
}

// Encrypt wraps a cleartext as a dev ciphertext. Real deployments receive
// ciphertexts from the client side; this is for seeding and tests.
func (c *DevCapability) Encrypt(cleartext string) Ciphertext {
	return Ciphertext(cleartext)
}

// ToRequestHandle returns the ciphertext itself; the dev capability has no
// separate handle space.
func (c *DevCapability) ToRequestHandle(ct Ciphertext) (Handle, error) {
	if len(ct) == 0 {
		return nil, errors.New("uninitialized ciphertext")
	}
	return Handle(ct), nil
}

// RequestDisclosure issues a fresh UUID request identifier. The dev
// capability performs no asynchronous work; the test or the operator plays
// the decryption agent and delivers the callback.
func (c *DevCapability) RequestDisclosure(_ context.Context, handles []Handle) (domain.RequestID, error) {
	if len(handles) == 0 {
		return "", errors.New("no handles to disclose")
	}
	for _, h := range handles {
		if !h.IsInitialized() {
			return "", errors.New("uninitialized handle")
		}
	}
	return domain.RequestID(uuid.NewString()), nil
}

// ProofFor computes the proof a well-behaved decryption agent would attach
// to a callback for the given request and cleartexts. Each cleartext is
// length-prefixed so adjacent values cannot be re-split into a colliding
// digest.
func (c *DevCapability) ProofFor(requestID domain.RequestID, cleartexts []string) []byte {
	mac := hmac.New(sha3.New256, c.key)
	mac.Write([]byte(requestID))
	var prefix [4]byte
	for _, ct := range cleartexts {
		binary.BigEndian.PutUint32(prefix[:], uint32(len(ct)))
		mac.Write(prefix[:])
		mac.Write([]byte(ct))
	}
	return mac.Sum(nil)
}

// Verify recomputes the keyed digest and compares in constant time.
func (c *DevCapability) Verify(_ context.Context, requestID domain.RequestID, cleartexts []string, proof []byte) (bool, error) {
	expected := c.ProofFor(requestID, cleartexts)
	return hmac.Equal(expected, proof), nil
}
