// Package capability defines the boundary to the ciphertext capability: the
// external system that encrypts profile fields, issues disclosure requests,
// and proves disclosure results. The vault consumes this interface and never
// looks inside a ciphertext.
package capability

import (
	"context"

	"sigil/pkg/domain"
)

//go:generate mockgen -source=capability.go -destination=mocks/mocks.go -package=mocks

// Ciphertext is an opaque encrypted value. It is stored and forwarded but
// never interpreted by the vault.
type Ciphertext []byte

// Handle is the request-handle form of a ciphertext, accepted by the
// capability when issuing a disclosure request.
type Handle []byte

// IsInitialized reports whether the handle refers to an actual ciphertext.
func (h Handle) IsInitialized() bool { return len(h) > 0 }

// Capability is the disclosure side of the ciphertext capability.
//
// Verify MUST be called before trusting any cleartexts delivered through a
// callback; the vault treats a false result as a forged or corrupted
// delivery.
type Capability interface {
	// ToRequestHandle converts a stored ciphertext into a request handle.
	ToRequestHandle(ct Ciphertext) (Handle, error)

	// RequestDisclosure submits handles for asynchronous disclosure and
	// returns the request identifier the eventual callback will carry.
	RequestDisclosure(ctx context.Context, handles []Handle) (domain.RequestID, error)

	// Verify checks a disclosure proof against the cleartexts for the given
	// request. Returns false (with nil error) for a well-formed but invalid
	// proof; an error only for transport-level failures.
	Verify(ctx context.Context, requestID domain.RequestID, cleartexts []string, proof []byte) (bool, error)
}
