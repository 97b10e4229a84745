package domain

// RequestID is the opaque disclosure-request identifier issued by the
// ciphertext capability. It is globally unique while the request is
// outstanding; the correlation table is the only component that interprets it.
type RequestID string

// IsNil reports whether the request ID is empty.
func (r RequestID) IsNil() bool { return r == "" }

// String returns the raw identifier.
func (r RequestID) String() string { return string(r) }
