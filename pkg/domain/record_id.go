package domain

import "strconv"

// RecordID identifies an encrypted profile and, by extension, the learning
// plan derived from it. IDs are assigned monotonically starting at 1.
// Invariant: zero is reserved as "no such record" and never assigned.
type RecordID uint64

// IsNil reports whether the ID is the reserved zero value.
func (r RecordID) IsNil() bool { return r == 0 }

// String returns the decimal representation of the record ID.
func (r RecordID) String() string { return strconv.FormatUint(uint64(r), 10) }

// ParseRecordID validates and returns a RecordID from its decimal form.
func ParseRecordID(s string) (RecordID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return RecordID(n), nil
}
