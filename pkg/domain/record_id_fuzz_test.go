package domain

import "testing"

// FuzzParseRecordID checks that parsing never panics on arbitrary input and
// that accepted values round-trip through String.
func FuzzParseRecordID(f *testing.F) {
	f.Add("")
	f.Add("0")
	f.Add("1")
	f.Add("18446744073709551615")
	f.Add("18446744073709551616")
	f.Add("-1")
	f.Add("1e6")
	f.Add("'; DROP TABLE profiles;--")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseRecordID(input)
		if err != nil {
			return
		}
		roundTrip, err2 := ParseRecordID(id.String())
		if err2 != nil {
			t.Errorf("valid ID failed round-trip: %v", err2)
		}
		if roundTrip != id {
			t.Error("round-trip changed ID value")
		}
	})
}
