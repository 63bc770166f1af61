package pdf

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestPageRange_StringRoundTripProperty verifies a valid range survives
// formatting and parsing.
func TestPageRange_StringRoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("ParsePageRange(r.String()) == r", prop.ForAll(
		func(first, length int) bool {
			r := PageRange{First: first, Last: first + length}
			got, err := ParsePageRange(r.String())
			return err == nil && got == r
		},
		gen.IntRange(1, 1000),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

// TestPageRange_ClampProperty verifies clamping never widens the range and
// never reaches past the document.
func TestPageRange_ClampProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("clamped range stays inside range and document", prop.ForAll(
		func(first, length, pageCount int) bool {
			r := PageRange{First: first, Last: first + length}
			c, ok := r.Clamp(pageCount)
			if !ok {
				return pageCount < first
			}
			return c.First == r.First &&
				c.Last <= r.Last &&
				c.Last <= pageCount &&
				c.Len() == min(r.Last, pageCount)-r.First+1 &&
				c.Validate() == nil
		},
		gen.IntRange(1, 50),
		gen.IntRange(0, 20),
		gen.IntRange(0, 80),
	))

	properties.TestingRun(t)
}
