package store

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Cause is the identity of a logical effect region, such as "the live query
// feeding the lists screen". At most one handle is live per cause.
type Cause uint64

// NoCause marks an anonymous effect. Anonymous effects are only cancelled by
// teardown.
const NoCause Cause = 0

// CauseOf derives a Cause from its parts. Equal parts give equal causes.
func CauseOf(parts ...string) Cause {
	d := xxhash.New()
	for i, p := range parts {
		if i > 0 {
			d.WriteString("\x1f")
		}
		d.WriteString(p)
	}
	c := Cause(d.Sum64())
	if c == NoCause {
		c++
	}
	return c
}

func (c Cause) String() string {
	if c == NoCause {
		return "none"
	}
	return strconv.FormatUint(uint64(c), 16)
}
