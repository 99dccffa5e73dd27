// Package entropy implements the uniform rejection sampler the runtime
// CLI's random-generation mode draws phrase indices from.
//
// Grounded on spec.md §4.6; the original has no direct counterpart (it
// samples by reading raw bytes from /dev/urandom inline at the call site),
// so this is written in the style of the rest of the bignat/coder pipeline
// rather than ported from a specific file. crypto/rand.Reader is the
// standard library's CSPRNG and the natural default source — none of the
// example repos pull in a third-party randomness package for this, so
// there is no ecosystem library to prefer over it here.
package entropy

import (
	"fmt"
	"io"

	"github.com/sipa/gramtropy/internal/bignat"
)

// Sample draws a uniform value in [0, rang) from r, by rejection: it reads
// ceil(bits(rang)/8) bytes, masks the leading byte's high bits so the
// sample is in [0, 2^bits(rang)), and retries on a draw >= rang. rang must
// be positive.
func Sample(r io.Reader, rang *bignat.Nat) (*bignat.Nat, error) {
	if rang.IsZero() {
		panic("entropy: Sample called with a zero range")
	}
	bits := rang.BitLen()
	nbytes := (bits + 7) / 8
	mask := byte(0xFF)
	if extra := nbytes*8 - bits; extra > 0 {
		mask >>= uint(extra)
	}
	buf := make([]byte, nbytes)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("entropy: reading random bytes: %w", err)
		}
		buf[0] &= mask
		v := bignat.FromBytes(buf)
		if v.Less(rang) {
			return v, nil
		}
	}
}
