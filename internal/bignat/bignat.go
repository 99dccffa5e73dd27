// Package bignat provides the arbitrary-precision non-negative integer type
// used throughout the compiler and coder pipeline to count and index
// combinations that routinely exceed 64 bits.
//
// It is a thin wrapper around math/big.Int restricted to non-negative
// values, exposing the operations gramtropy's core actually needs: add,
// subtract, multiply, divmod, comparison, bit length and hex/byte I/O.
package bignat

import (
	"math"
	"math/big"
)

// Nat is an arbitrary-precision non-negative integer.
type Nat struct {
	v big.Int
}

// Zero returns the additive identity.
func Zero() *Nat {
	return &Nat{}
}

// FromUint64 constructs a Nat from a uint64.
func FromUint64(n uint64) *Nat {
	r := &Nat{}
	r.v.SetUint64(n)
	return r
}

// FromBytes interprets data as a big-endian non-negative integer, matching
// the BigNum(uint8_t*, size_t) constructor in original_source/gramtropy/bignum.h.
func FromBytes(data []byte) *Nat {
	r := &Nat{}
	r.v.SetBytes(data)
	return r
}

// FromHex parses a hex string (no prefix) into a Nat.
func FromHex(s string) (*Nat, bool) {
	r := &Nat{}
	_, ok := r.v.SetString(s, 16)
	return r, ok
}

// Clone returns an independent copy.
func (n *Nat) Clone() *Nat {
	r := &Nat{}
	r.v.Set(&n.v)
	return r
}

// IsZero reports whether n is zero.
func (n *Nat) IsZero() bool {
	return n.v.Sign() == 0
}

// Add returns n + m as a new Nat.
func (n *Nat) Add(m *Nat) *Nat {
	r := &Nat{}
	r.v.Add(&n.v, &m.v)
	return r
}

// Sub returns n - m. The caller must ensure n >= m; this mirrors the
// unsigned-subtraction contract of the original BigNum type (no negative
// numbers per spec.md Non-goals).
func (n *Nat) Sub(m *Nat) *Nat {
	r := &Nat{}
	r.v.Sub(&n.v, &m.v)
	if r.v.Sign() < 0 {
		panic("bignat: subtraction underflow")
	}
	return r
}

// Mul returns n * m as a new Nat.
func (n *Nat) Mul(m *Nat) *Nat {
	r := &Nat{}
	r.v.Mul(&n.v, &m.v)
	return r
}

// DivMod returns (n / d, n % d).
func (n *Nat) DivMod(d *Nat) (q, r *Nat) {
	q, r = &Nat{}, &Nat{}
	q.v.DivMod(&n.v, &d.v, &r.v)
	return q, r
}

// Cmp returns -1, 0 or 1 as n is less than, equal to, or greater than m.
func (n *Nat) Cmp(m *Nat) int {
	return n.v.Cmp(&m.v)
}

// Less reports whether n < m.
func (n *Nat) Less(m *Nat) bool { return n.Cmp(m) < 0 }

// LessEq reports whether n <= m.
func (n *Nat) LessEq(m *Nat) bool { return n.Cmp(m) <= 0 }

// GreaterEq reports whether n >= m.
func (n *Nat) GreaterEq(m *Nat) bool { return n.Cmp(m) >= 0 }

// BitLen returns the number of bits required to represent n.
func (n *Nat) BitLen() int {
	return n.v.BitLen()
}

// Log2 returns an IEEE-754 approximation of log2(n), used only to compare
// entropy ratios against thresholds (spec.md Design Notes: "acceptable
// precision is IEEE-754 double", mirroring BigNum::get_d() in the original).
func (n *Nat) Log2() float64 {
	if n.IsZero() {
		return -1
	}
	bits := n.BitLen()
	// Scale down to a manageable exponent before converting to float64 so
	// Float64() never has to round an enormous mantissa away.
	if bits <= 1024 {
		f := new(big.Float).SetInt(&n.v)
		l, _ := f.Float64()
		return math.Log2(l)
	}
	shift := uint(bits - 64)
	top := new(big.Int).Rsh(&n.v, shift)
	return float64(bits-64) + math.Log2(float64(top.Uint64()))
}

// GetUint32 returns the low 32 bits, matching BigNum::get_ui() — used by the
// coder when indexing into a dictionary, where the index is asserted to fit
// in 32 bits (spec.md §4.4).
func (n *Nat) GetUint32() uint32 {
	if n.v.Sign() == 0 {
		return 0
	}
	words := n.v.Bits()
	return uint32(words[0])
}

// Bytes returns the big-endian byte representation with no leading zero
// byte (the same convention as math/big.Int.Bytes).
func (n *Nat) Bytes() []byte {
	return n.v.Bytes()
}

// Hex returns the upper-case hexadecimal representation with no leading
// zeros, matching BigNum::hex() in the original, except for the zero value
// which renders as "0".
func (n *Nat) Hex() string {
	if n.IsZero() {
		return "0"
	}
	s := n.v.Text(16)
	upper := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper[i] = c
	}
	return string(upper)
}

// String implements fmt.Stringer using decimal, for error messages and logs.
func (n *Nat) String() string {
	return n.v.String()
}
