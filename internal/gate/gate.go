// Package gate emits constraints for boolean primitives operating on
// 32-bit words: constants, (in)equality, AND, OR, 2/3/4-input XOR, and
// rotate. Non-XOR gates are expanded to the canonical "forbidden row"
// enumeration of their truth table: one clause per input pattern that
// contradicts the gate's definition, skipping rows the definition already
// allows. XOR gates either expand to the equivalent parity CNF or, when
// native XOR clauses are enabled, to a single "x ..." line. Every gate also
// emits the equivalent pseudo-boolean inequalities to the OPB sink, even
// when native XOR clauses are in use: the OPB stream always carries the
// full parity-CNF expansion since it has no "x ..." construct of its own.
package gate

import "github.com/cryptosat/sha1sat/internal/encoder"

// Word is a 32-bit quantity represented as 32 boolean variable ids, bit 0
// least significant.
type Word [32]int

// Rotl returns a word that aliases w's ids rotated left by n bits. This is
// a pure rewiring: no fresh variables, no constraints.
func (w Word) Rotl(n uint) Word {
	n %= 32
	var r Word
	for i := range r {
		r[i] = w[(uint(i)+32-n)%32]
	}
	return r
}

// Constant32 pins every bit of r to the corresponding bit of v.
func Constant32(sys *encoder.System, r Word, v uint32) {
	sys.Comment(commentConstant32(v))
	for i := 0; i < 32; i++ {
		sys.Constant(r[i], (v>>uint(i))&1 != 0)
	}
}

func commentConstant32(v uint32) string {
	return "constant32 (" + itoa(uint64(v)) + ")"
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// NewConstant allocates a fresh word and pins it to v in one step,
// mirroring the original generator's new_constant helper.
func NewConstant(sys *encoder.System, label string, v uint32) Word {
	ids := sys.Fresh(label, 32, false)
	var r Word
	copy(r[:], ids)
	Constant32(sys, r, v)
	return r
}

// Eq asserts a == b bitwise.
func Eq(sys *encoder.System, useXor bool, a, b Word) {
	EqBits(sys, useXor, a[:], b[:])
}

// Neq asserts a != b bitwise.
func Neq(sys *encoder.System, useXor bool, a, b Word) {
	NeqBits(sys, useXor, a[:], b[:])
}

// EqBits is the variable-length form of Eq, used by the collision attack
// to link single hash bits of two circuits.
func EqBits(sys *encoder.System, useXor bool, a, b []int) {
	for i := range a {
		if useXor {
			sys.XorClause(-a[i], b[i])
			sys.ClauseOPBOnly(-a[i], b[i])
			sys.ClauseOPBOnly(a[i], -b[i])
		} else {
			sys.Clause(-a[i], b[i])
			sys.Clause(a[i], -b[i])
		}
	}
}

// NeqBits is the variable-length form of Neq.
func NeqBits(sys *encoder.System, useXor bool, a, b []int) {
	for i := range a {
		if useXor {
			sys.XorClause(a[i], b[i])
			sys.ClauseOPBOnly(a[i], b[i])
			sys.ClauseOPBOnly(-a[i], -b[i])
		} else {
			sys.Clause(a[i], b[i])
			sys.Clause(-a[i], -b[i])
		}
	}
}

// And2 asserts r == a AND b bitwise.
func And2(sys *encoder.System, r, a, b Word) {
	AndBits(sys, r[:], a[:], b[:])
}

// Or2 asserts r == a OR b bitwise.
func Or2(sys *encoder.System, r, a, b Word) {
	OrBits(sys, r[:], a[:], b[:])
}

// AndBits is the variable-length form of And2.
func AndBits(sys *encoder.System, r, a, b []int) {
	for i := range r {
		sys.Clause(r[i], -a[i], -b[i])
		sys.Clause(-r[i], a[i])
		sys.Clause(-r[i], b[i])
	}
}

// OrBits is the variable-length form of Or2.
func OrBits(sys *encoder.System, r, a, b []int) {
	for i := range r {
		sys.Clause(-r[i], a[i], b[i])
		sys.Clause(r[i], -a[i])
		sys.Clause(r[i], -b[i])
	}
}

// Xor2 asserts r == a XOR b bitwise.
func Xor2(sys *encoder.System, useXor bool, r, a, b Word) {
	Xor2Bits(sys, useXor, r[:], a[:], b[:])
}

// Xor2Bits is the variable-length form of Xor2.
func Xor2Bits(sys *encoder.System, useXor bool, r, a, b []int) {
	sys.Comment("xor2")
	for i := range r {
		if useXor {
			sys.XorClause(-r[i], a[i], b[i])
		}
		for j := 0; j < 8; j++ {
			if popcount(j^1)%2 == 1 {
				continue
			}
			lits := []int{
				lit(j&1 != 0, -r[i], r[i]),
				lit(j&2 != 0, a[i], -a[i]),
				lit(j&4 != 0, b[i], -b[i]),
			}
			if useXor {
				sys.ClauseOPBOnly(lits...)
			} else {
				sys.Clause(lits...)
			}
		}
	}
}

// Xor3 asserts r == a XOR b XOR c bitwise.
func Xor3(sys *encoder.System, useXor bool, r, a, b, c Word) {
	Xor3Bits(sys, useXor, r[:], a[:], b[:], c[:])
}

// Xor3Bits is the variable-length form of Xor3.
func Xor3Bits(sys *encoder.System, useXor bool, r, a, b, c []int) {
	sys.Comment("xor3")
	for i := range r {
		if useXor {
			sys.XorClause(-r[i], a[i], b[i], c[i])
		}
		for j := 0; j < 16; j++ {
			if popcount(j^1)%2 == 0 {
				continue
			}
			lits := []int{
				lit(j&1 != 0, -r[i], r[i]),
				lit(j&2 != 0, a[i], -a[i]),
				lit(j&4 != 0, b[i], -b[i]),
				lit(j&8 != 0, c[i], -c[i]),
			}
			if useXor {
				sys.ClauseOPBOnly(lits...)
			} else {
				sys.Clause(lits...)
			}
		}
	}
}

// Xor4 asserts r == a XOR b XOR c XOR d bitwise.
func Xor4(sys *encoder.System, useXor bool, r, a, b, c, d Word) {
	sys.Comment("xor4")
	for i := 0; i < 32; i++ {
		if useXor {
			sys.XorClause(-r[i], a[i], b[i], c[i], d[i])
		}
		for j := 0; j < 32; j++ {
			if popcount(j^1)%2 == 1 {
				continue
			}
			lits := []int{
				lit(j&1 != 0, -r[i], r[i]),
				lit(j&2 != 0, a[i], -a[i]),
				lit(j&4 != 0, b[i], -b[i]),
				lit(j&8 != 0, c[i], -c[i]),
				lit(j&16 != 0, d[i], -d[i]),
			}
			if useXor {
				sys.ClauseOPBOnly(lits...)
			} else {
				sys.Clause(lits...)
			}
		}
	}
}

func lit(cond bool, whenTrue, whenFalse int) int {
	if cond {
		return whenTrue
	}
	return whenFalse
}

func popcount(x int) int {
	n := 0
	for x != 0 {
		n += x & 1
		x >>= 1
	}
	return n
}
