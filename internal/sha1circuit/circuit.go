// Package sha1circuit allocates the message schedule, chaining registers,
// per-round working words, and the per-round mixing functions of SHA-1,
// and glues them together with the gate and adder libraries into one
// circuit per instance name. This is the one place in the module that
// knows the shape of SHA-1 itself; everything else is generic constraint
// plumbing.
package sha1circuit

import (
	"fmt"

	"github.com/cryptosat/sha1sat/internal/adder"
	"github.com/cryptosat/sha1sat/internal/encoder"
	"github.com/cryptosat/sha1sat/internal/gate"
)

// Round constants and initial chaining values, fixed by the SHA-1
// specification.
var (
	RoundConstants = [4]uint32{0x5a827999, 0x6ed9eba1, 0x8f1bbcdc, 0xca62c1d6}
	InitialChain   = [5]uint32{0x67452301, 0xefcdab89, 0x98badcfe, 0x10325476, 0xc3d2e1f0}
)

// Circuit is one instantiation of the SHA-1 compression function over a
// chosen number of rounds, named so that two circuits (as used by the
// collision attack) share no variables.
type Circuit struct {
	Name   string
	Rounds int

	W    [80]gate.Word // message schedule, w[0..16) are decision variables
	HIn  [5]gate.Word
	HOut [5]gate.Word
	A    [85]gate.Word // working-word history, a[4..-1..0] seeded from HIn
	K    [4]gate.Word
	F    []gate.Word // per-round mixing output, len == Rounds
}

// Build allocates every variable of a Rounds-round SHA-1 circuit and emits
// every constraint wiring them together, per spec.md §4.5.
func Build(sys *encoder.System, strat adder.Strategy, useXor bool, rounds int, name string) (*Circuit, error) {
	sys.Comment("sha1")
	sys.Comment(fmt.Sprintf("parameter nr_rounds = %d", rounds))

	c := &Circuit{Name: name, Rounds: rounds}

	for i := 0; i < 16; i++ {
		ids := sys.Fresh(fmt.Sprintf("w%s[%d]", name, i), 32, true)
		copy(c.W[i][:], ids)
	}

	wt := make([]gate.Word, rounds)
	for i := 16; i < rounds; i++ {
		ids := sys.Fresh(fmt.Sprintf("w%s[%d]", name, i), 32, false)
		copy(wt[i][:], ids)
	}

	for i := 0; i < 5; i++ {
		ids := sys.Fresh(fmt.Sprintf("h%s_in%d", name, i), 32, false)
		copy(c.HIn[i][:], ids)
	}
	for i := 0; i < 5; i++ {
		ids := sys.Fresh(fmt.Sprintf("h%s_out%d", name, i), 32, false)
		copy(c.HOut[i][:], ids)
	}

	for i := 0; i < rounds; i++ {
		ids := sys.Fresh(fmt.Sprintf("a[%d]", i+5), 32, false)
		copy(c.A[i+5][:], ids)
	}

	for i := 16; i < rounds; i++ {
		gate.Xor4(sys, useXor, wt[i], c.W[i-3], c.W[i-8], c.W[i-14], c.W[i-16])
		c.W[i] = wt[i].Rotl(1)
	}

	c.K[0] = gate.NewConstant(sys, "k[0]", RoundConstants[0])
	c.K[1] = gate.NewConstant(sys, "k[1]", RoundConstants[1])
	c.K[2] = gate.NewConstant(sys, "k[2]", RoundConstants[2])
	c.K[3] = gate.NewConstant(sys, "k[3]", RoundConstants[3])

	gate.Constant32(sys, c.HIn[0], InitialChain[0])
	gate.Constant32(sys, c.HIn[1], InitialChain[1])
	gate.Constant32(sys, c.HIn[2], InitialChain[2])
	gate.Constant32(sys, c.HIn[3], InitialChain[3])
	gate.Constant32(sys, c.HIn[4], InitialChain[4])

	c.A[4] = c.HIn[0].Rotl(0)
	c.A[3] = c.HIn[1].Rotl(0)
	c.A[2] = c.HIn[2].Rotl(2)
	c.A[1] = c.HIn[3].Rotl(2)
	c.A[0] = c.HIn[4].Rotl(2)

	c.F = make([]gate.Word, rounds)
	for i := 0; i < rounds; i++ {
		prevA := c.A[i+4].Rotl(5)
		b := c.A[i+3]
		cc := c.A[i+2].Rotl(30)
		d := c.A[i+1].Rotl(30)
		e := c.A[i].Rotl(30)

		fIDs := sys.Fresh(fmt.Sprintf("f[%d]", i), 32, false)
		copy(c.F[i][:], fIDs)
		f := c.F[i]

		mixRound(sys, useXor, i, f, b, cc, d)

		label := fmt.Sprintf("a[%d]", i+5)
		if err := strat.Add5(sys, label, c.A[i+5], prevA, f, e, c.K[i/20], c.W[i]); err != nil {
			return nil, fmt.Errorf("sha1circuit: round %d: %w", i, err)
		}
	}

	finalC := c.A[rounds+2].Rotl(30)
	finalD := c.A[rounds+1].Rotl(30)
	finalE := c.A[rounds+0].Rotl(30)

	if err := strat.Add2(sys, "h_out", c.HOut[0], c.HIn[0], c.A[rounds+4]); err != nil {
		return nil, fmt.Errorf("sha1circuit: h_out[0]: %w", err)
	}
	if err := strat.Add2(sys, "h_out", c.HOut[1], c.HIn[1], c.A[rounds+3]); err != nil {
		return nil, fmt.Errorf("sha1circuit: h_out[1]: %w", err)
	}
	if err := strat.Add2(sys, "h_out", c.HOut[2], c.HIn[2], finalC); err != nil {
		return nil, fmt.Errorf("sha1circuit: h_out[2]: %w", err)
	}
	if err := strat.Add2(sys, "h_out", c.HOut[3], c.HIn[3], finalD); err != nil {
		return nil, fmt.Errorf("sha1circuit: h_out[3]: %w", err)
	}
	if err := strat.Add2(sys, "h_out", c.HOut[4], c.HIn[4], finalE); err != nil {
		return nil, fmt.Errorf("sha1circuit: h_out[4]: %w", err)
	}

	return c, nil
}

// mixRound emits round i's mixing function f = F_i(b, c, d) per spec.md
// §4.3.1. Rounds 0-19 and 40-59 expand their selector/majority definition
// to six 3-literal clauses per bit directly; the original generator
// carries a seventh, commented-out clause for the 40-59 majority gate
// (f ∨ ¬b ∨ ¬c ∨ ¬d) — truth-table enumeration shows it is already implied
// by the six emitted clauses, so it is correctly omitted here too.
func mixRound(sys *encoder.System, useXor bool, round int, f, b, c, d gate.Word) {
	switch {
	case round < 20:
		for j := 0; j < 32; j++ {
			sys.Clause(-f[j], -b[j], c[j])
			sys.Clause(-f[j], b[j], d[j])
			sys.Clause(-f[j], c[j], d[j])
			sys.Clause(f[j], -b[j], -c[j])
			sys.Clause(f[j], b[j], -d[j])
			sys.Clause(f[j], -c[j], -d[j])
		}
	case round < 40:
		gate.Xor3(sys, useXor, f, b, c, d)
	case round < 60:
		for j := 0; j < 32; j++ {
			sys.Clause(-f[j], b[j], c[j])
			sys.Clause(-f[j], b[j], d[j])
			sys.Clause(-f[j], c[j], d[j])
			sys.Clause(f[j], -b[j], -c[j])
			sys.Clause(f[j], -b[j], -d[j])
			sys.Clause(f[j], -c[j], -d[j])
		}
	default:
		gate.Xor3(sys, useXor, f, b, c, d)
	}
}
