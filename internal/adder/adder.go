// Package adder implements the three interchangeable strategies for
// encoding 32-bit modular addition of 2 or 5 inputs: Tseitin ripple-carry,
// compact pseudo-boolean (OPB only), and the half-adder encoding that
// routes each bit column's unary popcount through a minimized CNF
// constraint. All three share one Strategy contract and are selected once
// at startup; the design deliberately avoids switching strategies
// mid-circuit.
package adder

import (
	"fmt"
	"math/bits"

	"github.com/cryptosat/sha1sat/internal/encoder"
	"github.com/cryptosat/sha1sat/internal/gate"
	"github.com/cryptosat/sha1sat/internal/minimize"
)

// Kind selects which of the three encodings New builds.
type Kind int

const (
	// HalfAdder is the default, novel encoding (spec.md §4.4(c)).
	HalfAdder Kind = iota
	// Tseitin is the ripple-carry Tseitin encoding (spec.md §4.4(a)).
	Tseitin
	// Compact is the OPB-only linear equation encoding (spec.md §4.4(b)).
	Compact
)

// Config selects the adder strategy and its sub-options.
type Config struct {
	Kind Kind

	// UseXorClauses threads through to the Tseitin strategy's internal XOR
	// gates; the half-adder and compact strategies emit no XOR gates and
	// ignore it.
	UseXorClauses bool

	// NativeHalfAdder skips minimization and emits "h ..." lines verbatim;
	// only meaningful when Kind == HalfAdder.
	NativeHalfAdder bool
}

// Strategy encodes a + b = r (Add2) or a + b + c + d + e = r (Add5) over
// 32-bit words. All methods may fail only for the half-adder strategy,
// when the external minimizer is in play.
type Strategy interface {
	Add2(sys *encoder.System, label string, r, a, b gate.Word) error
	Add5(sys *encoder.System, label string, r, a, b, c, d, e gate.Word) error
}

// New builds the configured strategy. min is only consulted by the
// half-adder strategy and may be nil for Tseitin or Compact.
func New(cfg Config, min *minimize.Cache) Strategy {
	switch cfg.Kind {
	case Tseitin:
		return &tseitinAdder{useXor: cfg.UseXorClauses}
	case Compact:
		return &compactAdder{}
	default:
		return &halfAdderAdder{native: cfg.NativeHalfAdder, cache: min}
	}
}

// Shapes returns every (k, m+1) half-adder shape a circuit with the given
// round count will need, so a Cache can be warmed eagerly (design notes
// §9: "it is safe to warm the cache eagerly for all shapes that will
// appear in a given circuit, derivable from R").
func Shapes(rounds int) [][2]int {
	seen := map[[2]int]bool{}
	var shapes [][2]int
	add := func(k int) {
		m := floorLog2(k)
		key := [2]int{k, 1 + m}
		if !seen[key] {
			seen[key] = true
			shapes = append(shapes, key)
		}
	}
	// add2: 2 direct inputs, then successive overflow columns shrink
	// quickly; add5 dominates the shape set so it's enough to simulate
	// both up to a safe column budget.
	simulate := func(n int) {
		addends := make([]int, 32+8)
		for i := 0; i < 32; i++ {
			addends[i] += n
		}
		for i := 0; i < 32; i++ {
			k := addends[i]
			if k == 0 {
				continue
			}
			add(k)
			m := floorLog2(k)
			for j := 1; j <= m && i+j < len(addends); j++ {
				addends[i+j]++
			}
		}
	}
	simulate(2)
	simulate(5)
	_ = rounds
	return shapes
}

func floorLog2(k int) int {
	if k <= 1 {
		return 0
	}
	return bits.Len(uint(k)) - 1
}

// --- Tseitin ripple-carry ---------------------------------------------

type tseitinAdder struct {
	useXor bool
}

func (t *tseitinAdder) Add2(sys *encoder.System, label string, r, a, b gate.Word) error {
	sys.Comment("add2")

	c := sys.Fresh("carry", 31, false)
	t0 := sys.Fresh("t0", 31, false)
	t1 := sys.Fresh("t1", 31, false)
	t2 := sys.Fresh("t2", 31, false)

	gate.AndBits(sys, c[:1], a[:1], b[:1])
	gate.Xor2Bits(sys, t.useXor, r[:1], a[:1], b[:1])

	gate.Xor2Bits(sys, t.useXor, t0, a[1:], b[1:])
	gate.AndBits(sys, t1, a[1:], b[1:])
	gate.AndBits(sys, t2, t0, c)
	gate.OrBits(sys, c[1:], t1[:30], t2[:30])
	gate.Xor2Bits(sys, t.useXor, r[1:], t0, c)
	return nil
}

func (t *tseitinAdder) Add5(sys *encoder.System, label string, r, a, b, c, d, e gate.Word) error {
	sys.Comment("add5")

	t0 := sys.Fresh("t0", 32, false)
	t1 := sys.Fresh("t1", 32, false)
	t2 := sys.Fresh("t2", 32, false)

	var t0w, t1w, t2w gate.Word
	copy(t0w[:], t0)
	copy(t1w[:], t1)
	copy(t2w[:], t2)

	if err := t.Add2(sys, label, t0w, a, b); err != nil {
		return err
	}
	if err := t.Add2(sys, label, t1w, c, d); err != nil {
		return err
	}
	if err := t.Add2(sys, label, t2w, t0w, t1w); err != nil {
		return err
	}
	return t.Add2(sys, label, r, t2w, e)
}

// --- Compact pseudo-boolean --------------------------------------------

type compactAdder struct{}

func (compactAdder) Add2(sys *encoder.System, label string, r, a, b gate.Word) error {
	sys.Comment("add2")
	sys.LinearAdditionOPB([][]int{a[:], b[:]}, r[:])
	return nil
}

func (compactAdder) Add5(sys *encoder.System, label string, r, a, b, c, d, e gate.Word) error {
	sys.Comment("add5")
	sys.LinearAdditionOPB([][]int{a[:], b[:], c[:], d[:], e[:]}, r[:])
	return nil
}

// --- Half-adder ----------------------------------------------------------

type halfAdderAdder struct {
	native bool
	cache  *minimize.Cache
}

func (h *halfAdderAdder) Add2(sys *encoder.System, label string, r, a, b gate.Word) error {
	sys.Comment("add2")
	return h.add(sys, label, r[:], a[:], b[:])
}

func (h *halfAdderAdder) Add5(sys *encoder.System, label string, r, a, b, c, d, e gate.Word) error {
	sys.Comment("add5")
	return h.add(sys, label, r[:], a[:], b[:], c[:], d[:], e[:])
}

// add implements the column-by-column half-adder routing of spec.md
// §4.4(c): each column's addends (direct inputs plus carries routed from
// lower columns) are asserted to sum, in unary, to the binary value of a
// freshly allocated rhs word.
func (h *halfAdderAdder) add(sys *encoder.System, label string, r []int, inputs ...[]int) error {
	addends := make([][]int, 32+8)
	for _, in := range inputs {
		for i := 0; i < 32; i++ {
			addends[i] = append(addends[i], in[i])
		}
	}

	for i := 0; i < 32; i++ {
		k := len(addends[i])
		m := floorLog2(k)
		rhs := make([]int, 1+m)
		rhs[0] = r[i]
		if m > 0 {
			carries := sys.Fresh(fmt.Sprintf("%s_rhs[%d]", label, i), m, false)
			copy(rhs[1:], carries)
			for j := 1; j < 1+m; j++ {
				if i+j < len(addends) {
					addends[i+j] = append(addends[i+j], rhs[j])
				}
			}
		}

		if err := h.emit(sys, addends[i], rhs); err != nil {
			return fmt.Errorf("adder: half-adder column %d: %w", i, err)
		}
	}
	return nil
}

func (h *halfAdderAdder) emit(sys *encoder.System, lhs, rhs []int) error {
	if h.native {
		sys.HalfAdderLine(lhs, rhs)
	} else {
		clauses, err := h.cache.Minimize(len(lhs), len(rhs))
		if err != nil {
			return err
		}
		minimized := make([][]int, len(clauses))
		for i, c := range clauses {
			minimized[i] = c
		}
		sys.EmitMinimizedClauses(lhs, rhs, minimized)
	}
	sys.HalfAdderOPB(lhs, rhs)
	return nil
}
