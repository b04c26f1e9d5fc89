// Package encoder holds the variable registry and the two append-only
// constraint sinks (CNF, OPB) that every other package in this module
// writes through. It is the process-wide, single-instance state described
// by the generator's design notes: one *System value threaded explicitly
// into every emission call, never a package-level global.
package encoder

import (
	"bytes"
	"fmt"
	"io"
	"math/bits"

	"github.com/bits-and-blooms/bitset"
)

// Config selects which optional output channels and clause forms are
// active for a run. It is populated once by the driver and never mutated
// afterwards.
type Config struct {
	CNF               bool
	OPB               bool
	UseXorClauses     bool
	UseHalfAdderLines bool
	RestrictBranching bool
}

// System is the variable registry and constraint sinks rolled into one
// value. Every allocation and emission function in this module takes a
// *System explicitly; there is no hidden global state.
type System struct {
	cfg Config

	nrVariables   int
	nrClauses     uint64
	nrXorClauses  uint64
	nrConstraints uint64

	cnf bytes.Buffer
	opb bytes.Buffer

	// nonDecision tracks which ids were allocated as non-decision (for
	// --restrict-branching); kept only so tests can assert the invariant
	// in spec scenario 6 without re-parsing the CNF text.
	nonDecision *bitset.BitSet
}

// New creates an encoder for the given configuration.
func New(cfg Config) *System {
	return &System{
		cfg:         cfg,
		nonDecision: bitset.New(0),
	}
}

// Count returns the number of variables allocated so far.
func (s *System) Count() int { return s.nrVariables }

// IsDecision reports whether id was allocated as a decision variable.
// Only meaningful when RestrictBranching is set; otherwise always true.
func (s *System) IsDecision(id int) bool {
	if id <= 0 || uint(id) > s.nonDecision.Len() {
		return true
	}
	return !s.nonDecision.Test(uint(id))
}

// Fresh allocates n consecutive fresh variable ids, records a "var" comment
// and, when branching restriction is active, a decision hint per id.
func (s *System) Fresh(label string, n int, decision bool) []int {
	ids := make([]int, n)
	for i := 0; i < n; i++ {
		s.nrVariables++
		ids[i] = s.nrVariables
	}
	if n > 0 {
		s.Comment(fmt.Sprintf("var %d/%d %s", ids[0], n, label))
	}

	if s.cfg.RestrictBranching {
		for _, id := range ids {
			if decision {
				fmt.Fprintf(&s.cnf, "d %d 0\n", id)
			} else {
				fmt.Fprintf(&s.cnf, "d -%d 0\n", id)
				s.nonDecision.Set(uint(id))
			}
		}
	}
	return ids
}

// Comment writes a comment line to both sinks.
func (s *System) Comment(str string) {
	fmt.Fprintf(&s.cnf, "c %s\n", str)
	fmt.Fprintf(&s.opb, "* %s\n", str)
}

// Constant pins a single literal to value, in both sinks.
func (s *System) Constant(r int, value bool) {
	if value {
		fmt.Fprintf(&s.cnf, "%d 0\n", r)
	} else {
		fmt.Fprintf(&s.cnf, "-%d 0\n", r)
	}
	b := 0
	if value {
		b = 1
	}
	fmt.Fprintf(&s.opb, "1 x%d = %d;\n", r, b)
	s.nrClauses++
	s.nrConstraints++
}

// Clause emits a disjunction of literals to CNF and the equivalent >= 1
// pseudo-boolean inequality to OPB.
func (s *System) Clause(lits ...int) {
	for _, x := range lits {
		if x < 0 {
			fmt.Fprintf(&s.cnf, "-%d ", -x)
			fmt.Fprintf(&s.opb, "1 ~x%d ", -x)
		} else {
			fmt.Fprintf(&s.cnf, "%d ", x)
			fmt.Fprintf(&s.opb, "1 x%d ", x)
		}
	}
	s.cnf.WriteString("0\n")
	s.opb.WriteString(">= 1;\n")
	s.nrClauses++
	s.nrConstraints++
}

// ClauseOPBOnly emits only the pseudo-boolean >= 1 inequality equivalent of
// a clause, with no CNF line. Used where the CNF side already carries the
// same constraint in a different form (a native "x ..." clause), so the OPB
// stream still gets the full parity-CNF expansion regardless of which CNF
// encoding is in play.
func (s *System) ClauseOPBOnly(lits ...int) {
	for _, x := range lits {
		if x < 0 {
			fmt.Fprintf(&s.opb, "1 ~x%d ", -x)
		} else {
			fmt.Fprintf(&s.opb, "1 x%d ", x)
		}
	}
	s.opb.WriteString(">= 1;\n")
	s.nrConstraints++
}

// XorClause emits a native XOR clause to CNF only.
func (s *System) XorClause(lits ...int) {
	s.cnf.WriteString("x ")
	for _, x := range lits {
		if x < 0 {
			fmt.Fprintf(&s.cnf, "-%d ", -x)
		} else {
			fmt.Fprintf(&s.cnf, "%d ", x)
		}
	}
	s.cnf.WriteString("0\n")
	s.nrXorClauses++
}

// cnfClause emits a plain disjunction to CNF only, bumping nr_clauses. Used
// for clauses produced by the half-adder minimizer, which are already
// balanced against a single combined OPB constraint written separately.
func (s *System) cnfClause(lits []int) {
	for _, x := range lits {
		if x < 0 {
			fmt.Fprintf(&s.cnf, "-%d ", -x)
		} else {
			fmt.Fprintf(&s.cnf, "%d ", x)
		}
	}
	s.cnf.WriteString("0\n")
	s.nrClauses++
}

// EmitMinimizedClauses writes the clauses returned by the logic minimizer
// for a half-adder shape, translating the minimizer's 1-based literal
// convention (unary inputs first, then the binary rhs, msb adjacent to the
// unary block) back into concrete variable ids.
func (s *System) EmitMinimizedClauses(lhs, rhs []int, minimized [][]int) {
	n := len(lhs)
	m := len(rhs)
	for _, term := range minimized {
		lits := make([]int, 0, len(term))
		for _, lit := range term {
			j := lit
			neg := false
			if j < 0 {
				neg = true
				j = -j
			}
			j-- // 1-based -> 0-based column index
			var v int
			if j < n {
				v = lhs[j]
			} else {
				v = rhs[m-1-(j-n)]
			}
			if neg {
				v = -v
			}
			lits = append(lits, v)
		}
		s.cnfClause(lits)
	}
}

// HalfAdderLine emits a native half-adder constraint "h <lhs> 0 <rhs> 0" to
// CNF only, for solvers that understand the construct directly.
func (s *System) HalfAdderLine(lhs, rhs []int) {
	s.cnf.WriteString("h ")
	for _, x := range lhs {
		fmt.Fprintf(&s.cnf, "%d ", x)
	}
	s.cnf.WriteString("0 ")
	for _, x := range rhs {
		fmt.Fprintf(&s.cnf, "%d ", x)
	}
	s.cnf.WriteString("0\n")
}

// HalfAdderOPB emits the pseudo-boolean equation equivalent to a
// half-adder constraint: sum(lhs) - sum(2^i * rhs[i]) = 0. Always written,
// independent of which half-adder CNF form (native line or minimized
// clauses) is active, since the OPB buffer is only flushed when OPB output
// was requested.
func (s *System) HalfAdderOPB(lhs, rhs []int) {
	for _, x := range lhs {
		fmt.Fprintf(&s.opb, "1 x%d ", x)
	}
	for i, x := range rhs {
		fmt.Fprintf(&s.opb, "-%d x%d ", int64(1)<<uint(i), x)
	}
	s.opb.WriteString("= 0;\n")
	s.nrConstraints++
}

// LinearAdditionOPB emits the single linear equality used by the compact
// pseudo-boolean adder encoding: sum(2^i*in[k][i]) over all input words,
// minus sum(2^i*r[i]), minus sum(2^(32+j)*carry[j]) over freshly allocated
// carry-out bits, equals 0. The carry-out bits absorb any overflow past the
// top bit of r, so r is the sum modulo 2^32.
func (s *System) LinearAdditionOPB(inputs [][]int, r []int) {
	// n words sum to less than n*2^32, so the carry-out is at most n-1.
	carries := s.Fresh("carry_out", bits.Len(uint(len(inputs)-1)), false)
	for _, word := range inputs {
		for i, x := range word {
			fmt.Fprintf(&s.opb, "%d x%d ", int64(1)<<uint(i), x)
		}
	}
	for i, x := range r {
		fmt.Fprintf(&s.opb, "-%d x%d ", int64(1)<<uint(i), x)
	}
	for j, x := range carries {
		fmt.Fprintf(&s.opb, "-%d x%d ", int64(1)<<uint(len(r)+j), x)
	}
	s.opb.WriteString("= 0;\n")
	s.nrConstraints++
}

// WriteCNF flushes the header-prefixed CNF stream.
func (s *System) WriteCNF(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "p cnf %d %d\n", s.nrVariables, s.nrClauses); err != nil {
		return err
	}
	_, err := w.Write(s.cnf.Bytes())
	return err
}

// WriteOPB flushes the header-prefixed OPB stream.
func (s *System) WriteOPB(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "* #variable= %d #constraint= %d\n", s.nrVariables, s.nrConstraints); err != nil {
		return err
	}
	_, err := w.Write(s.opb.Bytes())
	return err
}

// Counts exposes the raw counters, mostly for tests checking spec
// invariant "header counts are exact".
func (s *System) Counts() (variables int, clauses, xorClauses, constraints uint64) {
	return s.nrVariables, s.nrClauses, s.nrXorClauses, s.nrConstraints
}
