package encoder

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFreshAllocatesDenseIDs(t *testing.T) {
	sys := New(Config{CNF: true})
	ids := sys.Fresh("w[0]", 32, true)
	if len(ids) != 32 {
		t.Fatalf("got %d ids, want 32", len(ids))
	}
	for i, id := range ids {
		if id != i+1 {
			t.Fatalf("ids[%d] = %d, want %d", i, id, i+1)
		}
	}
	if sys.Count() != 32 {
		t.Fatalf("Count() = %d, want 32", sys.Count())
	}
}

func TestClauseAndConstantCountExactly(t *testing.T) {
	sys := New(Config{CNF: true, OPB: true})
	ids := sys.Fresh("x", 3, true)
	sys.Clause(ids[0], -ids[1])
	sys.Clause(ids[1], ids[2])
	sys.Constant(ids[2], true)

	variables, clauses, xorClauses, constraints := sys.Counts()
	require.Equal(t, 3, variables)
	require.EqualValues(t, 3, clauses) // 2 clauses + 1 constant
	require.EqualValues(t, 0, xorClauses)
	require.EqualValues(t, 3, constraints)

	var cnf bytes.Buffer
	require.NoError(t, sys.WriteCNF(&cnf))
	lines := strings.Split(strings.TrimRight(cnf.String(), "\n"), "\n")
	if lines[0] != "p cnf 3 3" {
		t.Fatalf("header = %q", lines[0])
	}
	bodyClauses := 0
	for _, l := range lines[1:] {
		if !strings.HasPrefix(l, "c ") {
			bodyClauses++
		}
	}
	require.EqualValues(t, clauses, bodyClauses)
}

func TestRestrictBranchingEmitsHintsOnlyWhenConfigured(t *testing.T) {
	sys := New(Config{CNF: true, RestrictBranching: true})
	decision := sys.Fresh("w[0]", 4, true)
	nonDecision := sys.Fresh("carry", 4, false)

	var cnf bytes.Buffer
	require.NoError(t, sys.WriteCNF(&cnf))
	body := cnf.String()

	for _, id := range decision {
		if !strings.Contains(body, "d "+itoaHint(id)+" 0\n") {
			t.Fatalf("missing positive decision hint for %d:\n%s", id, body)
		}
		if !sys.IsDecision(id) {
			t.Fatalf("IsDecision(%d) = false, want true", id)
		}
	}
	for _, id := range nonDecision {
		if !strings.Contains(body, "d -"+itoaHint(id)+" 0\n") {
			t.Fatalf("missing negative decision hint for %d:\n%s", id, body)
		}
		if sys.IsDecision(id) {
			t.Fatalf("IsDecision(%d) = true, want false", id)
		}
	}
}

func TestIsDecisionDefaultsTrueWithoutRestriction(t *testing.T) {
	sys := New(Config{CNF: true})
	ids := sys.Fresh("w[0]", 2, false)
	for _, id := range ids {
		if !sys.IsDecision(id) {
			t.Fatalf("IsDecision(%d) = false without --restrict-branching, want true", id)
		}
	}
}

func TestEmitMinimizedClausesMapsLiteralsBothSides(t *testing.T) {
	sys := New(Config{CNF: true})
	lhs := []int{10, 11}
	rhs := []int{20, 21}
	// literal 1 -> lhs[0], literal 2 -> lhs[1], literal 3 -> rhs[1] (m-1-(3-2)=0 -> rhs[len-1-0]=rhs[1]),
	// literal 4 -> rhs[0].
	sys.EmitMinimizedClauses(lhs, rhs, [][]int{{1, -2, 3, -4}})

	var cnf bytes.Buffer
	require.NoError(t, sys.WriteCNF(&cnf))
	if !strings.Contains(cnf.String(), "10 -11 21 -20 0\n") {
		t.Fatalf("unexpected mapped clause in:\n%s", cnf.String())
	}
}

func itoaHint(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	s := string(buf[i:])
	if neg {
		return "-" + s
	}
	return s
}
