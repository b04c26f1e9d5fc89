package adder

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cryptosat/sha1sat/internal/encoder"
	"github.com/cryptosat/sha1sat/internal/gate"
	"github.com/cryptosat/sha1sat/internal/minimize"
)

func wordFromIDs(ids []int) gate.Word {
	var w gate.Word
	copy(w[:], ids)
	return w
}

func parseCNF(t *testing.T, sys *encoder.System) [][]int {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, sys.WriteCNF(&buf))
	var clauses [][]int
	for _, line := range strings.Split(buf.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "p "), strings.HasPrefix(line, "c "),
			strings.HasPrefix(line, "d "), strings.HasPrefix(line, "x "), strings.HasPrefix(line, "h "):
			continue
		}
		var clause []int
		for _, f := range strings.Fields(line) {
			v, err := strconv.Atoi(f)
			require.NoError(t, err)
			if v != 0 {
				clause = append(clause, v)
			}
		}
		clauses = append(clauses, clause)
	}
	return clauses
}

func clausesInvolvingOnly(clauses [][]int, vars map[int]bool) [][]int {
	var out [][]int
	for _, c := range clauses {
		ok := true
		for _, lit := range c {
			v := lit
			if v < 0 {
				v = -v
			}
			if !vars[v] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, c)
		}
	}
	return out
}

func existsSatisfying(clauses [][]int, fixed map[int]bool, free []int) bool {
	for mask := 0; mask < 1<<uint(len(free)); mask++ {
		assign := map[int]bool{}
		for k, v := range fixed {
			assign[k] = v
		}
		for i, v := range free {
			assign[v] = (mask>>uint(i))&1 == 1
		}
		if satisfiesAll(clauses, assign) {
			return true
		}
	}
	return false
}

func satisfiesAll(clauses [][]int, assign map[int]bool) bool {
	for _, c := range clauses {
		ok := false
		for _, lit := range c {
			v, want := lit, true
			if v < 0 {
				v, want = -v, false
			}
			if assign[v] == want {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// TestTseitinAdd2Bit0IsCorrectFullAdder isolates the clauses that mention
// only bit 0's variables (a[0], b[0], r[0], and the internal carry-out c[0])
// and checks that r[0] == a[0] XOR b[0] has a satisfying c[0] while the
// opposite value of r[0] has none — the Tseitin-correctness property
// restated as existential satisfiability over the one auxiliary variable
// this bit touches.
func TestTseitinAdd2Bit0IsCorrectFullAdder(t *testing.T) {
	sys := encoder.New(encoder.Config{CNF: true})
	r := sys.Fresh("r", 32, false)
	a := sys.Fresh("a", 32, false)
	b := sys.Fresh("b", 32, false)

	strat := New(Config{Kind: Tseitin}, nil)
	require.NoError(t, strat.Add2(sys, "test", wordFromIDs(r), wordFromIDs(a), wordFromIDs(b)))

	clauses := parseCNF(t, sys)

	for _, av := range []bool{false, true} {
		for _, bv := range []bool{false, true} {
			fixed := map[int]bool{a[0]: av, b[0]: bv}

			// Find c[0]'s variable id: it's allocated right after r,a,b (96
			// ids), as the first element of the 31-wide "carry" block.
			c0 := 97

			bit0Vars := map[int]bool{a[0]: true, b[0]: true, r[0]: true, c0: true}
			bit0Clauses := clausesInvolvingOnly(clauses, bit0Vars)
			require.NotEmpty(t, bit0Clauses)

			correct := av != bv
			fixedCorrect := map[int]bool{}
			for k, v := range fixed {
				fixedCorrect[k] = v
			}
			fixedCorrect[r[0]] = correct
			require.Truef(t, existsSatisfying(bit0Clauses, fixedCorrect, []int{c0}),
				"a=%v b=%v: correct r[0]=%v should be satisfiable", av, bv, correct)

			fixedWrong := map[int]bool{}
			for k, v := range fixed {
				fixedWrong[k] = v
			}
			fixedWrong[r[0]] = !correct
			require.Falsef(t, existsSatisfying(bit0Clauses, fixedWrong, []int{c0}),
				"a=%v b=%v: wrong r[0]=%v should be unsatisfiable", av, bv, !correct)
		}
	}
}

func TestTseitinAdd2AllocatesExpectedAuxiliaryCount(t *testing.T) {
	sys := encoder.New(encoder.Config{CNF: true})
	r := sys.Fresh("r", 32, false)
	a := sys.Fresh("a", 32, false)
	b := sys.Fresh("b", 32, false)
	before := sys.Count()

	strat := New(Config{Kind: Tseitin}, nil)
	require.NoError(t, strat.Add2(sys, "test", wordFromIDs(r), wordFromIDs(a), wordFromIDs(b)))

	// carry, t0, t1, t2: four 31-wide auxiliary words.
	require.Equal(t, before+31*4, sys.Count())
}

func TestCompactAdd2EmitsSingleLinearEquation(t *testing.T) {
	sys := encoder.New(encoder.Config{OPB: true})
	r := sys.Fresh("r", 32, false)
	a := sys.Fresh("a", 32, false)
	b := sys.Fresh("b", 32, false)

	strat := New(Config{Kind: Compact}, nil)
	require.NoError(t, strat.Add2(sys, "test", wordFromIDs(r), wordFromIDs(a), wordFromIDs(b)))

	_, _, _, constraints := sys.Counts()
	require.EqualValues(t, 1, constraints)

	var buf bytes.Buffer
	require.NoError(t, sys.WriteOPB(&buf))
	require.Contains(t, buf.String(), "= 0;")

	// The equation must hold arithmetically for a genuine sum.
	av, bv := uint32(0xdeadbeef), uint32(0x12345678)
	rv := av + bv
	sum := int64(0)
	for i := 0; i < 32; i++ {
		if (av>>uint(i))&1 != 0 {
			sum += int64(1) << uint(i)
		}
		if (bv>>uint(i))&1 != 0 {
			sum += int64(1) << uint(i)
		}
		if (rv>>uint(i))&1 != 0 {
			sum -= int64(1) << uint(i)
		}
	}
	require.Zero(t, sum)
}

func TestHalfAdderNativeLineWidthsMatchPopcountBudget(t *testing.T) {
	sys := encoder.New(encoder.Config{CNF: true})
	r := sys.Fresh("r", 32, false)
	a := sys.Fresh("a", 32, false)
	b := sys.Fresh("b", 32, false)

	strat := New(Config{Kind: HalfAdder, NativeHalfAdder: true}, minimize.NewCache(minimize.Enumerator{}))
	require.NoError(t, strat.Add2(sys, "test", wordFromIDs(r), wordFromIDs(a), wordFromIDs(b)))

	var buf bytes.Buffer
	require.NoError(t, sys.WriteCNF(&buf))
	var hLines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "h ") {
			hLines = append(hLines, line)
		}
	}
	require.Len(t, hLines, 32)

	// Column 0 has exactly 2 addends (a[0], b[0]): k=2, m=floorLog2(2)=1, so
	// rhs width is 1+1=2 and lhs width is 2.
	fields := strings.Fields(hLines[0])
	// "h a0 b0 0 r0 c0 0" -> lhs before first literal "0" has 2 entries.
	zeroIdx := -1
	for i, f := range fields {
		if f == "0" {
			zeroIdx = i
			break
		}
	}
	require.Equal(t, 2, zeroIdx-1) // "h" token + 2 lhs entries before "0"
}
