package minimize

import (
	"fmt"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
)

// acceptsExactRelation asserts that the clause set accepts exactly the rows where
// popcount(unary) == binary value of the (outBits)-wide rhs (MSB first,
// matching the column convention documented on the package).
func acceptsExactRelation(t *testing.T, clauses []Clause, k, outBits int) {
	t.Helper()
	for i := 0; i < 1<<uint(k); i++ {
		for j := 0; j < 1<<uint(outBits); j++ {
			assign := make(map[int]bool, k+outBits)
			for p := 0; p < k; p++ {
				assign[p+1] = (i>>uint(p))&1 == 1
			}
			for p := 0; p < outBits; p++ {
				bit := (j >> uint(outBits-1-p)) & 1
				assign[k+p+1] = bit == 1
			}

			valid := bits.OnesCount(uint(i)) == j
			got := true
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
					got = false
					break
				}
			}
			require.Equalf(t, valid, got, "k=%d outBits=%d i=%d j=%d", k, outBits, i, j)
		}
	}
}

func TestEnumeratorAcceptsExactRelation(t *testing.T) {
	for _, shape := range [][2]int{{1, 1}, {2, 2}, {3, 2}, {5, 3}} {
		k, outBits := shape[0], shape[1]
		t.Run(fmt.Sprintf("k=%d,bits=%d", k, outBits), func(t *testing.T) {
			clauses, err := (Enumerator{}).Minimize(k, outBits)
			require.NoError(t, err)
			acceptsExactRelation(t, clauses, k, outBits)
		})
	}
}

func TestEnumeratorRejectsNegativeShape(t *testing.T) {
	_, err := (Enumerator{}).Minimize(-1, 2)
	require.Error(t, err)
}

type countingMinimizer struct {
	calls int
}

func (c *countingMinimizer) Minimize(k, outBits int) ([]Clause, error) {
	c.calls++
	return Enumerator{}.Minimize(k, outBits)
}

func TestCacheMemoizesByShape(t *testing.T) {
	inner := &countingMinimizer{}
	cache := NewCache(inner)

	if _, err := cache.Minimize(3, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Minimize(3, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Minimize(5, 3); err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 2, inner.calls)
}

func TestWarmPrecomputesAllShapes(t *testing.T) {
	inner := &countingMinimizer{}
	cache := NewCache(inner)
	shapes := [][2]int{{2, 1}, {5, 3}, {2, 1}}
	require.NoError(t, cache.Warm(shapes))
	require.Equal(t, 2, inner.calls)

	inner.calls = 0
	if _, err := cache.Minimize(2, 1); err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 0, inner.calls, "Warm should have already cached (2,1)")
}
