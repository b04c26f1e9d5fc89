// Package sha1ref computes the native 32-bit-arithmetic SHA-1 forward
// function the attack layer needs as ground truth, truncated to an
// arbitrary round count exactly like the circuit it mirrors. Grounded in
// the Go standard library's crypto/sha1 block routine (see
// other_examples/markkurossi-mpc__sha1go.go), generalized to take an
// explicit round count and a 16-word block instead of a byte stream.
package sha1ref

import (
	"math/bits"

	"github.com/cryptosat/sha1sat/internal/sha1circuit"
)

// Forward computes the SHA-1 compression function over w[0:rounds],
// returning the five resulting chaining words. w must have at least
// rounds elements; message-schedule expansion past index 15 happens
// in-place on w.
func Forward(rounds int, w []uint32) [5]uint32 {
	h0, h1, h2, h3, h4 := sha1circuit.InitialChain[0], sha1circuit.InitialChain[1],
		sha1circuit.InitialChain[2], sha1circuit.InitialChain[3], sha1circuit.InitialChain[4]

	for i := 16; i < rounds; i++ {
		w[i] = bits.RotateLeft32(w[i-3]^w[i-8]^w[i-14]^w[i-16], 1)
	}

	a, b, c, d, e := h0, h1, h2, h3, h4
	for i := 0; i < rounds; i++ {
		var f, k uint32
		switch {
		case i < 20:
			f = (b & c) | (^b & d)
			k = sha1circuit.RoundConstants[0]
		case i < 40:
			f = b ^ c ^ d
			k = sha1circuit.RoundConstants[1]
		case i < 60:
			f = (b & c) | (b & d) | (c & d)
			k = sha1circuit.RoundConstants[2]
		default:
			f = b ^ c ^ d
			k = sha1circuit.RoundConstants[3]
		}

		t := bits.RotateLeft32(a, 5) + f + e + k + w[i]
		e, d, c, b, a = d, c, bits.RotateLeft32(b, 30), a, t
	}

	return [5]uint32{h0 + a, h1 + b, h2 + c, h3 + d, h4 + e}
}
