// Package attack implements the three attack kinds (preimage,
// second-preimage, collision) on top of the SHA-1 circuit builder: each
// computes a native ground-truth reference using package sha1ref, picks
// random bit positions with a Fisher-Yates shuffle, and pins the
// corresponding circuit variables to constants.
package attack

import (
	"fmt"
	"math/rand"

	"golang.org/x/exp/slices"

	"github.com/cryptosat/sha1sat/internal/adder"
	"github.com/cryptosat/sha1sat/internal/encoder"
	"github.com/cryptosat/sha1sat/internal/gate"
	"github.com/cryptosat/sha1sat/internal/sha1circuit"
	"github.com/cryptosat/sha1sat/internal/sha1ref"
	"github.com/cryptosat/sha1sat/internal/slog"
)

// Config carries the instance parameters common to every attack kind.
type Config struct {
	Rounds      int
	MessageBits int
	HashBits    int
}

// Streams holds the two independent PRNG streams the driver seeds: Shuffle
// drives Fisher-Yates position selection, Message drives the synthetic
// reference message.
type Streams struct {
	Shuffle *rand.Rand
	Message *rand.Rand
}

// Result exposes what the attack pinned, for tests that want to check the
// reduction to SHA-1 forward computation without re-parsing CNF text.
type Result struct {
	Circuits []*sha1circuit.Circuit
	Message  [16]uint32
	Hash     [5]uint32
}

const (
	messageBitWidth = 512
	hashBitWidth    = 160
)

func shuffledIndices(r *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	r.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	return idx
}

func referenceMessageAndHash(rounds int, stream *rand.Rand) ([16]uint32, [5]uint32) {
	var message [16]uint32
	schedule := make([]uint32, 80)
	for i := 0; i < 16; i++ {
		schedule[i] = stream.Uint32()
		message[i] = schedule[i]
	}
	hash := sha1ref.Forward(rounds, schedule)
	return message, hash
}

func logPinnedPositions(sys *encoder.System, kind string, positions []int) {
	if len(positions) == 0 {
		return
	}
	sorted := append([]int(nil), positions...)
	slices.Sort(sorted)
	sys.Comment(fmt.Sprintf("pinned %s bit positions: %v", kind, sorted))
}

// Preimage builds one circuit, pins k random message-bit positions to
// their reference values, and h random hash-bit positions to their
// reference values.
func Preimage(sys *encoder.System, strat adder.Strategy, useXor bool, cfg Config, streams Streams) (*Result, error) {
	circ, err := sha1circuit.Build(sys, strat, useXor, cfg.Rounds, "")
	if err != nil {
		return nil, err
	}

	message, hash := referenceMessageAndHash(cfg.Rounds, streams.Message)

	sys.Comment(fmt.Sprintf("Fix %d message bits", cfg.MessageBits))
	messageBits := shuffledIndices(streams.Shuffle, messageBitWidth)
	for i := 0; i < cfg.MessageBits; i++ {
		r, s := messageBits[i]/32, messageBits[i]%32
		sys.Constant(circ.W[r][s], bitSet(message[r], s))
	}
	logPinnedPositions(sys, "message", messageBits[:cfg.MessageBits])

	sys.Comment(fmt.Sprintf("Fix %d hash bits", cfg.HashBits))
	hashBits := shuffledIndices(streams.Shuffle, hashBitWidth)
	for i := 0; i < cfg.HashBits; i++ {
		r, s := hashBits[i]/32, hashBits[i]%32
		sys.Constant(circ.HOut[r][s], bitSet(hash[r], s))
	}
	logPinnedPositions(sys, "hash", hashBits[:cfg.HashBits])

	return &Result{Circuits: []*sha1circuit.Circuit{circ}, Message: message, Hash: hash}, nil
}

// SecondPreimage behaves like Preimage except the first selected
// message-bit position is pinned to the complement of the reference
// value, forcing the message to differ from the reference in at least one
// bit. If k == 0, no message pin is emitted and distinctness is not
// enforced — logged as a warning, not an error, per spec.md §4.6.
func SecondPreimage(sys *encoder.System, strat adder.Strategy, useXor bool, cfg Config, streams Streams) (*Result, error) {
	circ, err := sha1circuit.Build(sys, strat, useXor, cfg.Rounds, "")
	if err != nil {
		return nil, err
	}

	message, hash := referenceMessageAndHash(cfg.Rounds, streams.Message)

	sys.Comment(fmt.Sprintf("Fix %d message bits", cfg.MessageBits))
	messageBits := shuffledIndices(streams.Shuffle, messageBitWidth)

	if cfg.MessageBits > 0 {
		r, s := messageBits[0]/32, messageBits[0]%32
		sys.Constant(circ.W[r][s], !bitSet(message[r], s))
	} else {
		logger := slog.Logger()
		logger.Warn().Msg("second-preimage with --message-bits 0 does not force the message to differ from the reference")
	}
	for i := 1; i < cfg.MessageBits; i++ {
		r, s := messageBits[i]/32, messageBits[i]%32
		sys.Constant(circ.W[r][s], bitSet(message[r], s))
	}
	logPinnedPositions(sys, "message", messageBits[:cfg.MessageBits])

	sys.Comment(fmt.Sprintf("Fix %d hash bits", cfg.HashBits))
	hashBits := shuffledIndices(streams.Shuffle, hashBitWidth)
	for i := 0; i < cfg.HashBits; i++ {
		r, s := hashBits[i]/32, hashBits[i]%32
		sys.Constant(circ.HOut[r][s], bitSet(hash[r], s))
	}
	logPinnedPositions(sys, "hash", hashBits[:cfg.HashBits])

	return &Result{Circuits: []*sha1circuit.Circuit{circ}, Message: message, Hash: hash}, nil
}

// Collision builds two independent circuits named "0" and "1", links one
// random message-bit position with an inequality (forcing the two
// messages apart) and h random hash-bit positions with equalities (forcing
// the two hashes together). Requesting message bits is ignored, with a
// warning, since collision never fixes message bits to a reference value.
func Collision(sys *encoder.System, strat adder.Strategy, useXor bool, cfg Config, streams Streams) (*Result, error) {
	f, err := sha1circuit.Build(sys, strat, useXor, cfg.Rounds, "0")
	if err != nil {
		return nil, err
	}
	g, err := sha1circuit.Build(sys, strat, useXor, cfg.Rounds, "1")
	if err != nil {
		return nil, err
	}

	if cfg.MessageBits > 0 {
		logger := slog.Logger()
		logger.Warn().Msg("collision attacks do not use fixed message bits")
	}

	sys.Comment(fmt.Sprintf("Fix %d message bits", cfg.MessageBits))
	messageBits := shuffledIndices(streams.Shuffle, messageBitWidth)
	r, s := messageBits[0]/32, messageBits[0]%32
	gate.NeqBits(sys, useXor, []int{f.W[r][s]}, []int{g.W[r][s]})

	sys.Comment(fmt.Sprintf("Fix %d hash bits", cfg.HashBits))
	hashBits := shuffledIndices(streams.Shuffle, hashBitWidth)
	for i := 0; i < cfg.HashBits; i++ {
		r, s := hashBits[i]/32, hashBits[i]%32
		gate.EqBits(sys, useXor, []int{f.HOut[r][s]}, []int{g.HOut[r][s]})
	}
	logPinnedPositions(sys, "hash", hashBits[:cfg.HashBits])

	return &Result{Circuits: []*sha1circuit.Circuit{f, g}}, nil
}

func bitSet(word uint32, bit int) bool {
	return (word>>uint(bit))&1 != 0
}
