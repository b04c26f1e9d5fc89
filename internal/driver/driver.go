// Package driver wires the configuration surface (spec.md §6) to the
// encoder, adder, and attack layers: it resolves the PRNG seed, emits the
// preamble comment block, dispatches to the chosen attack, and flushes the
// requested output buffers with their header lines.
package driver

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/cryptosat/sha1sat/internal/adder"
	"github.com/cryptosat/sha1sat/internal/attack"
	"github.com/cryptosat/sha1sat/internal/encoder"
	"github.com/cryptosat/sha1sat/internal/minimize"
	"github.com/cryptosat/sha1sat/internal/slog"
)

// Attack identifies which of the three attack kinds a run targets.
type Attack int

const (
	Preimage Attack = iota
	SecondPreimage
	Collision
)

// ParseAttack maps a --attack flag value to an Attack, or ErrInvalidAttack.
func ParseAttack(s string) (Attack, error) {
	switch s {
	case "preimage":
		return Preimage, nil
	case "second-preimage":
		return SecondPreimage, nil
	case "collision":
		return Collision, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAttack, s)
	}
}

func (a Attack) String() string {
	switch a {
	case Preimage:
		return "preimage"
	case SecondPreimage:
		return "second-preimage"
	case Collision:
		return "collision"
	default:
		return "unknown"
	}
}

// Config mirrors the command-line surface of spec.md §6, already parsed and
// type-checked. CommandLine is the exact argv the preamble should echo.
type Config struct {
	Seed    uint64
	SeedSet bool

	Attack      Attack
	Rounds      int
	MessageBits int
	HashBits    int

	CNF bool
	OPB bool

	TseitinAdders     bool
	XOR               bool
	HalfAdder         bool
	RestrictBranching bool
	CompactAdders     bool

	CommandLine string

	// MinimizerPath overrides the espresso binary path; empty uses "espresso"
	// on PATH.
	MinimizerPath string
}

// Validate checks the argument-validation rules of spec.md §7.1:
// out-of-range parameters and missing or mutually exclusive flags. The
// attack name is checked by ParseAttack, not here.
func (c Config) Validate() error {
	if c.Rounds < 16 || c.Rounds > 80 {
		return fmt.Errorf("%w: --rounds %d not in [16,80]", ErrParameterRange, c.Rounds)
	}
	if c.MessageBits < 0 || c.MessageBits > 512 {
		return fmt.Errorf("%w: --message-bits %d not in [0,512]", ErrParameterRange, c.MessageBits)
	}
	if c.HashBits < 0 || c.HashBits > 160 {
		return fmt.Errorf("%w: --hash-bits %d not in [0,160]", ErrParameterRange, c.HashBits)
	}
	if !c.CNF && !c.OPB {
		return fmt.Errorf("%w: at least one of --cnf or --opb is required", ErrFlagConflict)
	}
	if c.XOR && !c.CNF {
		return fmt.Errorf("%w: --xor requires --cnf", ErrFlagConflict)
	}
	if c.HalfAdder && !c.CNF {
		return fmt.Errorf("%w: --halfadder requires --cnf", ErrFlagConflict)
	}
	if c.CompactAdders && !c.OPB {
		return fmt.Errorf("%w: --compact-adders requires --opb", ErrFlagConflict)
	}
	if c.TseitinAdders && c.CompactAdders {
		return fmt.Errorf("%w: --tseitin-adders and --compact-adders are mutually exclusive", ErrFlagConflict)
	}
	if c.HalfAdder && (c.TseitinAdders || c.CompactAdders) {
		return fmt.Errorf("%w: --halfadder only applies to the default half-adder strategy", ErrFlagConflict)
	}
	return nil
}

// ResolveSeed returns the configured seed, or the current wall-clock second
// count if the caller never set one explicitly.
func (c Config) ResolveSeed() uint64 {
	if c.SeedSet {
		return c.Seed
	}
	return uint64(time.Now().Unix())
}

// Run executes one end-to-end generation: seed, preamble, circuit
// construction via the chosen attack, and flush to w.
func Run(cfg Config, w io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	seed := cfg.ResolveSeed()
	shuffleRand := rand.New(rand.NewSource(int64(seed)))
	messageSeed := shuffleRand.Uint32()
	messageRand := rand.New(rand.NewSource(int64(messageSeed)))

	sys := encoder.New(encoder.Config{
		CNF:               cfg.CNF,
		OPB:               cfg.OPB,
		UseXorClauses:     cfg.XOR,
		UseHalfAdderLines: cfg.HalfAdder,
		RestrictBranching: cfg.RestrictBranching,
	})

	emitPreamble(sys, cfg, seed)

	strat, err := buildStrategy(cfg)
	if err != nil {
		return err
	}

	streams := attack.Streams{Shuffle: shuffleRand, Message: messageRand}
	attackCfg := attack.Config{Rounds: cfg.Rounds, MessageBits: cfg.MessageBits, HashBits: cfg.HashBits}

	logger := slog.Logger()
	logger.Debug().Str("attack", cfg.Attack.String()).Int("rounds", cfg.Rounds).Msg("dispatching attack")

	switch cfg.Attack {
	case Preimage:
		_, err = attack.Preimage(sys, strat, cfg.XOR, attackCfg, streams)
	case SecondPreimage:
		_, err = attack.SecondPreimage(sys, strat, cfg.XOR, attackCfg, streams)
	case Collision:
		_, err = attack.Collision(sys, strat, cfg.XOR, attackCfg, streams)
	default:
		err = fmt.Errorf("%w: %v", ErrInvalidAttack, cfg.Attack)
	}
	if err != nil {
		return err
	}

	logger = slog.Logger()
	logger.Debug().Msg("flushing output")
	return flush(sys, cfg, w)
}

func buildStrategy(cfg Config) (adder.Strategy, error) {
	switch {
	case cfg.TseitinAdders:
		return adder.New(adder.Config{Kind: adder.Tseitin, UseXorClauses: cfg.XOR}, nil), nil
	case cfg.CompactAdders:
		return adder.New(adder.Config{Kind: adder.Compact}, nil), nil
	case cfg.HalfAdder:
		// Native half-adder lines are emitted verbatim; no minimizer needed.
		return adder.New(adder.Config{Kind: adder.HalfAdder, UseXorClauses: cfg.XOR, NativeHalfAdder: true}, nil), nil
	default:
		cache := minimize.NewCache(minimize.Espresso{Path: cfg.MinimizerPath})
		if err := cache.Warm(adder.Shapes(cfg.Rounds)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMinimizerFailed, err)
		}
		return adder.New(adder.Config{Kind: adder.HalfAdder, UseXorClauses: cfg.XOR}, cache), nil
	}
}

// emitPreamble writes the banner, command line, and resolved seed comments.
// The seed comment is written after the seed has already been consumed to
// build the two PRNG streams above, matching the original generator's
// behavior: a reader reproducing a run must read the comment, not assume
// the seed precedes its own use.
func emitPreamble(sys *encoder.System, cfg Config, seed uint64) {
	sys.Comment("")
	sys.Comment("Instance generated by sha1-sat")
	sys.Comment("<https://github.com/cryptosat/sha1sat>")
	sys.Comment("")
	sys.Comment(fmt.Sprintf("command line: %s", cfg.CommandLine))
	sys.Comment(fmt.Sprintf("parameter seed = %d", seed))
}

func flush(sys *encoder.System, cfg Config, w io.Writer) error {
	if cfg.CNF {
		if err := sys.WriteCNF(w); err != nil {
			return fmt.Errorf("driver: write CNF: %w", err)
		}
	}
	if cfg.OPB {
		if err := sys.WriteOPB(w); err != nil {
			return fmt.Errorf("driver: write OPB: %w", err)
		}
	}
	return nil
}
