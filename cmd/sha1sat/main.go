// Command sha1sat generates SAT (CNF) or pseudo-boolean (OPB) instances
// encoding preimage, second-preimage, or collision attacks on reduced-round
// SHA-1, for benchmarking off-the-shelf solvers.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cryptosat/sha1sat/internal/driver"
	"github.com/cryptosat/sha1sat/internal/slog"
)

func main() {
	os.Exit(run(os.Args))
}

func run(argv []string) int {
	fs := flag.NewFlagSet(argv[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		seed              = fs.Uint64("seed", 0, "PRNG seed (default: current wall-clock time)")
		attackName        = fs.String("attack", "preimage", "attack kind: preimage | second-preimage | collision")
		rounds            = fs.Int("rounds", 20, "number of SHA-1 rounds, 16..80")
		messageBits       = fs.Int("message-bits", 0, "number of pinned message bits, 0..512")
		hashBits          = fs.Int("hash-bits", 160, "number of pinned hash bits, 0..160")
		cnf               = fs.Bool("cnf", false, "emit CNF on stdout")
		opb               = fs.Bool("opb", false, "emit OPB on stdout")
		tseitinAdders     = fs.Bool("tseitin-adders", false, "use Tseitin ripple-carry adders")
		xor               = fs.Bool("xor", false, "emit native XOR clauses (CNF only)")
		halfadder         = fs.Bool("halfadder", false, "emit native half-adder lines (CNF only)")
		restrictBranching = fs.Bool("restrict-branching", false, "emit decision-variable hints (CNF only)")
		compactAdders     = fs.Bool("compact-adders", false, "use the compact pseudo-boolean adder encoding (OPB only)")
		verbose           = fs.Bool("v", false, "enable debug logging")
	)

	if err := fs.Parse(argv[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *verbose {
		slog.Set(slog.Logger().Level(zerolog.DebugLevel))
	}

	attack, err := driver.ParseAttack(*attackName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg := driver.Config{
		Seed:              *seed,
		SeedSet:           wasSet(fs, "seed"),
		Attack:            attack,
		Rounds:            *rounds,
		MessageBits:       *messageBits,
		HashBits:          *hashBits,
		CNF:               *cnf,
		OPB:               *opb,
		TseitinAdders:     *tseitinAdders,
		XOR:               *xor,
		HalfAdder:         *halfadder,
		RestrictBranching: *restrictBranching,
		CompactAdders:     *compactAdders,
		CommandLine:       strings.Join(argv, " "),
	}

	if err := driver.Run(cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func wasSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
