// internal/cli/cli.go
//
// Interactive console driver for the hangman environment.
//
// Flags (single or double dash):
//   --wordsrc, -w   word source: text file, .db/.sqlite file, or "" for the built-in list [words.txt]
//   --lives, -l     maximum number of wrong guesses [6]
//   --seed          random seed for word selection (0 = time based) [0]
//
// Rewards and the log level come from the environment (see internal/config).
// Exit codes: 0 episode finished, 1 input ended early, 2 usage or configuration error.

package cli

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/DylanRuth/ml-hangman/internal/config"
	"github.com/DylanRuth/ml-hangman/internal/game"
	"github.com/DylanRuth/ml-hangman/internal/words"
)

const defaultWordSource = "words.txt"

// Options holds the parsed command line.
type Options struct {
	WordSource string
	Lives      int
	Seed       int64
}

// NewFlagSet registers the CLI flags on a fresh FlagSet, using s for defaults.
func NewFlagSet(s config.Settings, o *Options) *flag.FlagSet {
	fs := flag.NewFlagSet("hangman", flag.ContinueOnError)
	src := s.WordSource
	if src == "" {
		src = defaultWordSource
	}
	fs.StringVar(&o.WordSource, "wordsrc", src, "text file that contains the words the game is based on")
	fs.StringVar(&o.WordSource, "w", src, "alias of --wordsrc")
	fs.IntVar(&o.Lives, "lives", s.MaxLives, "maximum number of false attempts")
	fs.IntVar(&o.Lives, "l", s.MaxLives, "alias of --lives")
	fs.Int64Var(&o.Seed, "seed", 0, "random seed for word selection (0 = time based)")
	return fs
}

// Run plays one interactive episode and returns the process exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	settings, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("load settings")
		return 2
	}
	if lvl, err := zerolog.ParseLevel(settings.LogLevel); err == nil {
		logger = logger.Level(lvl)
	}

	var opts Options
	fs := NewFlagSet(settings, &opts)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	env, err := build(settings, opts, game.Observers{
		game.NewConsoleObserver(stdout),
		game.NewLogObserver(logger),
	})
	if err != nil {
		logger.Error().Err(err).Str("wordsrc", opts.WordSource).Msg("cannot start game")
		return 2
	}

	total, err := play(env, stdin, stdout)
	if err != nil {
		logger.Error().Err(err).Msg("game aborted")
		return 1
	}
	fmt.Fprintln(stdout, "Total reward :", total)
	return 0
}

// build loads the word source and constructs the engine.
func build(s config.Settings, o Options, obs game.Observer) (*game.Engine, error) {
	list, err := words.Load(o.WordSource)
	if err != nil {
		return nil, err
	}
	s.MaxLives = o.Lives
	cfg, err := s.Engine(list)
	if err != nil {
		return nil, err
	}
	seed := o.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return game.New(cfg, rand.New(rand.NewSource(seed)), obs)
}

// errInputClosed is returned when stdin ends before the episode does.
var errInputClosed = errors.New("input closed before the game ended")

// play resets env and feeds it one letter per input line until the episode ends.
// Lines that are not a single character are re-prompted without reaching the engine.
func play(env *game.Engine, in io.Reader, out io.Writer) (float64, error) {
	env.Reset()
	sc := bufio.NewScanner(in)
	var total float64
	for {
		fmt.Fprint(out, "Guessing letter : ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			if err := sc.Err(); err != nil {
				return total, err
			}
			return total, errInputClosed
		}
		ans := strings.TrimSpace(sc.Text())
		if utf8.RuneCountInString(ans) != 1 {
			continue
		}
		res, err := env.Step(ans)
		if errors.Is(err, game.ErrInvalidInput) {
			fmt.Fprintln(out, "Can only accept alphabet")
			continue
		}
		if err != nil {
			return total, err
		}
		total += res.Reward
		if res.Done {
			return total, nil
		}
	}
}
