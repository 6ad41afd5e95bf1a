// internal/game/engine.go
//
// Core hangman environment.
// Responsibilities:
//   - Pick a target word uniformly at random from the configured pool on Reset.
//   - Validate and apply single-letter guesses on Step.
//   - Track lives, revealed board and guessed letters; decide win/loss.
//   - Report (observation, reward, done, info) after every transition.
//
// Notes:
//   - Randomness is injected (Rand) so episodes are reproducible with a seeded source.
//   - Progress output goes through an Observer; the engine itself does no I/O.
//   - An Engine is not safe for concurrent use.
package game

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rand is the slice of *math/rand.Rand the engine needs.
type Rand interface {
	Intn(n int) int
}

// Engine runs one episode at a time over a fixed Config.
type Engine struct {
	cfg Config
	rng Rand
	obs Observer

	started bool
	target  []rune
	board   []rune
	lives   int
	correct int
	guessed map[rune]struct{}
	done    bool
}

// New validates cfg and returns an engine that has not started an episode yet.
// A nil obs discards all events.
func New(cfg Config, rng Rand, obs Observer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is nil", ErrConfig)
	}
	if obs == nil {
		obs = NopObserver{}
	}
	words := make([]string, len(cfg.Words))
	for i, w := range cfg.Words {
		words[i] = strings.ToLower(strings.TrimSpace(w))
	}
	cfg.Words = words
	return &Engine{cfg: cfg, rng: rng, obs: obs}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Reset discards the current episode, draws a new target and returns the blank board.
func (e *Engine) Reset() string {
	word := e.cfg.Words[e.rng.Intn(len(e.cfg.Words))]
	e.start(word)
	return e.render()
}

// ResetTo starts an episode with a fixed target word.
// The word is lowercased and must consist of letters only.
func (e *Engine) ResetTo(word string) (string, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" || !isLetters(word) {
		return "", fmt.Errorf("%w: target %q must be letters only", ErrConfig, word)
	}
	e.start(word)
	return e.render(), nil
}

func (e *Engine) start(word string) {
	e.started = true
	e.target = []rune(word)
	e.board = make([]rune, len(e.target))
	for i := range e.board {
		e.board[i] = Placeholder
	}
	e.lives = e.cfg.MaxLives
	e.correct = 0
	e.guessed = make(map[rune]struct{})
	e.done = false

	e.obs.Observe(Event{Kind: EventStart, Board: e.render(), Lives: e.lives})
}

// Step applies one guess.
//
// Evaluation order:
//  1. input must be exactly one letter (ErrInvalidInput otherwise, nothing changes);
//  2. a letter already guessed returns the repeated penalty and changes nothing,
//     even when the episode is over;
//  3. a new letter on a finished episode is rejected with ErrEpisodeOver;
//  4. hit: reveal every occurrence, win when the board is complete;
//  5. miss: lose a life, loss when none are left.
func (e *Engine) Step(letter string) (StepResult, error) {
	r, err := parseLetter(letter)
	if err != nil {
		return StepResult{}, err
	}
	if !e.started {
		return StepResult{}, ErrNotStarted
	}

	if _, seen := e.guessed[r]; seen {
		board := e.render()
		e.obs.Observe(Event{Kind: EventRepeat, Letter: r, Board: board, Lives: e.lives})
		return StepResult{Observation: board, Reward: e.cfg.Rewards.Repeated, Done: e.done, Info: Info{}}, nil
	}
	if e.done {
		return StepResult{}, ErrEpisodeOver
	}
	e.guessed[r] = struct{}{}

	hit := false
	for i, c := range e.target {
		if c == r {
			e.board[i] = r
			e.correct++
			hit = true
		}
	}

	if hit {
		if e.correct == len(e.target) {
			e.done = true
			word := string(e.target)
			e.obs.Observe(Event{Kind: EventWin, Letter: r, Board: word, Lives: e.lives, Answer: word})
			return StepResult{Observation: word, Reward: e.cfg.Rewards.Win, Done: true, Info: Info{InfoAnswer: word}}, nil
		}
		board := e.render()
		e.obs.Observe(Event{Kind: EventHit, Letter: r, Board: board, Lives: e.lives})
		return StepResult{Observation: board, Reward: e.cfg.Rewards.Correct, Info: Info{}}, nil
	}

	e.lives--
	board := e.render()
	if e.lives == 0 {
		e.done = true
		word := string(e.target)
		e.obs.Observe(Event{Kind: EventLoss, Letter: r, Board: board, Lives: 0, Answer: word})
		return StepResult{Observation: board, Reward: e.cfg.Rewards.Lose, Done: true, Info: Info{InfoAnswer: word}}, nil
	}
	e.obs.Observe(Event{Kind: EventMiss, Letter: r, Board: board, Lives: e.lives})
	return StepResult{Observation: board, Reward: e.cfg.Rewards.Incorrect, Info: Info{}}, nil
}

// Snapshot returns a copy of the current episode state.
func (e *Engine) Snapshot() State {
	guessed := make([]string, 0, len(e.guessed))
	for r := range e.guessed {
		guessed = append(guessed, string(r))
	}
	sort.Strings(guessed)
	return State{
		Target:   string(e.target),
		Board:    e.render(),
		Lives:    e.lives,
		MaxLives: e.cfg.MaxLives,
		Correct:  e.correct,
		Guessed:  guessed,
		Done:     e.done,
		Won:      e.started && e.done && e.correct == len(e.target),
	}
}

func (e *Engine) render() string { return string(e.board) }

// parseLetter lowercases a single-letter guess.
func parseLetter(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, ErrInvalidInput
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return 0, ErrInvalidInput
	}
	return unicode.ToLower(r), nil
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
