// internal/game/types.go
//
// Core type definitions for the hangman environment.
// Defines:
//   - Rewards: the payout schedule for every kind of transition.
//   - Config:  immutable engine configuration (word pool, lives, rewards).
//   - StepResult / Info: what a single Step reports back to the driver.
//   - State: read-only snapshot of the live episode.
//   - Errors returned by the engine.

package game

import (
	"errors"
	"fmt"
	"strings"
)

// Placeholder marks a position of the target word that has not been revealed yet.
const Placeholder = '-'

// InfoAnswer is the Info key carrying the target word once an episode ends.
const InfoAnswer = "ans"

const (
	defaultMaxLives = 6

	defaultRewardWin       = 30
	defaultRewardCorrect   = 1
	defaultRewardLose      = 0
	defaultRewardIncorrect = 0
	defaultRewardRepeated  = -100
)

var (
	// ErrInvalidInput is returned by Step for anything other than a single letter.
	ErrInvalidInput = errors.New("can only accept a single alphabetic letter")

	// ErrConfig wraps every configuration problem found at construction time.
	ErrConfig = errors.New("invalid configuration")

	// ErrEpisodeOver is returned when a new letter is guessed after the episode ended.
	ErrEpisodeOver = errors.New("episode is over, call Reset")

	// ErrNotStarted is returned by Step before the first Reset.
	ErrNotStarted = errors.New("episode not started, call Reset")
)

// Rewards is the payout schedule.
type Rewards struct {
	Win       float64 // target fully revealed
	Correct   float64 // letter present, episode continues
	Lose      float64 // last life lost
	Incorrect float64 // letter absent, lives remain
	Repeated  float64 // letter already guessed this episode
}

// DefaultRewards returns the stock payout schedule.
func DefaultRewards() Rewards {
	return Rewards{
		Win:       defaultRewardWin,
		Correct:   defaultRewardCorrect,
		Lose:      defaultRewardLose,
		Incorrect: defaultRewardIncorrect,
		Repeated:  defaultRewardRepeated,
	}
}

// Config is fixed for the lifetime of an Engine.
type Config struct {
	Words    []string // candidate targets, non-empty
	MaxLives int      // positive
	Rewards  Rewards
}

// DefaultConfig returns a Config over words with stock lives and rewards.
func DefaultConfig(words []string) Config {
	return Config{
		Words:    words,
		MaxLives: defaultMaxLives,
		Rewards:  DefaultRewards(),
	}
}

// Validate reports the first configuration problem, wrapped in ErrConfig.
func (c Config) Validate() error {
	if len(c.Words) == 0 {
		return fmt.Errorf("%w: word pool is empty", ErrConfig)
	}
	for i, w := range c.Words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			return fmt.Errorf("%w: word %d is empty", ErrConfig, i)
		}
		if !isLetters(w) {
			return fmt.Errorf("%w: word %d %q must be letters only", ErrConfig, i, w)
		}
	}
	if c.MaxLives <= 0 {
		return fmt.Errorf("%w: max lives must be positive, got %d", ErrConfig, c.MaxLives)
	}
	return nil
}

// Info is the auxiliary payload of a step. It is empty except on win or loss.
type Info map[string]string

// StepResult is the (observation, reward, done, info) tuple of a single step.
type StepResult struct {
	Observation string  `json:"observation"`
	Reward      float64 `json:"reward"`
	Done        bool    `json:"done"`
	Info        Info    `json:"info"`
}

// State is a read-only snapshot of the current episode.
type State struct {
	Target   string   `json:"-"`
	Board    string   `json:"board"`
	Lives    int      `json:"lives"`
	MaxLives int      `json:"maxLives"`
	Correct  int      `json:"correct"`
	Guessed  []string `json:"guessed"` // sorted
	Done     bool     `json:"done"`
	Won      bool     `json:"won"`
}
