// internal/config/config.go
//
// Environment-driven settings shared by the CLI and the environment server.
//
// Load order:
//   1. .env in the working directory (optional, via godotenv; real env wins).
//   2. Process environment parsed into Settings (caarlos0/env).
//
// Flags parsed by the binaries override the values returned here.

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/DylanRuth/ml-hangman/internal/game"
)

// Settings is the full environment surface.
type Settings struct {
	// Game
	WordSource      string  `env:"HANGMAN_WORDS"`
	MaxLives        int     `env:"HANGMAN_LIVES" envDefault:"6"`
	RewardWin       float64 `env:"HANGMAN_REWARD_WIN" envDefault:"30"`
	RewardCorrect   float64 `env:"HANGMAN_REWARD_CORRECT" envDefault:"1"`
	RewardLose      float64 `env:"HANGMAN_REWARD_LOSE" envDefault:"0"`
	RewardIncorrect float64 `env:"HANGMAN_REWARD_INCORRECT" envDefault:"0"`
	RewardRepeated  float64 `env:"HANGMAN_REWARD_REPEATED" envDefault:"-100"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Server
	Port         string        `env:"PORT" envDefault:"5175"`
	ClientOrigin string        `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	DailySalt    string        `env:"DAILY_SALT" envDefault:"hangman"`

	// Auth; empty APIKeyHash disables it.
	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresHour int    `env:"JWT_EXPIRES_HOURS" envDefault:"24"`
	APIKeyHash     string `env:"HANGMAN_API_KEY_HASH"`
}

// Load reads .env (if present) and parses the environment.
func Load() (Settings, error) {
	_ = godotenv.Load()
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}

// Rewards returns the configured payout schedule.
func (s Settings) Rewards() game.Rewards {
	return game.Rewards{
		Win:       s.RewardWin,
		Correct:   s.RewardCorrect,
		Lose:      s.RewardLose,
		Incorrect: s.RewardIncorrect,
		Repeated:  s.RewardRepeated,
	}
}

// Engine builds a validated engine configuration over words.
func (s Settings) Engine(words []string) (game.Config, error) {
	cfg := game.Config{Words: words, MaxLives: s.MaxLives, Rewards: s.Rewards()}
	if err := cfg.Validate(); err != nil {
		return game.Config{}, err
	}
	return cfg, nil
}

// ApplyLogLevel sets the global zerolog level; unknown levels are ignored.
func (s Settings) ApplyLogLevel() {
	if lvl, err := zerolog.ParseLevel(s.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
}
