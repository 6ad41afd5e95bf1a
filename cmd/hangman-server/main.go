// cmd/hangman-server/main.go
//
// Remote hangman environment over HTTP + websocket.
//
//   hangman-server                 serve on $PORT
//   hangman-server -hash-key KEY   print the bcrypt hash for HANGMAN_API_KEY_HASH and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/DylanRuth/ml-hangman/internal/auth"
	"github.com/DylanRuth/ml-hangman/internal/config"
	"github.com/DylanRuth/ml-hangman/internal/httpserver"
	"github.com/DylanRuth/ml-hangman/internal/store"
	"github.com/DylanRuth/ml-hangman/internal/words"
)

func main() {
	hashKey := flag.String("hash-key", "", "print the bcrypt hash of this API key and exit")
	flag.Parse()

	if *hashKey != "" {
		h, err := auth.HashKey(*hashKey)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(h)
		return
	}

	settings, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load settings")
	}
	settings.ApplyLogLevel()

	list, err := words.Load(settings.WordSource)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}
	gameCfg, err := settings.Engine(list)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid game configuration")
	}

	issuer := auth.NewIssuer(settings.JWTSecret, time.Duration(settings.JWTExpiresHour)*time.Hour, settings.APIKeyHash)
	if !issuer.Enabled() {
		log.Warn().Msg("HANGMAN_API_KEY_HASH not set, environment API is unauthenticated")
	}

	srv := httpserver.New(store.NewMemoryStore(), httpserver.Options{
		Game:         gameCfg,
		Issuer:       issuer,
		DailySalt:    settings.DailySalt,
		ClientOrigin: settings.ClientOrigin,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go srv.SweepEvery(ctx, time.Minute, settings.SessionTTL)

	hs := &http.Server{Addr: ":" + settings.Port, Handler: srv.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	log.Info().Str("port", settings.Port).Int("words", len(list)).Int("lives", gameCfg.MaxLives).Msg("starting hangman-server")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}
