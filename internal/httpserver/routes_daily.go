// internal/httpserver/routes_daily.go
//
// "Word of the day" sessions.
//   - POST /daily/new → create a session whose episodes all target today's word.
//
// The word is picked by daily.Word(now, salt, pool): every client gets the same
// target for a given UTC date. Reset on a daily session draws from the pool as usual.

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/DylanRuth/ml-hangman/internal/daily"
	"github.com/DylanRuth/ml-hangman/internal/game"
)

// mountDaily registers the daily routes on r.
func (s *Server) mountDaily(r chi.Router) {
	r.Post("/daily/new", s.handleDailyNew)
}

// handleDailyNew creates a session and starts it on the word of the day.
func (s *Server) handleDailyNew(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	sess, err := s.newSession(r.Context(), nil, daily.DateKey(now))
	if err != nil {
		log.Error().Err(err).Msg("create daily session")
		writeError(w, http.StatusInternalServerError, "create_failed")
		return
	}
	word := daily.Word(now, s.salt, s.game.Words)

	var res newEnvRes
	err = sess.Do(func(env *game.Engine) error {
		board, err := env.ResetTo(word)
		if err != nil {
			return err
		}
		res = newEnvRes{EnvID: sess.ID, Observation: board, Lives: env.Snapshot().Lives, Daily: sess.Daily}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("envId", sess.ID).Msg("start daily episode")
		_ = s.store.Delete(r.Context(), sess.ID)
		writeError(w, http.StatusInternalServerError, "create_failed")
		return
	}
	log.Info().Str("envId", sess.ID).Str("date", sess.Daily).Msg("daily environment created")
	writeJSON(w, http.StatusCreated, res)
}
