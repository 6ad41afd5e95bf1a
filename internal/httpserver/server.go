// internal/httpserver/server.go
//
// HTTP wiring for the remote hangman environment.
// Responsibilities:
//   - Router + middleware (request IDs, panic recovery, timeouts, CORS, request logging).
//   - Public endpoints: "/", "/health", "/debug/words", POST /auth/token.
//   - Environment endpoints (bearer auth when enabled):
//       POST   /env/new         create a session and start an episode
//       POST   /env/{id}/reset  start a new episode
//       POST   /env/{id}/step   apply one letter
//       GET    /env/{id}        episode snapshot
//       DELETE /env/{id}        drop the session
//       GET    /env/{id}/ws     websocket step stream (ws.go)
//       POST   /daily/new       session playing the word of the day (routes_daily.go)
//
// Notes:
//   - Each session owns its own seeded *rand.Rand, so a client-supplied seed
//     reproduces the same sequence of targets.
//   - Engine errors map to JSON errors: invalid_input (400), episode_over (409).

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/DylanRuth/ml-hangman/internal/auth"
	"github.com/DylanRuth/ml-hangman/internal/game"
	"github.com/DylanRuth/ml-hangman/internal/store"
)

// Options configures a Server.
type Options struct {
	Game         game.Config  // word pool, lives and rewards for every session
	Issuer       *auth.Issuer // nil disables auth
	DailySalt    string
	ClientOrigin string
	Now          func() time.Time // defaults to time.Now
}

// Server bundles router, session store and engine configuration.
type Server struct {
	r      *chi.Mux
	store  store.Store
	game   game.Config
	issuer *auth.Issuer
	salt   string
	now    func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, opts Options) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		store:  st,
		game:   opts.Game,
		issuer: opts.Issuer,
		salt:   opts.DailySalt,
		now:    opts.Now,
	}
	if s.issuer == nil {
		s.issuer = auth.NewIssuer("", 0, "")
	}
	if s.now == nil {
		s.now = time.Now
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(requestLogger)
	s.r.Use(cors(opts.ClientOrigin))

	// websocket stays outside the timeout group; it outlives a single request
	s.r.With(s.requireAuth).Get("/env/{id}/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"hangman-env","endpoints":["/health","POST /env/new","POST /env/{id}/step","POST /env/{id}/reset","GET /env/{id}","GET /env/{id}/ws","POST /daily/new"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]int{"words": len(s.game.Words), "sessions": s.store.Len()})
		})
		r.Post("/auth/token", s.handleToken)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/env/new", s.handleNew)
			r.Post("/env/{id}/reset", s.handleReset)
			r.Post("/env/{id}/step", s.handleStep)
			r.Get("/env/{id}", s.handleState)
			r.Delete("/env/{id}", s.handleDelete)
			s.mountDaily(r)
		})
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.r }

// SweepEvery drops sessions idle longer than ttl, checking every interval until ctx ends.
func (s *Server) SweepEvery(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweepIdle(ctx, ttl)
		}
	}
}

// sweepIdle drops sessions whose last use is more than ttl before s.now().
func (s *Server) sweepIdle(ctx context.Context, ttl time.Duration) int {
	n := s.store.Sweep(ctx, s.now().Add(-ttl))
	if n > 0 {
		log.Info().Int("removed", n).Int("live", s.store.Len()).Msg("swept idle sessions")
	}
	return n
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger writes one zerolog line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("reqId", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// requireAuth enforces a valid bearer token when the issuer is enabled.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.issuer.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		tok := auth.BearerToken(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, err := s.issuer.Verify(tok); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- AUTH --------------------------------------

type tokenReq struct {
	APIKey string `json:"apiKey"`
}
type tokenRes struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// handleToken exchanges an API key for a bearer token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	tok, exp, err := s.issuer.Exchange(req.APIKey)
	switch {
	case errors.Is(err, auth.ErrDisabled):
		writeError(w, http.StatusNotFound, "auth_disabled")
		return
	case errors.Is(err, auth.ErrInvalidKey):
		writeError(w, http.StatusUnauthorized, "invalid_api_key")
		return
	case err != nil:
		log.Error().Err(err).Msg("issue token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	writeJSON(w, http.StatusOK, tokenRes{Token: tok, ExpiresAt: exp})
}

// ------------------------------ ENV ----------------------------------------

type newEnvReq struct {
	Seed *int64 `json:"seed"` // optional; random when omitted
}
type newEnvRes struct {
	EnvID       string `json:"envId"`
	Observation string `json:"observation"`
	Lives       int    `json:"lives"`
	Daily       string `json:"daily,omitempty"`
}
type resetRes struct {
	Observation string `json:"observation"`
	Lives       int    `json:"lives"`
}
type stepReq struct {
	Letter string `json:"letter"`
}
type stateRes struct {
	EnvID       string   `json:"envId"`
	Observation string   `json:"observation"`
	Lives       int      `json:"lives"`
	MaxLives    int      `json:"maxLives"`
	Guessed     []string `json:"guessed"`
	Done        bool     `json:"done"`
	Won         bool     `json:"won"`
	Answer      string   `json:"answer,omitempty"` // only once done
	Daily       string   `json:"daily,omitempty"`
}

// newSession builds an engine with its own random source and registers it.
// dailyKey is the date key for word-of-the-day sessions, "" otherwise.
func (s *Server) newSession(ctx context.Context, seed *int64, dailyKey string) (*store.Session, error) {
	sd := time.Now().UnixNano()
	if seed != nil {
		sd = *seed
	}
	id := store.NewID()
	obs := game.NewLogObserver(log.With().Str("envId", id).Logger())
	env, err := game.New(s.game, rand.New(rand.NewSource(sd)), obs)
	if err != nil {
		return nil, err
	}
	sess := store.NewSession(id, env, s.now)
	sess.Daily = dailyKey
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// handleNew creates a session and resets it.
func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	var req newEnvReq
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, err := s.newSession(r.Context(), req.Seed, "")
	if err != nil {
		log.Error().Err(err).Msg("create session")
		writeError(w, http.StatusInternalServerError, "create_failed")
		return
	}
	var res newEnvRes
	_ = sess.Do(func(env *game.Engine) error {
		res = newEnvRes{EnvID: sess.ID, Observation: env.Reset(), Lives: env.Snapshot().Lives}
		return nil
	})
	log.Info().Str("envId", sess.ID).Msg("environment created")
	writeJSON(w, http.StatusCreated, res)
}

// handleReset starts a new episode on an existing session.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var res resetRes
	_ = sess.Do(func(env *game.Engine) error {
		res = resetRes{Observation: env.Reset(), Lives: env.Snapshot().Lives}
		return nil
	})
	writeJSON(w, http.StatusOK, res)
}

// handleStep applies one letter.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req stepReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	var res game.StepResult
	err := sess.Do(func(env *game.Engine) error {
		var err error
		res, err = env.Step(req.Letter)
		return err
	})
	if err != nil {
		status, code := stepError(err)
		writeError(w, status, code)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleState returns the episode snapshot; the answer is hidden until done.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var st game.State
	_ = sess.Do(func(env *game.Engine) error {
		st = env.Snapshot()
		return nil
	})
	res := stateRes{
		EnvID:       sess.ID,
		Observation: st.Board,
		Lives:       st.Lives,
		MaxLives:    st.MaxLives,
		Guessed:     st.Guessed,
		Done:        st.Done,
		Won:         st.Won,
		Daily:       sess.Daily,
	}
	if st.Done {
		res.Answer = st.Target
	}
	writeJSON(w, http.StatusOK, res)
}

// handleDelete drops a session.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// session loads the {id} session or writes a 404.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	return sess, true
}

// stepError maps engine errors to HTTP status and error code.
func stepError(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, game.ErrEpisodeOver):
		return http.StatusConflict, "episode_over"
	case errors.Is(err, game.ErrNotStarted):
		return http.StatusConflict, "not_started"
	default:
		log.Error().Err(err).Msg("step")
		return http.StatusInternalServerError, "step_failed"
	}
}

// ------------------------------- small util --------------------------------

// decodeOptional decodes a JSON body; an empty body leaves v untouched.
func decodeOptional(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
