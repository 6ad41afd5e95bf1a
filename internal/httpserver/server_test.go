package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/DylanRuth/ml-hangman/internal/auth"
	"github.com/DylanRuth/ml-hangman/internal/daily"
	"github.com/DylanRuth/ml-hangman/internal/game"
	"github.com/DylanRuth/ml-hangman/internal/store"
)

func newTestServer(t *testing.T, words []string, opts Options) *Server {
	t.Helper()
	cfg := game.DefaultConfig(words)
	cfg.MaxLives = 2
	opts.Game = cfg
	return New(store.NewMemoryStore(), opts)
}

func do(t *testing.T, s *Server, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func newEnv(t *testing.T, s *Server, body string) newEnvRes {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/env/new", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("new env: status %d body %s", rec.Code, rec.Body.String())
	}
	return decode[newEnvRes](t, rec)
}

func step(t *testing.T, s *Server, id, letter string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, s, http.MethodPost, "/env/"+id+"/step", `{"letter":"`+letter+`"}`, "")
}

func TestSweepIdleFollowsInjectedClock(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newTestServer(t, []string{"cat"}, Options{Now: func() time.Time { return now }})
	idle := newEnv(t, s, "")
	busy := newEnv(t, s, "")
	ctx := context.Background()

	now = now.Add(20 * time.Minute)
	if n := s.sweepIdle(ctx, 30*time.Minute); n != 0 {
		t.Fatalf("swept %d sessions before ttl", n)
	}
	step(t, s, busy.EnvID, "c")

	now = now.Add(20 * time.Minute)
	if n := s.sweepIdle(ctx, 30*time.Minute); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if rec := do(t, s, http.MethodGet, "/env/"+idle.EnvID, "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("idle env: status %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/env/"+busy.EnvID, "", ""); rec.Code != http.StatusOK {
		t.Fatalf("busy env: status %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, []string{"cat"}, Options{})
	rec := do(t, s, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type %q", ct)
	}
}

func TestEnvLifecycle(t *testing.T) {
	s := newTestServer(t, []string{"cat"}, Options{})
	env := newEnv(t, s, "")
	if env.Observation != "---" || env.Lives != 2 || env.EnvID == "" {
		t.Fatalf("new env = %+v", env)
	}

	rec := step(t, s, env.EnvID, "C")
	res := decode[game.StepResult](t, rec)
	if rec.Code != http.StatusOK || res.Observation != "c--" || res.Reward != 1 || res.Done {
		t.Fatalf("step c: %d %+v", rec.Code, res)
	}

	rec = step(t, s, env.EnvID, "1")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "invalid_input") {
		t.Fatalf("step 1: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/env/"+env.EnvID, "", "")
	st := decode[stateRes](t, rec)
	if st.Answer != "" || st.Done || st.Observation != "c--" || len(st.Guessed) != 1 {
		t.Fatalf("state mid-episode: %+v", st)
	}

	step(t, s, env.EnvID, "a")
	rec = step(t, s, env.EnvID, "t")
	res = decode[game.StepResult](t, rec)
	if !res.Done || res.Observation != "cat" || res.Info[game.InfoAnswer] != "cat" || res.Reward != 30 {
		t.Fatalf("winning step: %+v", res)
	}

	rec = step(t, s, env.EnvID, "z")
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "episode_over") {
		t.Fatalf("step after win: %d %s", rec.Code, rec.Body.String())
	}

	st = decode[stateRes](t, do(t, s, http.MethodGet, "/env/"+env.EnvID, "", ""))
	if !st.Done || !st.Won || st.Answer != "cat" {
		t.Fatalf("state after win: %+v", st)
	}

	rr := decode[resetRes](t, do(t, s, http.MethodPost, "/env/"+env.EnvID+"/reset", "", ""))
	if rr.Observation != "---" || rr.Lives != 2 {
		t.Fatalf("reset: %+v", rr)
	}

	if rec := do(t, s, http.MethodDelete, "/env/"+env.EnvID, "", ""); rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := step(t, s, env.EnvID, "a"); rec.Code != http.StatusNotFound {
		t.Fatalf("step on deleted env: %d", rec.Code)
	}
}

func TestStepBadJSON(t *testing.T) {
	s := newTestServer(t, []string{"cat"}, Options{})
	env := newEnv(t, s, "")
	rec := do(t, s, http.MethodPost, "/env/"+env.EnvID+"/step", "{", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, []string{"cat"}, Options{})
	rec := do(t, s, http.MethodGet, "/nope", "", "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "not_found") {
		t.Fatalf("unknown route: %d %s", rec.Code, rec.Body.String())
	}
}

// finish plays a..z until the episode ends and returns the answer.
func finish(t *testing.T, s *Server, id string) string {
	t.Helper()
	for c := 'a'; c <= 'z'; c++ {
		res := decode[game.StepResult](t, step(t, s, id, string(c)))
		if res.Done {
			return res.Info[game.InfoAnswer]
		}
	}
	t.Fatal("episode never ended")
	return ""
}

func TestSeedReproducesTargets(t *testing.T) {
	words := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	s := newTestServer(t, words, Options{})

	play := func() []string {
		env := newEnv(t, s, `{"seed":99}`)
		var out []string
		for i := 0; i < 4; i++ {
			out = append(out, finish(t, s, env.EnvID))
			do(t, s, http.MethodPost, "/env/"+env.EnvID+"/reset", "", "")
		}
		return out
	}
	a, b := play(), play()
	if strings.Join(a, ",") != strings.Join(b, ",") {
		t.Fatalf("same seed, different targets: %v vs %v", a, b)
	}
}

func TestDailyNew(t *testing.T) {
	words := []string{"cat", "dog", "emu", "yak"}
	now := time.Date(2025, 2, 3, 12, 0, 0, 0, time.UTC)
	s := newTestServer(t, words, Options{DailySalt: "pepper", Now: func() time.Time { return now }})

	rec := do(t, s, http.MethodPost, "/daily/new", "", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("daily new: %d %s", rec.Code, rec.Body.String())
	}
	env := decode[newEnvRes](t, rec)
	if env.Daily != "2025-02-03" || env.Observation != "---" {
		t.Fatalf("daily env = %+v", env)
	}

	want := daily.Word(now, "pepper", words)
	var res game.StepResult
	for _, c := range want {
		res = decode[game.StepResult](t, step(t, s, env.EnvID, string(c)))
	}
	if !res.Done || res.Info[game.InfoAnswer] != want {
		t.Fatalf("daily target: got %+v, want answer %q", res, want)
	}

	st := decode[stateRes](t, do(t, s, http.MethodGet, "/env/"+env.EnvID, "", ""))
	if st.Daily != "2025-02-03" {
		t.Fatalf("state daily = %q", st.Daily)
	}
}

func TestAuth(t *testing.T) {
	h, err := bcrypt.GenerateFromPassword([]byte("train-key"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	s := newTestServer(t, []string{"cat"}, Options{Issuer: auth.NewIssuer("secret", time.Hour, string(h))})

	if rec := do(t, s, http.MethodPost, "/env/new", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/env/new", "", "garbage"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/auth/token", `{"apiKey":"wrong"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: %d", rec.Code)
	}

	rec := do(t, s, http.MethodPost, "/auth/token", `{"apiKey":"train-key"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("token: %d %s", rec.Code, rec.Body.String())
	}
	tok := decode[tokenRes](t, rec)

	rec = do(t, s, http.MethodPost, "/env/new", "", tok.Token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("with token: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, s, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("health should stay public: %d", rec.Code)
	}
}

func TestTokenWhenAuthDisabled(t *testing.T) {
	s := newTestServer(t, []string{"cat"}, Options{})
	rec := do(t, s, http.MethodPost, "/auth/token", `{"apiKey":"x"}`, "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "auth_disabled") {
		t.Fatalf("token with auth disabled: %d %s", rec.Code, rec.Body.String())
	}
}

func TestWebsocketSteps(t *testing.T) {
	s := newTestServer(t, []string{"cat"}, Options{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/env/new", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("new env: %v", err)
	}
	var env newEnvRes
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/env/" + env.EnvID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send := func(cmd wsCommand) wsReply {
		t.Helper()
		if err := conn.WriteJSON(cmd); err != nil {
			t.Fatalf("write: %v", err)
		}
		var r wsReply
		if err := conn.ReadJSON(&r); err != nil {
			t.Fatalf("read: %v", err)
		}
		return r
	}

	if r := send(wsCommand{Letter: "c"}); r.Observation != "c--" || r.Reward != 1 || r.Done {
		t.Fatalf("step c: %+v", r)
	}
	if r := send(wsCommand{Letter: "ab"}); r.Error != "invalid_input" {
		t.Fatalf("step ab: %+v", r)
	}
	if r := send(wsCommand{Op: "fly"}); r.Error != "bad_command" {
		t.Fatalf("bad op: %+v", r)
	}
	send(wsCommand{Letter: "a"})
	if r := send(wsCommand{Letter: "t"}); !r.Done || r.Info[game.InfoAnswer] != "cat" {
		t.Fatalf("winning step: %+v", r)
	}
	if r := send(wsCommand{Letter: "q"}); r.Error != "episode_over" {
		t.Fatalf("after win: %+v", r)
	}
	if r := send(wsCommand{Op: "reset"}); r.Observation != "---" || r.Lives != 2 {
		t.Fatalf("reset: %+v", r)
	}
	if r := send(wsCommand{Op: "state"}); r.Observation != "---" || r.Done {
		t.Fatalf("state: %+v", r)
	}
}

func TestWebsocketUnknownEnv(t *testing.T) {
	s := newTestServer(t, []string{"cat"}, Options{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/env/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial failure")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response, got %v", resp)
	}
}
