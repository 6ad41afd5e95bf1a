// internal/httpserver/ws.go
//
// Websocket step stream: GET /env/{id}/ws
//
// Each client text frame is one command:
//   {"letter":"a"}   → step reply  {"op":"step","observation","reward","done","info"}
//   {"op":"reset"}   → reset reply {"op":"reset","observation","lives"}
//   {"op":"state"}   → state reply {"op":"state","observation","lives","done"}
// Failures reply {"op":...,"error":"invalid_input"|"episode_over"|"bad_command"}
// and keep the connection open. Any read error ends the stream.

package httpserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/DylanRuth/ml-hangman/internal/game"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Training clients are not browsers; origin is checked by CORS for HTTP only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsCommand struct {
	Op     string `json:"op"` // "step" (default), "reset", "state"
	Letter string `json:"letter"`
}

type wsReply struct {
	Op          string    `json:"op"`
	Observation string    `json:"observation,omitempty"`
	Reward      float64   `json:"reward"`
	Done        bool      `json:"done"`
	Info        game.Info `json:"info,omitempty"`
	Lives       int       `json:"lives,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// handleWS upgrades the connection and serves commands until the client leaves.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("envId", sess.ID).Msg("websocket upgrade")
		return
	}
	defer conn.Close()
	log.Debug().Str("envId", sess.ID).Msg("websocket connected")

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("envId", sess.ID).Msg("websocket read")
			}
			return
		}
		var reply wsReply
		_ = sess.Do(func(env *game.Engine) error {
			reply = apply(env, cmd)
			return nil
		})
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn().Err(err).Str("envId", sess.ID).Msg("websocket write")
			return
		}
	}
}

// apply runs one command against env.
func apply(env *game.Engine, cmd wsCommand) wsReply {
	switch cmd.Op {
	case "", "step":
		res, err := env.Step(cmd.Letter)
		if err != nil {
			_, code := stepError(err)
			return wsReply{Op: "step", Error: code}
		}
		return wsReply{Op: "step", Observation: res.Observation, Reward: res.Reward, Done: res.Done, Info: res.Info}
	case "reset":
		board := env.Reset()
		return wsReply{Op: "reset", Observation: board, Lives: env.Snapshot().Lives}
	case "state":
		st := env.Snapshot()
		return wsReply{Op: "state", Observation: st.Board, Lives: st.Lives, Done: st.Done}
	default:
		return wsReply{Op: cmd.Op, Error: "bad_command"}
	}
}
