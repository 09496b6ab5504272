package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	auth "github.com/NesmitC/project-webmath/internal/auth/middleware"
)

const emptyQuestion = "Пустой вопрос"

type askReq struct {
	Question string `json:"question"`
}

func AskHandler(a Asker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askReq
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		q := strings.TrimSpace(req.Question)
		if q == "" {
			writeError(w, http.StatusBadRequest, emptyQuestion)
			return
		}
		writeJSON(w, http.StatusOK, a.Ask(r.Context(), auth.SubjectFromContext(r.Context()), q))
	}
}

// originChecker admits websocket upgrades from the configured CORS origins
// and from the serving host itself. A request without an Origin header is not
// from a browser page and passes.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, o := range allowed {
			if o != "*" && strings.EqualFold(strings.TrimRight(o, "/"), origin) {
				return true
			}
		}
		return false
	}
}

type wsMessage struct {
	Type       string `json:"type"` // "answer" or "error"
	Answer     string `json:"answer,omitempty"`
	Source     string `json:"source,omitempty"`
	AnswerHTML string `json:"answer_html,omitempty"`
	Error      string `json:"error,omitempty"`
}

// AskWSHandler serves the assistant over a websocket. Each text frame is a
// {"question"} object and gets one reply frame.
// Only origins in allowedOrigins (or the serving host) may connect, since the
// session cookie authenticates the socket.
func AskWSHandler(a Asker, allowedOrigins []string, log *zap.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade", zap.Error(err))
			return
		}
		defer conn.Close()
		conn.SetReadLimit(maxBodyBytes)
		userID := auth.SubjectFromContext(r.Context())

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn("websocket read", zap.Error(err))
				}
				return
			}

			var req askReq
			var out wsMessage
			switch {
			case json.Unmarshal(msg, &req) != nil:
				out = wsMessage{Type: "error", Error: "bad json"}
			case strings.TrimSpace(req.Question) == "":
				out = wsMessage{Type: "error", Error: emptyQuestion}
			default:
				ans := a.Ask(r.Context(), userID, req.Question)
				out = wsMessage{Type: "answer", Answer: ans.Text, Source: ans.Source, AnswerHTML: ans.HTML}
			}
			if err := conn.WriteJSON(out); err != nil {
				log.Warn("websocket write", zap.Error(err))
				return
			}
		}
	}
}
