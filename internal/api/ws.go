package api

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/tmalloy/chatrelay/internal/server"
)

// bearerToken extracts the credential from the handshake: an explicit
// token query parameter, or an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	header := r.Header.Get("Authorization")
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		return rest
	}
	return ""
}

// serveWs authenticates the handshake and upgrades the connection. A
// bad or missing credential rejects the request before any session is
// created; the response carries no hint about which part failed.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	identity, err := s.authn.Verify(token)
	if err != nil {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client, err := server.NewClient(identity, conn, s.hub, s.log)
	if err != nil {
		s.log.Println("error creating client:", err)
		conn.Close()
		return
	}

	s.hub.Register(r.Context(), client)

	go client.Write()
	go client.Read()
}
