// Package api exposes the HTTP surface of the fan-out server: the
// websocket handshake and a health endpoint. REST CRUD for accounts
// and rooms lives in a separate service; this process only owns live
// connections.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/tmalloy/chatrelay/internal/auth"
	"github.com/tmalloy/chatrelay/internal/config"
	"github.com/tmalloy/chatrelay/internal/server"
)

type Server struct {
	log            *log.Logger
	hub            *server.Hub
	authn          *auth.TokenAuthenticator
	srv            *http.Server
	allowedOrigins []string
}

func NewServer(mux *http.ServeMux, logger *log.Logger, hub *server.Hub, authn *auth.TokenAuthenticator, cfg *config.Config) *Server {
	s := &Server{
		log:            logger,
		hub:            hub,
		authn:          authn,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /ws", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	s.srv = &http.Server{
		Addr:    cfg.Addr,
		Handler: h,
	}

	return s
}

func (s *Server) Start() error {
	s.log.Printf("starting server on %s", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJson(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Println("write json:", err)
	}
}
