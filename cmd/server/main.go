package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tmalloy/chatrelay/internal/api"
	"github.com/tmalloy/chatrelay/internal/auth"
	"github.com/tmalloy/chatrelay/internal/chat"
	"github.com/tmalloy/chatrelay/internal/config"
	"github.com/tmalloy/chatrelay/internal/server"
	"github.com/tmalloy/chatrelay/internal/stats"
	"github.com/tmalloy/chatrelay/internal/store"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	mongoURI       string
	signingSecret  string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "", "server address")
	flag.StringVar(&mongoURI, "mongo-uri", "", "mongodb connection URI")
	flag.StringVar(&signingSecret, "signing-secret", "", "base64 encoded token signing secret")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[chatrelay] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config:", err)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if mongoURI != "" {
		cfg.MongoURI = mongoURI
	}
	if signingSecret != "" {
		cfg.SigningSecret = signingSecret
	}
	if len(allowedOrigins) > 0 {
		cfg.AllowedOrigins = allowedOrigins
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config:", err)
	}

	st, err := store.NewMongoStore(context.Background(), cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		logger.Fatal("store:", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Println("store close:", err)
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	chatService := chat.NewService(logger, st)
	hub := server.NewHub(logger, statsUpdater, chatService, cfg.DedupTTL, cfg.DedupSweepInterval)

	authn := auth.NewTokenAuthenticator(cfg.SigningKey)
	srv := api.NewServer(mux, logger, hub, authn, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go hub.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down hub...")
	if err := hub.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("hub shutdown:", err)
	}

	logger.Println("shutdown complete")
}
