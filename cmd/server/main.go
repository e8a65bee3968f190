package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	httpapi "tabletop/internal/api/http"
	"tabletop/internal/api/ws"
	"tabletop/internal/config"
	"tabletop/internal/game"
	"tabletop/internal/logging"
	"tabletop/internal/room"
	"tabletop/internal/routing"
	"tabletop/internal/shared"
	"tabletop/internal/store"
)

const shutdownTimeout = 10 * time.Second

// storage is what the server needs from a backing store.
type storage interface {
	room.Store
	game.CredentialStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	st, closeStore, err := openStorage(cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeStore()

	authCfg := game.AuthConfig{
		FallbackPassword:    cfg.FallbackRoomPassword,
		InitialRoomPassword: cfg.RoomPassword,
		InitialDMPassword:   cfg.DMPassword,
	}
	auth := game.NewAuthService(st, authCfg)
	if err := auth.Load(ctx, authCfg); err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	services := game.NewServices(game.Options{
		MaxDiceHistory: cfg.MaxDiceHistory,
		DiceSeed:       time.Now().UnixNano(),
	}, auth)

	rm, err := room.NewManager(shared.NewRoomState(), st, log, room.Options{})
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	defer func() {
		if err := rm.Close(); err != nil {
			log.Error().Err(err).Msg("flush room state")
		}
	}()
	if err := rm.Restore(ctx); err != nil {
		return fmt.Errorf("restore room: %w", err)
	}

	router := routing.New(routing.Config{
		Services: services,
		State:    rm,
		Broadcast: func(reason string, delta *shared.Delta) error {
			return rm.BroadcastAll(room.BroadcastOptions{Reason: reason, Delta: delta})
		},
		Save:   rm.SaveState,
		Logger: log,
	})
	hub := ws.NewHub(router, rm, log, ws.Options{
		SendBuffer:      cfg.SendBuffer,
		MaxMessageBytes: cfg.MaxMessageBytes,
		PingInterval:    cfg.PingInterval,
		PongWait:        cfg.PongWait,
		WriteWait:       cfg.WriteWait,
	})
	rm.SetClients(hub)
	router.SetPeers(hub)

	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(hubCtx)
	}()

	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.SetupRouter(rm, hub, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stopHub()
			<-hubDone
			return fmt.Errorf("serve http: %w", err)
		}
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown http server")
	}
	stopHub()
	<-hubDone
	rm.Apply(func() {
		if err := rm.SaveState(); err != nil {
			log.Error().Err(err).Msg("save room state")
		}
	})
	return nil
}

func openStorage(path string) (storage, func(), error) {
	if strings.TrimSpace(path) == "" {
		return store.NewMemoryStore(), func() {}, nil
	}
	st, err := store.OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	return st, func() { _ = st.Close() }, nil
}
