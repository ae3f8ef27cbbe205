package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/dolevoper/envolve/config"
	"github.com/dolevoper/envolve/domain"
	"github.com/dolevoper/envolve/hub"
	"github.com/dolevoper/envolve/lifecycle"
	"github.com/dolevoper/envolve/metrics"
	"github.com/dolevoper/envolve/ratelimit"
	"github.com/dolevoper/envolve/registry"
	"github.com/dolevoper/envolve/relay"
	ws "github.com/dolevoper/envolve/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()
	setupLogger(cfg.LogLevel)

	rooms := registry.New(cfg.RoomIDLength)
	roster := hub.New()
	router := relay.NewRouter(rooms, roster)
	ctrl := lifecycle.NewController(rooms, roster, cfg.CreateUnknownRooms)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler(ctrl, router))
	mux.HandleFunc("GET /api/rooms/{id}", roomHandler(rooms))
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/stats", statsHandler(roster))
	mux.Handle("/metrics", metrics.Handler())

	corsWrap := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllow,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	limiter := ratelimit.New(cfg.RateLimitPerMin, time.Minute)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           corsWrap.Handler(limiter.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogger(lvl string) {
	level := slog.LevelInfo
	switch lvl {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func wsHandler(ctrl *lifecycle.Controller, router *relay.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userName := r.URL.Query().Get("userName")
		roomID := r.URL.Query().Get("roomId")
		connID := uuid.New().String()

		// Resolve the room before upgrading so a rejected join is a plain
		// HTTP error, not a short-lived socket.
		placement, err := ctrl.Assign(connID, roomID)
		if err != nil {
			if errors.Is(err, domain.ErrRoomNotFound) {
				http.Error(w, "room not found", http.StatusNotFound)
				return
			}
			slog.Error("room assignment failed", "error", err)
			http.Error(w, "room assignment failed", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("upgrade error", "error", err)
			ctrl.Abort(placement)
			return
		}

		var sess *ws.Conn
		sess = ws.NewConn(connID, userName, placement.RoomID, placement.Admin, conn, router, func() {
			ctrl.Leave(sess)
		})

		if err := ctrl.Join(sess); err != nil {
			msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "room not found")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			conn.Close()
			return
		}

		sess.Start()
	}
}

func roomHandler(rooms *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		if !rooms.Exists(id) {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func statsHandler(roster *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, clients := roster.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"rooms": rooms, "clients": clients})
	}
}
