package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"

	"roomchat/internal/config"
	"roomchat/internal/database"
	"roomchat/internal/handlers"
	"roomchat/internal/rooms"
	"roomchat/internal/server"
	"roomchat/internal/services"
	"roomchat/internal/transport"
	"roomchat/pkg/logger"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	// Initialize session store
	store := openStore(cfg)

	// Initialize chat registries
	users := rooms.NewUsers()
	manager := rooms.NewManager(cfg.Chat.RoomCapacity)

	opts := transport.Options{
		MaxLineBytes: cfg.Chat.MaxLineBytes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	chatServer := server.New(users, manager, store, opts)

	ln, err := net.Listen("tcp", cfg.Server.TCPAddr)
	if err != nil {
		logger.Fatal("Failed to listen on %s: %v", cfg.Server.TCPAddr, err)
	}

	var g errgroup.Group
	g.Go(func() error {
		return chatServer.Serve(ln)
	})
	logger.Info("🚀 Chat server started on %s", ln.Addr())

	var httpServer *http.Server
	if cfg.Server.HTTPAddr != "" {
		// Initialize services and handlers
		roomService := services.NewRoomService(manager, store)
		roomHandlers := handlers.NewRoomHandlers(roomService)
		wsHandlers := handlers.NewWebSocketHandlers(chatServer, opts)

		mux := http.NewServeMux()
		setupRoutes(mux, roomHandlers, wsHandlers)

		httpServer = &http.Server{
			Addr:    cfg.Server.HTTPAddr,
			Handler: corsMiddleware(mux),
		}

		g.Go(func() error {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		logger.Info("📡 WebSocket endpoint: ws://localhost%s/ws", cfg.Server.HTTPAddr)
		printAPIEndpoints()
	}

	go func() {
		if err := g.Wait(); err != nil {
			logger.Fatal("Server error: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				if httpServer == nil {
					return nil
				}
				return httpServer.Shutdown(ctx)
			},
			"chat": func(ctx context.Context) error {
				logger.Info("Server shutting down...")
				err := chatServer.Shutdown(ctx)
				manager.Close()
				if closeErr := store.Close(); closeErr != nil {
					err = errors.Join(err, closeErr)
				}
				return err
			},
		},
	)

	exitCode := <-wait
	logger.Info("Server exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// openStore connects to Postgres when DATABASE_URL is set and falls back to
// an in-memory session store otherwise.
func openStore(cfg *config.Config) database.Database {
	if cfg.Database.URL == "" {
		logger.Info("DATABASE_URL not set, keeping sessions in memory")
		return database.NewMemoryDB()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	return db
}

func setupRoutes(mux *http.ServeMux, roomHandlers *handlers.RoomHandlers, wsHandlers *handlers.WebSocketHandlers) {
	mux.HandleFunc("/health", roomHandlers.Health)
	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		roomHandlers.ListSessions(w, r)
	})

	// Room routes
	mux.HandleFunc("/rooms", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		roomHandlers.ListRooms(w, r)
	})

	// Room sub-routes
	mux.HandleFunc("/rooms/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.EscapedPath(), "/")

		// /rooms/{name}/members
		if len(parts) == 4 && parts[2] != "" && parts[3] == "members" && r.Method == http.MethodGet {
			roomHandlers.GetRoomMembers(w, r)
			return
		}

		http.Error(w, "endpoint not found", http.StatusNotFound)
	})

	// WebSocket route
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func printAPIEndpoints() {
	logger.Info("🔗 API endpoints:")
	logger.Info("   GET  /health")
	logger.Info("   GET  /rooms")
	logger.Info("   GET  /rooms/{name}/members")
	logger.Info("   GET  /sessions")
}
