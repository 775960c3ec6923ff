package websocket

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hatrick/crease/internal/refresh"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development (TODO: restrict in production)
	},
}

// Server represents the WebSocket server
type Server struct {
	port   string
	server *http.Server
	hub    *Hub
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new WebSocket server
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		hub:    NewHub(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start starts the WebSocket server
func (s *Server) Start(port string) error {
	s.port = port

	// Start the hub in a goroutine
	go s.hub.Run(s.ctx)

	// Set up HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/refresh", s.handleRefresh)
	mux.HandleFunc("/ws/health", s.handleHealth)
	mux.HandleFunc("/ws/metrics", s.handleMetrics)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: mux,
	}

	log.Printf("WebSocket server listening on :%s", port)
	return s.server.ListenAndServe()
}

// handleRefresh handles WebSocket connections for refresh job updates
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := NewClient(uuid.New().String(), conn, s.hub)
	s.hub.Register(client)

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "healthy", "clients": %d}`, s.hub.ClientCount())
}

// handleMetrics returns hub metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := s.hub.GetMetrics()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"active_clients": %d, "total_connections": %d, "total_messages": %d}`,
		metrics["active_clients"], metrics["total_connections"], metrics["total_messages"])
}

// BroadcastEvent sends a refresh event to all connected clients
func (s *Server) BroadcastEvent(event refresh.Event) {
	s.hub.Broadcast(event)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

var _ refresh.Broadcaster = (*Server)(nil)
