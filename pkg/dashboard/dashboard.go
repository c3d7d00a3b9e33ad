// auditcfg/pkg/dashboard/dashboard.go

package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rgehrsitz/auditcfg/pkg/config"
	"rgehrsitz/auditcfg/pkg/logging"
)

// SnapshotSource is satisfied by *config.Registry.
type SnapshotSource interface {
	Current() *config.Snapshot
	Version() uint64
}

// Summary is what websocket clients receive on every tick.
type Summary struct {
	Version   uint64   `json:"version"`
	Source    string   `json:"source,omitempty"`
	RuleCount int      `json:"rule_count"`
	Rules     []string `json:"rules"`
	LogLevel  string   `json:"log_level,omitempty"`
}

type Dashboard struct {
	source         SnapshotSource
	port           int
	clients        map[*websocket.Conn]bool
	clientsMutex   sync.Mutex
	updateInterval time.Duration
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewDashboard(source SnapshotSource, port int, updateInterval time.Duration) *Dashboard {
	return &Dashboard{
		source:         source,
		port:           port,
		clients:        make(map[*websocket.Conn]bool),
		updateInterval: updateInterval,
	}
}

// Handler returns the dashboard routes.
func (d *Dashboard) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", d.handleHealth)
	mux.HandleFunc("/snapshot", d.handleSnapshot)
	mux.HandleFunc("/events", d.handleWebSocket)
	return mux
}

// Start serves until ctx is cancelled.
func (d *Dashboard) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", d.port),
		Handler: d.Handler(),
	}

	go d.broadcastUpdates(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logging.Logger.Info().Int("port", d.port).Msg("Dashboard starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

func (d *Dashboard) summary() Summary {
	s := Summary{Version: d.source.Version(), Rules: []string{}}
	snap := d.source.Current()
	if snap == nil {
		return s
	}
	s.Source = snap.Source
	s.RuleCount = len(snap.Rules)
	s.LogLevel = snap.Option.LogLevel.String()
	for _, r := range snap.Rules {
		s.Rules = append(s.Rules, r.Name)
	}
	return s
}

func (d *Dashboard) handleHealth(w http.ResponseWriter, r *http.Request) {
	if d.source.Current() == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "No audit configuration loaded")
		return
	}
	fmt.Fprintf(w, "Audit configuration version %d active", d.source.Version())
}

func (d *Dashboard) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := d.source.Current()
	if snap == nil {
		http.Error(w, "no audit configuration loaded", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		logging.Logger.Error().Err(err).Msg("Failed to encode snapshot")
	}
}

func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger.Error().Err(err).Msg("Error upgrading to WebSocket")
		return
	}
	defer conn.Close()

	logging.Logger.Debug().Str("remote", conn.RemoteAddr().String()).Msg("Client connected")

	d.clientsMutex.Lock()
	d.clients[conn] = true
	d.clientsMutex.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	d.clientsMutex.Lock()
	delete(d.clients, conn)
	d.clientsMutex.Unlock()

	logging.Logger.Debug().Str("remote", conn.RemoteAddr().String()).Msg("Client disconnected")
}

func (d *Dashboard) broadcastUpdates(ctx context.Context) {
	ticker := time.NewTicker(d.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.broadcast()
		}
	}
}

func (d *Dashboard) broadcast() {
	message, err := json.Marshal(d.summary())
	if err != nil {
		logging.Logger.Error().Err(err).Msg("Error marshaling summary")
		return
	}

	d.clientsMutex.Lock()
	defer d.clientsMutex.Unlock()
	for client := range d.clients {
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			logging.Logger.Debug().Err(err).Msg("Error sending message to client")
			client.Close()
			delete(d.clients, client)
		}
	}
}
