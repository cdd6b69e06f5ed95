package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"item-service/internal/config"
	"item-service/internal/domain/shared"
	"item-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// FeedHandler streams item events to WebSocket clients
type FeedHandler struct {
	subscriber outbound.Subscriber
	upgrader   websocket.Upgrader
	clients    map[string]*Client
	clientsMu  sync.RWMutex
	logger     zerolog.Logger
}

type FeedHandlerParams struct {
	// Subscriber may be nil, in which case the feed answers 503
	Subscriber     outbound.Subscriber
	Config         config.WebSocketConfig
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(params FeedHandlerParams) *FeedHandler {
	return &FeedHandler{
		subscriber: params.Subscriber,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  params.Config.ReadBufferSize,
			WriteBufferSize: params.Config.WriteBufferSize,
			CheckOrigin:     originChecker(params.AllowedOrigins),
		},
		clients: make(map[string]*Client),
		logger:  params.Logger.With().Str("component", "ws_feed").Logger(),
	}
}

// HandleFeed upgrades the request and streams events until the client leaves
func (handler *FeedHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	if handler.subscriber == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"detail": shared.ErrEventsUnavailable.Error()})
		return
	}

	conn, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		handler.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := NewClient(context.Background(), ClientParams{
		ID:     uuid.NewString(),
		Conn:   conn,
		Logger: handler.logger,
	})

	events, err := handler.subscriber.Subscribe(client.ctx)
	if err != nil {
		handler.logger.Error().Err(err).Msg("Failed to subscribe to item events")
		client.write(NewErrorMessage(shared.ErrEventsUnavailable.Error()))
		client.writeClose(websocket.CloseInternalServerErr, "subscription failed")
		client.Stop()
		conn.Close()
		return
	}

	handler.registerClient(client)
	defer handler.unregisterClient(client)

	handler.logger.Info().Str("client_id", client.id).Msg("WebSocket client connected")
	client.Run(events)
}

// Shutdown disconnects every client
func (handler *FeedHandler) Shutdown() {
	handler.clientsMu.RLock()
	defer handler.clientsMu.RUnlock()

	for _, client := range handler.clients {
		client.Stop()
	}
}

func (handler *FeedHandler) registerClient(client *Client) {
	handler.clientsMu.Lock()
	defer handler.clientsMu.Unlock()
	handler.clients[client.id] = client
	handler.logger.Debug().Str("client_id", client.id).Int("total_clients", len(handler.clients)).Msg("Client registered")
}

func (handler *FeedHandler) unregisterClient(client *Client) {
	handler.clientsMu.Lock()
	defer handler.clientsMu.Unlock()
	delete(handler.clients, client.id)
	handler.logger.Info().Str("client_id", client.id).Int("total_clients", len(handler.clients)).Msg("WebSocket client disconnected")
}

// originChecker accepts requests without an Origin header and those from the allow-list
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	wildcard := false
	for _, o := range allowed {
		if o == "*" {
			wildcard = true
		}
		set[o] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || wildcard {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
