package ws

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"item-service/internal/ports/outbound"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512
)

// Client is one connected feed consumer
type Client struct {
	id       string
	conn     *websocket.Conn
	sendChan chan *ServerMessage
	ctx      context.Context
	cancel   context.CancelFunc
	logger   zerolog.Logger
}

type ClientParams struct {
	ID     string
	Conn   *websocket.Conn
	Logger zerolog.Logger
}

// NewClient creates a new WebSocket client
func NewClient(ctx context.Context, params ClientParams) *Client {
	ctx, cancel := context.WithCancel(ctx)

	return &Client{
		id:       params.ID,
		conn:     params.Conn,
		sendChan: make(chan *ServerMessage, 16),
		ctx:      ctx,
		cancel:   cancel,
		logger:   params.Logger.With().Str("client_id", params.ID).Logger(),
	}
}

// Run pumps events to the connection until either side goes away
func (c *Client) Run(events <-chan outbound.Event) {
	go c.messageReceiver()
	c.messageSender(events)
}

// Stop cancels the client context
func (c *Client) Stop() {
	c.cancel()
}

// messageSender owns every write to the connection
func (c *Client) messageSender(events <-chan outbound.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				c.writeClose(websocket.CloseGoingAway, "event stream closed")
				return
			}
			if err := c.write(NewEventMessage(event)); err != nil {
				c.logger.Debug().Err(err).Msg("Failed to write event")
				return
			}

		case msg := <-c.sendChan:
			if err := c.write(msg); err != nil {
				c.logger.Debug().Err(err).Msg("Failed to write message")
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case <-c.ctx.Done():
			c.writeClose(websocket.CloseNormalClosure, "")
			return
		}
	}
}

// messageReceiver answers client pings and detects disconnects
func (c *Client) messageReceiver() {
	defer c.cancel()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// plain-text "ping" is accepted too
			msg.Type = MessageType(strings.TrimSpace(string(data)))
		}

		switch msg.Type {
		case MessageTypePing:
			c.enqueue(NewServerMessage(MessageTypePong))
		default:
			c.enqueue(NewErrorMessage("unknown message type"))
		}
	}
}

func (c *Client) enqueue(msg *ServerMessage) {
	select {
	case c.sendChan <- msg:
	default:
		c.logger.Warn().Str("type", string(msg.Type)).Msg("Send buffer full, dropping message")
	}
}

func (c *Client) write(msg *ServerMessage) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *Client) writeClose(code int, text string) {
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
}
