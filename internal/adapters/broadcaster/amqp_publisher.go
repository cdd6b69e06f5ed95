package broadcaster

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"item-service/internal/ports/outbound"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// AMQPPublisher publishes item events to a durable fanout exchange. The
// connection is dialled lazily and re-dialled after the broker drops it.
type AMQPPublisher struct {
	url      string
	exchange string
	dial     func(url string) (*amqp.Connection, error)

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel

	logger zerolog.Logger
}

type AMQPPublisherParams struct {
	URL      string
	Exchange string
	Logger   zerolog.Logger
}

func NewAMQPPublisher(params AMQPPublisherParams) *AMQPPublisher {
	return &AMQPPublisher{
		url:      params.URL,
		exchange: params.Exchange,
		dial:     amqp.Dial,
		logger:   params.Logger.With().Str("component", "amqp_publisher").Logger(),
	}
}

// Connect dials the broker and declares the exchange
func (p *AMQPPublisher) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.channel()
	return err
}

// Publish sends one persistent JSON message
func (p *AMQPPublisher) Publish(ctx context.Context, event outbound.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Timestamp,
		Type:         string(event.Type),
		MessageId:    event.ItemID.String(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, p.exchange, string(event.Type), false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("failed to publish to exchange %s: %w", p.exchange, err)
	}

	p.logger.Debug().
		Str("event_type", string(event.Type)).
		Str("item_id", event.ItemID.String()).
		Msg("Published item event")
	return nil
}

// channel returns an open channel, dialling when needed. Callers hold p.mu.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := p.dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}

	p.conn, p.ch = conn, ch
	p.logger.Info().Str("exchange", p.exchange).Msg("Connected to broker")
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

var _ outbound.Publisher = (*AMQPPublisher)(nil)
