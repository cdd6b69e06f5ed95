package broadcaster

import (
	"context"
	"errors"
	"time"

	"item-service/internal/ports/outbound"

	"github.com/alitto/pond"
	"github.com/rs/zerolog"
)

const defaultPublishTimeout = 5 * time.Second

// ErrQueueFull is returned when the dispatch queue cannot take another event
var ErrQueueFull = errors.New("event queue is full")

// AsyncPublisher hands events to a bounded worker pool so request handlers
// never wait on the broker.
type AsyncPublisher struct {
	next    outbound.Publisher
	pool    *pond.WorkerPool
	timeout time.Duration
	logger  zerolog.Logger
}

type AsyncPublisherParams struct {
	Publisher     outbound.Publisher
	Workers       int
	QueueCapacity int
	Timeout       time.Duration
	Logger        zerolog.Logger
}

func NewAsyncPublisher(params AsyncPublisherParams) *AsyncPublisher {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	return &AsyncPublisher{
		next:    params.Publisher,
		pool:    pond.New(params.Workers, params.QueueCapacity, pond.Strategy(pond.Balanced())),
		timeout: timeout,
		logger:  params.Logger.With().Str("component", "async_publisher").Logger(),
	}
}

// Publish queues the event. Delivery errors are logged by the worker.
func (p *AsyncPublisher) Publish(ctx context.Context, event outbound.Event) error {
	ctx = context.WithoutCancel(ctx)

	submitted := p.pool.TrySubmit(func() {
		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		if err := p.next.Publish(ctx, event); err != nil {
			p.logger.Error().
				Err(err).
				Str("event_type", string(event.Type)).
				Str("item_id", event.ItemID.String()).
				Msg("Failed to deliver item event")
		}
	})
	if !submitted {
		return ErrQueueFull
	}
	return nil
}

// Close drains queued events and closes the wrapped publisher
func (p *AsyncPublisher) Close() error {
	p.pool.StopAndWait()
	return p.next.Close()
}

var _ outbound.Publisher = (*AsyncPublisher)(nil)
