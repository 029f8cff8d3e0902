package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	_ port.ClientEventsProducer = (*ClientEventsProducer)(nil)
	_ port.ChangeListener       = (*ClientEventsProducer)(nil)
)

const flushTimeout = 5 * time.Second

// A ClientEventsProducer publishes change events without waiting for the
// broker. Delivery failures are logged.
type ClientEventsProducer struct {
	cl      ProducerClient
	encoder Encoder
}

func NewClientEventsProducer(
	opts ...ProducerOpt,
) (*ClientEventsProducer, error) {
	const op = "NewClientEventsProducer"

	if len(opts) != 2 {
		panic(fmt.Errorf("%s: %w", op, ErrTooFewOpts)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return &ClientEventsProducer{options.cl, options.encoder}, nil
}

func (p *ClientEventsProducer) Close() {
	const op = "ClientEventsProducer.Close"
	log := slog.With("op", op)
	log.Info("closing producer...")

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := p.cl.Flush(ctx); err != nil {
		log.Warn("failed to flush buffered events", "err", err)
	}
	p.cl.Close()
	log.Info("producer is closed")
}

func (p *ClientEventsProducer) ProduceEvent(
	ctx context.Context, evt domain.ChangeEvent,
) error {
	const op = "ClientEventsProducer.ProduceEvent"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	r, err := p.createRecord(evt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.cl.TryProduce(ctx, r, func(r *kgo.Record, err error) {
		if err != nil {
			slog.Warn("failed to deliver client event",
				"op", op, "kind", evt.Kind, "err", err)
		}
	})
	return nil
}

func (p *ClientEventsProducer) OnChange(evt domain.ChangeEvent) {
	const op = "ClientEventsProducer.OnChange"
	if err := p.ProduceEvent(context.Background(), evt); err != nil {
		slog.Warn("failed to produce client event", "op", op, "err", err)
	}
}

func (p *ClientEventsProducer) createRecord(
	evt domain.ChangeEvent,
) (*kgo.Record, error) {
	const op = "ClientEventsProducer.createRecord"

	s := p.toSchema(evt)
	v, err := p.encoder.Encode(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	key := []byte(strconv.FormatInt(evt.ProductID, 10))
	return &kgo.Record{Key: key, Value: v}, nil
}

func (p *ClientEventsProducer) toSchema(
	evt domain.ChangeEvent,
) (s schema.ClientEventV1) {
	s.Kind = string(evt.Kind)
	s.Role = string(evt.Role)
	s.LineItemID = evt.LineItemID
	s.ProductID = evt.ProductID
	s.Quantity = evt.Quantity
	s.Wishlisted = evt.Wishlisted
	s.Rollback = evt.Rollback
	s.OccurredAt = evt.At
	if s.OccurredAt.IsZero() {
		s.OccurredAt = time.Now()
	}
	return s
}
