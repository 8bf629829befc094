package service

// Booking events are published to RabbitMQ from a background goroutine.
// The ledger notifies the publisher while holding the server-wide lock, so
// Notify only enqueues; a slow or absent broker never delays a booking.

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/bordrail/internal/config"
	"github.com/iliyamo/bordrail/internal/model"
	q "github.com/iliyamo/bordrail/internal/queue"
)

// Publisher publishes BookingRecordedEvents to the configured durable queue.
type Publisher struct {
	cfg    config.AMQPConfig
	events chan q.BookingRecordedEvent
	log    *slog.Logger
}

func NewPublisher(cfg config.AMQPConfig, logger *slog.Logger) *Publisher {
	size := cfg.Buffer
	if size <= 0 {
		size = 256
	}
	return &Publisher{cfg: cfg, events: make(chan q.BookingRecordedEvent, size), log: logger}
}

// BookingRecorded enqueues an event for rec.  When the buffer is full the
// event is dropped and logged.
func (p *Publisher) BookingRecorded(rec model.BookingRecord) {
	ev := q.NewBookingRecordedEvent(rec)
	select {
	case p.events <- ev:
	default:
		p.log.Warn("rabbitmq: event buffer full, dropping booking event", "route", ev.RouteID, "user", ev.UserID)
	}
}

// Run publishes queued events until ctx is done, reconnecting with
// backoff.  An event that fails to publish is logged and not retried.
func (p *Publisher) Run(ctx context.Context) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(p.cfg.URL)
		if err != nil {
			p.log.Warn("rabbitmq: dial failed", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		if err := p.publishLoop(ctx, conn); err != nil {
			p.log.Warn("rabbitmq: publisher reconnecting", "error", err)
		}
		_ = conn.Close()
	}
}

func (p *Publisher) publishLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.cfg.Queue, true, false, false, false, nil); err != nil {
		return err
	}
	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-closed:
			return err
		case ev := <-p.events:
			if err := p.publish(ctx, ch, ev); err != nil {
				p.log.Error("rabbitmq: publish failed", "error", err, "route", ev.RouteID, "user", ev.UserID)
				return err
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, ch *amqp.Channel, ev q.BookingRecordedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return ch.PublishWithContext(pubCtx,
		"",          // default exchange
		p.cfg.Queue, // routing key = queue name
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
