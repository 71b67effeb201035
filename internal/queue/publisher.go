package queue

import (
    "context"
    "encoding/json"
    "time"

    "github.com/pkg/errors"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/game-storefront/internal/metrics"
)

// amqpPublisher is the subset of *amqp.Channel the publisher needs.
type amqpPublisher interface {
    PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher keeps a single broker connection and drains a buffered channel
// of purchase events.  Publish never blocks the request path: when the
// buffer is full the event is dropped.
type Publisher struct {
    url    string
    events chan PurchaseRecordedEvent
    log    logrus.FieldLogger
}

func NewPublisher(url string, buffer int, log logrus.FieldLogger) *Publisher {
    if buffer < 1 {
        buffer = 1
    }
    return &Publisher{url: url, events: make(chan PurchaseRecordedEvent, buffer), log: log}
}

// Publish enqueues ev and reports whether it was accepted.
func (p *Publisher) Publish(ev PurchaseRecordedEvent) bool {
    select {
    case p.events <- ev:
        return true
    default:
        return false
    }
}

// Run connects to the broker and publishes queued events until ctx is done.
// Connection failures are retried with capped exponential backoff.
func (p *Publisher) Run(ctx context.Context) {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(p.url)
        if err != nil {
            p.log.WithError(err).Warnf("purchase-publisher: dial failed; retrying in %s", backoff)
            if !sleepCtx(ctx, backoff) {
                return
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = p.drain(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return
        }
        p.log.WithError(err).Warn("purchase-publisher: connection lost; reconnecting")
        if !sleepCtx(ctx, 2*time.Second) {
            return
        }
    }
}

func (p *Publisher) drain(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return errors.Wrap(err, "channel open")
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(PurchaseQueueName, true, false, false, false, nil); err != nil {
        return errors.Wrap(err, "queue declare")
    }
    closed := conn.NotifyClose(make(chan *amqp.Error, 1))

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case amqpErr := <-closed:
            return errors.Errorf("connection closed: %v", amqpErr)
        case ev := <-p.events:
            if err := p.send(ctx, ch, ev); err != nil {
                return err
            }
        }
    }
}

// send publishes one event taken off the buffer.  A failed event is counted
// as dropped; it is not put back.
func (p *Publisher) send(ctx context.Context, ch amqpPublisher, ev PurchaseRecordedEvent) error {
    if err := publishEvent(ctx, ch, ev); err != nil {
        metrics.EventsDropped.Inc()
        p.log.WithError(err).WithField("purchase_id", ev.PurchaseID).Error("purchase-publisher: publish failed")
        return err
    }
    return nil
}

// publishEvent sends ev as a persistent JSON message routed to the purchase
// queue through the default exchange.
func publishEvent(ctx context.Context, ch amqpPublisher, ev PurchaseRecordedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return errors.Wrap(err, "marshal event")
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    return errors.Wrap(ch.PublishWithContext(ctx, "", PurchaseQueueName, false, false, pub), "publish")
}

// sleepCtx waits for d or until ctx is done; it reports false in the latter case.
func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
