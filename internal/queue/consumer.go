package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "time"

    "github.com/pkg/errors"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// AuditConsumer reads purchase.recorded and appends one line per purchase
// to an audit log file.
type AuditConsumer struct {
    url  string
    path string
    log  logrus.FieldLogger
}

func NewAuditConsumer(url, path string, log logrus.FieldLogger) *AuditConsumer {
    return &AuditConsumer{url: url, path: path, log: log}
}

// Run consumes until ctx is done, reconnecting when the broker goes away.
// A message that cannot be processed is rejected without requeue so the
// consumer never spins on it.
func (c *AuditConsumer) Run(ctx context.Context) {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.WithError(err).Warnf("purchase-consumer: dial failed; retrying in %s", backoff)
            if !sleepCtx(ctx, backoff) {
                return
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return
        }
        c.log.WithError(err).Warn("purchase-consumer: consume loop ended; reconnecting")
        if !sleepCtx(ctx, 2*time.Second) {
            return
        }
    }
}

func (c *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return errors.Wrap(err, "channel open")
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.WithError(err).Warn("purchase-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(PurchaseQueueName, true, false, false, false, nil); err != nil {
        return errors.Wrap(err, "queue declare")
    }
    msgs, err := ch.ConsumeWithContext(ctx, PurchaseQueueName, "", false, false, false, false, nil)
    if err != nil {
        return errors.Wrap(err, "queue consume")
    }

    for d := range msgs {
        if err := c.handleMessage(d.Body); err != nil {
            c.log.WithError(err).Error("purchase-consumer: handle message failed")
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func (c *AuditConsumer) handleMessage(body []byte) error {
    var ev PurchaseRecordedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return errors.Wrap(err, "unmarshal")
    }
    if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
        return errors.Wrap(err, "mkdir audit dir")
    }
    f, err := os.OpenFile(c.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return errors.Wrap(err, "open audit log")
    }
    defer f.Close()

    line := fmt.Sprintf("[%s] Purchase recorded | purchase_id=%d | user_id=%d | game_id=%d | game=%q | price=%.2f\n",
        ev.PurchasedAt, ev.PurchaseID, ev.UserID, ev.GameID, ev.GameTitle, ev.Price)
    if _, err := f.WriteString(line); err != nil {
        return errors.Wrap(err, "write audit log")
    }
    return nil
}
