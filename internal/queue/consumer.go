package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/streaming-catalog/internal/mail"
)

// StartMailConsumer connects to RabbitMQ, declares the password.reset.requested
// queue (durable) and turns each message into a reset email.  It reconnects
// with exponential backoff and returns only when ctx is cancelled.  A message
// that cannot be handled is rejected without requeue so a poison message
// cannot loop.
func StartMailConsumer(ctx context.Context, url string, mailer mail.Mailer, log *zap.Logger) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn("mail-consumer: failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, mailer, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("mail-consumer: consume loop ended; reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, mailer mail.Mailer, log *zap.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(10, 0, false); err != nil {
        log.Warn("mail-consumer: set QoS failed", zap.Error(err))
    }
    if _, err := declare(ch, PasswordResetQueue); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.ConsumeWithContext(ctx, PasswordResetQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(ctx, d.Body, mailer, time.Now().UTC()); err != nil {
                log.Error("mail-consumer: handle message failed", zap.Error(err))
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// handleMessage decodes a reset event and sends the email.  Expired links
// are dropped silently.
func handleMessage(ctx context.Context, body []byte, mailer mail.Mailer, now time.Time) error {
    var ev PasswordResetRequestedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Email == "" || ev.ResetURL == "" {
        return errors.New("incomplete event")
    }
    if !ev.ExpiresAt.After(now) {
        return nil
    }
    msg, err := mail.PasswordResetMessage(ev.Notice(), now)
    if err != nil {
        return fmt.Errorf("render: %w", err)
    }
    return mailer.Send(ctx, msg)
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
