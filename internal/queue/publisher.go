package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/streaming-catalog/internal/model"
)

// Publisher publishes reset notices to RabbitMQ.  It dials per publish;
// resets are rare and this keeps no broker state in the API process.
type Publisher struct {
    url string
    log *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) *Publisher {
    if log == nil {
        log = zap.NewNop()
    }
    return &Publisher{url: url, log: log}
}

// NotifyPasswordReset publishes n to the password.reset.requested queue.
// Errors are logged and returned so the caller can choose to ignore them.
// Messages are marked as persistent.
func (p *Publisher) NotifyPasswordReset(ctx context.Context, n model.ResetNotice) error {
    body, err := json.Marshal(PasswordResetRequestedEvent{
        Email:       n.Email,
        Name:        n.Name,
        ResetURL:    n.ResetURL,
        ExpiresAt:   n.ExpiresAt,
        RequestedAt: time.Now().UTC(),
    })
    if err != nil {
        return err
    }
    return p.publish(ctx, PasswordResetQueue, body)
}

func (p *Publisher) publish(ctx context.Context, queue string, body []byte) error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        p.log.Warn("rabbitmq: dial failed", zap.Error(err))
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Warn("rabbitmq: channel open failed", zap.Error(err))
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := declare(ch, queue); err != nil {
        p.log.Warn("rabbitmq: queue declare failed", zap.String("queue", queue), zap.Error(err))
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",    // default exchange
        queue, // routing key = queue name
        false, // mandatory
        false, // immediate
        pub,
    ); err != nil {
        p.log.Warn("rabbitmq: publish failed", zap.String("queue", queue), zap.Error(err))
        return err
    }
    return nil
}

func declare(ch *amqp.Channel, queue string) (amqp.Queue, error) {
    return ch.QueueDeclare(
        queue, // name
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,   // args
    )
}
