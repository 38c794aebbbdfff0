// Package notifier publishes outbound mail events to RabbitMQ.  Delivery is
// the boundary of this service: issuance persists the credential first and
// reports a publish failure separately, so errors are logged and returned to
// let callers surface them without rolling anything back.
package notifier

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/sso-service/internal/queue"
)

// Publisher delivers mail events to the notification queue.  An empty URL
// disables the queue entirely: events are logged and dropped instead of
// dialed, so deployments without a broker still issue credentials.
type Publisher struct {
	url string
}

// NewPublisher binds a publisher to the broker URL from configuration.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// PublishEmail publishes an EmailNotificationEvent to the notification.email
// queue. Any error is logged and returned so the caller can report delivery
// failure independently of the issuance that triggered it. Messages are
// marked as persistent.
func (p *Publisher) PublishEmail(ctx context.Context, event q.EmailNotificationEvent) error {
	if p.url == "" {
		log.Printf("notifier: no broker configured, dropping %s mail for %s", event.Kind, event.To)
		return nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		q.EmailQueueName, // name
		true,             // durable
		false,            // autoDelete
		false,            // exclusive
		false,            // noWait
		nil,              // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",               // default exchange
		q.EmailQueueName, // routing key = queue name
		false,            // mandatory
		false,            // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
