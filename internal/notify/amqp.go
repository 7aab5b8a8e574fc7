package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const contentType = "application/json"

// publisher is the part of *amqp.Channel the AMQP sink needs.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQP publishes events to an exchange with the event type as routing key.
type AMQP struct {
	conn     *amqp.Connection
	channel  publisher
	exchange string
}

// DialAMQP connects to url and declares a durable topic exchange.
func DialAMQP(url, exchange string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}

	return &AMQP{conn: conn, channel: ch, exchange: exchange}, nil
}

func (a *AMQP) Notify(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return a.channel.PublishWithContext(
		ctx,
		a.exchange,
		string(ev.Type),
		false,
		false,
		amqp.Publishing{
			ContentType:  contentType,
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ResultID.String() + ":" + ev.Watcher,
			Timestamp:    ev.CreatedAt,
			Body:         body,
		},
	)
}

func (a *AMQP) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}
