package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// ExchangeNotifications direct-обменник для всех писем платформы.
const ExchangeNotifications = "notifications"

// Ключи маршрутизации уведомлений.
const (
	RoutingPasswordReset     = "password_reset"
	RoutingPurchaseCompleted = "purchase_completed"
	RoutingUpcoming          = "upcoming"
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// NotificationQueues очереди, которые слушает сервис отправки писем.
func NotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.password_reset", RoutingKey: RoutingPasswordReset},
		{QueueName: "notifications.purchase_completed", RoutingKey: RoutingPurchaseCompleted},
		{QueueName: "notifications.upcoming", RoutingKey: RoutingUpcoming},
	}
}

// SetupChannel открывает канал, объявляет обменник и привязывает к нему очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		ExchangeNotifications,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, ExchangeNotifications, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
