// Package queue は予約イベントをRabbitMQで送受信します
package queue

import (
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// DefaultQueueName は予約イベントを流すキューの既定名です
const DefaultQueueName = "hotel.reservation.events"

// newPublishing はイベントを永続化メッセージに変換します
func newPublishing(event model.ReservationEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    string(event.Type) + ":" + event.ReservationID,
		Type:         string(event.Type),
		Timestamp:    event.OccurredAt.UTC(),
		Body:         body,
	}, nil
}

// decodeEvent はメッセージ本文をイベントに変換します
func decodeEvent(body []byte) (model.ReservationEvent, error) {
	var event model.ReservationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return model.ReservationEvent{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.Type == "" || event.ReservationID == "" {
		return model.ReservationEvent{}, fmt.Errorf("event is missing type or reservation_id")
	}
	return event, nil
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return nil
}
