package queue

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/lib/logger/sl"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// Consumer はキューに溜まった予約イベントをまとめて取り出します
type Consumer struct {
	url   string
	queue string
	log   *slog.Logger
}

func NewConsumer(url, queue string, log *slog.Logger) *Consumer {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Consumer{url: url, queue: queue, log: log}
}

// Drain はキューが空になるか limit 件に達するまでイベントを handle に渡します
// 解析できないメッセージは再投入せずに破棄し、handle が失敗したメッセージは再投入して中断します
func (c *Consumer) Drain(ctx context.Context, limit int, handle func(model.ReservationEvent) error) (handled int, err error) {
	const op = "queue.Drain"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	log := c.log.With(slog.String("op", op), slog.String("queue", c.queue))

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to dial broker: %w", op, err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to open channel: %w", op, err)
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, c.queue); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	for handled < limit {
		if err := ctx.Err(); err != nil {
			return handled, err
		}

		d, ok, err := ch.Get(c.queue, false)
		if err != nil {
			return handled, fmt.Errorf("%s: failed to get message: %w", op, err)
		}
		if !ok {
			break
		}

		event, err := decodeEvent(d.Body)
		if err != nil {
			log.Warn("discarding malformed message", slog.String("message_id", d.MessageId), sl.Err(err))
			_ = d.Nack(false, false)
			continue
		}

		if err := handle(event); err != nil {
			_ = d.Nack(false, true)
			return handled, fmt.Errorf("%s: failed to handle %s: %w", op, event.ReservationID, err)
		}
		if err := d.Ack(false); err != nil {
			return handled, fmt.Errorf("%s: failed to ack: %w", op, err)
		}
		handled++
	}

	log.Info("queue drained", slog.Int("handled", handled))
	return handled, nil
}
