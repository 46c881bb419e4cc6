// Package service は業務ルールを適用するサービス層です。
// リポジトリと空室計算を組み合わせて、ホテル・顧客・予約を操作します。
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/lib/logger/sl"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// EventPublisher は予約イベントの送信先です
type EventPublisher interface {
	Publish(ctx context.Context, event model.ReservationEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.ReservationEvent) error { return nil }

type options struct {
	now       func() time.Time
	publisher EventPublisher
	lock      sync.Locker
}

// Option はサービスの依存を差し替えます
type Option func(*options)

// WithClock は「今日」の判定に使う時計を差し替えます
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithPublisher は予約イベントの送信先を設定します
func WithPublisher(p EventPublisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

// WithLock は確認から保存までを直列化するロックを共有します
// HotelService と CustomerService に同じロックを渡すと、予約と顧客削除が交互に実行されなくなります
func WithLock(l sync.Locker) Option {
	return func(o *options) {
		if l != nil {
			o.lock = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now, publisher: nopPublisher{}, lock: &sync.Mutex{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) today() time.Time {
	return model.DateOf(o.now())
}

// publish はイベントを送信します。送信の失敗は記録するだけで呼び出し元には返しません
func (o options) publish(ctx context.Context, log *slog.Logger, eventType model.EventType, r model.Reservation) {
	event := model.NewReservationEvent(eventType, r, o.now().UTC())
	if err := o.publisher.Publish(ctx, event); err != nil {
		log.Warn("failed to publish reservation event",
			slog.String("event_type", string(eventType)),
			slog.String("reservation_id", r.ReservationID),
			sl.Err(err))
	}
}
