package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/queue"
)

// DefaultNotificationLimit は1回のバッチで処理するイベントの上限です
const DefaultNotificationLimit = 500

// EventSource は予約イベントの取り出し元です
type EventSource interface {
	Drain(ctx context.Context, limit int, handle func(model.ReservationEvent) error) (int, error)
}

// NotificationBatchService は予約イベントを通知ログに書き出すバッチです
type NotificationBatchService struct {
	source EventSource
	path   string
	limit  int
	log    *slog.Logger
}

// NewNotificationBatchService は新しいNotificationBatchServiceを作成します
func NewNotificationBatchService(cfg *config.Config, log *slog.Logger) (*NotificationBatchService, error) {
	if cfg.Queue.URL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for the notification batch")
	}
	return &NotificationBatchService{
		source: queue.NewConsumer(cfg.Queue.URL, cfg.Queue.Name, log),
		path:   cfg.NotificationLog,
		limit:  DefaultNotificationLimit,
		log:    log,
	}, nil
}

// SetLimit は1回のバッチで処理するイベントの上限を設定します
func (s *NotificationBatchService) SetLimit(limit int) {
	if limit > 0 {
		s.limit = limit
	}
}

// Run はキューに溜まったイベントを通知ログに追記します
func (s *NotificationBatchService) Run(ctx context.Context) (err error) {
	const op = "NotificationBatchService.Run"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	log := s.log.With(slog.String("op", op), slog.String("path", s.path))
	startTime := time.Now()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create notification log directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open notification log: %w", err)
	}
	defer f.Close()

	handled, err := s.source.Drain(ctx, s.limit, func(event model.ReservationEvent) error {
		return writeNotification(f, event)
	})
	if err != nil {
		return fmt.Errorf("failed to drain reservation events: %w", err)
	}

	duration := time.Since(startTime)
	utils.AddMetadata(ctx, log, "notification_count", handled)
	utils.AddMetadata(ctx, log, "duration", duration.String())

	log.Info("notification batch completed", slog.Int("notifications", handled), slog.Duration("duration", duration))
	return nil
}

// writeNotification はイベントを1行の通知として書き出します
func writeNotification(w io.Writer, event model.ReservationEvent) error {
	line := fmt.Sprintf("[%s] %s\n", event.OccurredAt.UTC().Format(time.RFC3339), event.Message())
	if _, err := io.WriteString(w, line); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}
