package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/lib/logger/sl"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// MockEventSource はテスト用のイベント取り出し元です
type MockEventSource struct {
	events    []model.ReservationEvent
	drainErr  error
	lastLimit int
}

func (m *MockEventSource) Drain(_ context.Context, limit int, handle func(model.ReservationEvent) error) (int, error) {
	m.lastLimit = limit
	if m.drainErr != nil {
		return 0, m.drainErr
	}
	n := 0
	for _, e := range m.events {
		if n >= limit {
			break
		}
		if err := handle(e); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func newTestNotificationBatchService(source *MockEventSource, path string) *NotificationBatchService {
	return &NotificationBatchService{
		source: source,
		path:   path,
		limit:  DefaultNotificationLimit,
		log:    sl.Discard(),
	}
}

func testEvent(eventType model.EventType, id string) model.ReservationEvent {
	r := model.Reservation{
		ReservationID: id,
		HotelID:       "H1",
		CustomerID:    "C1",
		CheckIn:       model.Date(2025, time.July, 1),
		CheckOut:      model.Date(2025, time.July, 3),
		Status:        model.StatusActive,
	}
	return model.NewReservationEvent(eventType, r, time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC))
}

func TestNotificationBatchService_Run(t *testing.T) {
	// X-Rayのセグメントを設定
	ctx, seg := xray.BeginSegment(context.Background(), "TestNotificationBatchService_Run")
	defer seg.Close(nil)

	tests := []struct {
		name      string
		events    []model.ReservationEvent
		limit     int
		drainErr  error
		wantLines []string
		wantErr   bool
	}{
		{
			name:      "0件のイベントを正常に処理",
			wantLines: []string{},
		},
		{
			name: "作成とキャンセルを書き出す",
			events: []model.ReservationEvent{
				testEvent(model.EventReservationCreated, "RES-1"),
				testEvent(model.EventReservationCanceled, "RES-1"),
			},
			wantLines: []string{
				"[2025-06-01T12:00:00Z] Reservation confirmed | reservation_id=RES-1 | hotel_id=H1 | customer_id=C1 | stay=2025-07-01..2025-07-03",
				"[2025-06-01T12:00:00Z] Reservation canceled | reservation_id=RES-1 | hotel_id=H1 | customer_id=C1",
			},
		},
		{
			name: "上限件数で打ち切る",
			events: []model.ReservationEvent{
				testEvent(model.EventReservationCreated, "RES-1"),
				testEvent(model.EventReservationCreated, "RES-2"),
				testEvent(model.EventReservationCreated, "RES-3"),
			},
			limit: 2,
			wantLines: []string{
				"[2025-06-01T12:00:00Z] Reservation confirmed | reservation_id=RES-1 | hotel_id=H1 | customer_id=C1 | stay=2025-07-01..2025-07-03",
				"[2025-06-01T12:00:00Z] Reservation confirmed | reservation_id=RES-2 | hotel_id=H1 | customer_id=C1 | stay=2025-07-01..2025-07-03",
			},
		},
		{
			name:     "キューの読み出しに失敗",
			drainErr: errors.New("connection refused"),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "logs", "notifications.log")
			source := &MockEventSource{events: tt.events, drainErr: tt.drainErr}
			s := newTestNotificationBatchService(source, path)
			s.SetLimit(tt.limit)

			err := s.Run(ctx)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			lines := []string{}
			for _, l := range strings.Split(strings.TrimSpace(string(data)), "\n") {
				if l != "" {
					lines = append(lines, l)
				}
			}
			assert.Equal(t, tt.wantLines, lines)
		})
	}
}

func TestNotificationBatchService_AppendsToExistingLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	source := &MockEventSource{events: []model.ReservationEvent{testEvent(model.EventReservationCanceled, "RES-9")}}
	s := newTestNotificationBatchService(source, path)

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, DefaultNotificationLimit, source.lastLimit)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "existing\n"))
	assert.Contains(t, string(data), "reservation_id=RES-9")
}

func TestNewNotificationBatchService_RequiresQueue(t *testing.T) {
	_, err := NewNotificationBatchService(&config.Config{}, sl.Discard())
	assert.Error(t, err)
}
