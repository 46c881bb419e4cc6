package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uma-arai/sbcntr-hotel/internal/common/apperror"
	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/lib/logger/sl"
)

// MockSFNClient はテスト用のStep Functionsクライアントです
type MockSFNClient struct {
	successInputs []*sfn.SendTaskSuccessInput
	failureInputs []*sfn.SendTaskFailureInput
	err           error
}

func (m *MockSFNClient) SendTaskSuccess(_ context.Context, params *sfn.SendTaskSuccessInput, _ ...func(*sfn.Options)) (*sfn.SendTaskSuccessOutput, error) {
	m.successInputs = append(m.successInputs, params)
	return &sfn.SendTaskSuccessOutput{}, m.err
}

func (m *MockSFNClient) SendTaskFailure(_ context.Context, params *sfn.SendTaskFailureInput, _ ...func(*sfn.Options)) (*sfn.SendTaskFailureOutput, error) {
	m.failureInputs = append(m.failureInputs, params)
	return &sfn.SendTaskFailureOutput{}, m.err
}

func newTestConfig(t *testing.T, env string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{Env: env}
	cfg.Storage = config.StorageConfig{
		Backend:              config.BackendFile,
		DataDir:              dir,
		HotelsLocation:       filepath.Join(dir, "hotels.json"),
		CustomersLocation:    filepath.Join(dir, "customers.json"),
		ReservationsLocation: filepath.Join(dir, "reservations.json"),
	}
	cfg.SFN.TaskToken = "task-token"
	return cfg
}

func newTestReservationBatchService(t *testing.T, cfg *config.Config, client SFNClient) *ReservationBatchService {
	t.Helper()
	s, err := NewReservationBatchService(context.Background(), cfg, client, sl.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// future は今日から offset 日後の日付を返します
func future(offset int) string {
	return time.Now().AddDate(0, 0, offset).Format("2006-01-02")
}

func testInput(t *testing.T) Input {
	t.Helper()
	raw := fmt.Sprintf(`{
  "customers": [
    {"customer_id": "C1", "full_name": "Yamada Taro", "email": "taro@example.com"},
    {"customer_id": "C2", "full_name": "Sato Hanako", "email": "hanako@example.com", "phone": "090-1111-2222"},
    {"customer_id": "C3", "full_name": "Broken", "email": "broken"}
  ],
  "hotels": [
    {"hotel_id": "H1", "name": "Grand", "city": "Tokyo", "total_rooms": 1, "rating": 4.2}
  ],
  "bookings": [
    {"reservation_id": "RES-A", "customer_id": "C1", "hotel_id": "H1", "check_in": %[1]q, "check_out": %[2]q},
    {"reservation_id": "RES-B", "customer_id": "C2", "hotel_id": "H1", "check_in": %[1]q, "check_out": %[2]q},
    {"reservation_id": "RES-C", "customer_id": "C2", "hotel_id": "H1", "check_in": "2025-02-30", "check_out": %[2]q},
    {"customer_id": "C2", "hotel_id": "H1", "check_in": %[2]q, "check_out": %[3]q, "room_number": 7}
  ],
  "cancellations": ["RES-A", "RES-A", "RES-missing"]
}`, future(3), future(5), future(6))

	input, err := ParseInput([]byte(raw))
	require.NoError(t, err)
	return input
}

func TestParseInput(t *testing.T) {
	input := testInput(t)
	assert.Len(t, input.Customers, 3)
	assert.Len(t, input.Hotels, 1)
	assert.Len(t, input.Bookings, 4)
	assert.Equal(t, 11, input.Size())
	require.NotNil(t, input.Bookings[3].RoomNumber)
	assert.Equal(t, 7, *input.Bookings[3].RoomNumber)

	_, err := ParseInput([]byte(`{"bookings": "x"}`))
	assert.Error(t, err)
}

func TestReservationBatchService_Run(t *testing.T) {
	// X-Rayのセグメントを設定
	ctx, seg := xray.BeginSegment(context.Background(), "TestReservationBatchService_Run")
	defer seg.Close(nil)

	client := &MockSFNClient{}
	s := newTestReservationBatchService(t, newTestConfig(t, "PRODUCTION"), client)
	s.SetArgs(testInput(t))

	require.NoError(t, s.Run(ctx))

	result := s.Result()
	assert.Equal(t, []string{"C1", "C2"}, result.CustomersCreated)
	assert.Equal(t, []string{"H1"}, result.HotelsCreated)

	require.Len(t, result.Reserved, 2)
	assert.Equal(t, "RES-A", result.Reserved[0].ReservationID)
	assert.NotEmpty(t, result.Reserved[1].ReservationID)
	require.Len(t, result.Canceled, 1)
	assert.Equal(t, "RES-A", result.Canceled[0].ReservationID)

	failures := map[string]string{}
	for _, f := range result.Failures {
		failures[f.Item+":"+f.ID] = f.ErrorKind
	}
	assert.Equal(t, map[string]string{
		"customer:C3":              string(apperror.KindValidation),
		"booking:RES-B":            string(apperror.KindBusinessRule),
		"booking:RES-C":            string(apperror.KindValidation),
		"cancellation:RES-A":       string(apperror.KindConflict),
		"cancellation:RES-missing": string(apperror.KindNotFound),
	}, failures)

	// 処理結果がStep Functionsに通知されること
	require.Len(t, client.successInputs, 1)
	assert.Equal(t, "task-token", *client.successInputs[0].TaskToken)

	var output Result
	require.NoError(t, json.Unmarshal([]byte(*client.successInputs[0].Output), &output))
	assert.Equal(t, result.CustomersCreated, output.CustomersCreated)
	assert.Len(t, output.Failures, 5)
}

func TestReservationBatchService_Run_Local(t *testing.T) {
	client := &MockSFNClient{}
	s := newTestReservationBatchService(t, newTestConfig(t, "LOCAL"), client)
	s.SetArgs(Input{})

	require.NoError(t, s.Run(context.Background()))
	assert.Empty(t, client.successInputs)

	result := s.Result()
	assert.Empty(t, result.Reserved)
	assert.Empty(t, result.Failures)
}

func TestReservationBatchService_Run_SendTaskSuccessFails(t *testing.T) {
	client := &MockSFNClient{err: errors.New("throttled")}
	s := newTestReservationBatchService(t, newTestConfig(t, "PRODUCTION"), client)
	s.SetArgs(Input{})

	err := s.Run(context.Background())
	assert.Error(t, err)
}

func TestReservationBatchService_Run_PersistsAcrossInstances(t *testing.T) {
	cfg := newTestConfig(t, "LOCAL")

	first := newTestReservationBatchService(t, cfg, nil)
	first.SetArgs(testInput(t))
	require.NoError(t, first.Run(context.Background()))

	// 同じデータに対して再実行すると作成済みのIDは重複になる
	second := newTestReservationBatchService(t, cfg, nil)
	second.SetArgs(Input{Customers: testInput(t).Customers[:1]})
	require.NoError(t, second.Run(context.Background()))

	result := second.Result()
	assert.Empty(t, result.CustomersCreated)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, string(apperror.KindDuplicateID), result.Failures[0].ErrorKind)
}

func TestReservationBatchService_SendTaskFailure(t *testing.T) {
	tests := []struct {
		name     string
		cause    error
		wantCode string
	}{
		{name: "タイムアウト", cause: fmt.Errorf("%w after 5m0s", utils.ErrTimeout), wantCode: "Timeout"},
		{name: "永続化エラー", cause: apperror.New(apperror.KindPersistence, "op", "disk full"), wantCode: "PERSISTENCE_ERROR"},
		{name: "その他", cause: errors.New("boom"), wantCode: "BatchError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockSFNClient{}
			s := newTestReservationBatchService(t, newTestConfig(t, "PRODUCTION"), client)

			require.NoError(t, s.SendTaskFailure(context.Background(), tt.cause))
			require.Len(t, client.failureInputs, 1)
			assert.Equal(t, tt.wantCode, *client.failureInputs[0].Error)
			assert.Equal(t, tt.cause.Error(), *client.failureInputs[0].Cause)
		})
	}
}
