package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/redis/go-redis/v9"

	"github.com/uma-arai/sbcntr-hotel/internal/common/apperror"
	"github.com/uma-arai/sbcntr-hotel/internal/common/config"
	"github.com/uma-arai/sbcntr-hotel/internal/common/database"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/lib/logger/sl"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/queue"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
	"github.com/uma-arai/sbcntr-hotel/internal/service"
	"github.com/uma-arai/sbcntr-hotel/internal/storage"
	"github.com/uma-arai/sbcntr-hotel/internal/storage/jsonfile"
	"github.com/uma-arai/sbcntr-hotel/internal/storage/postgres"
	"github.com/uma-arai/sbcntr-hotel/internal/storage/redisstore"
)

// SFNClient はStep Functionsへのタスク結果の通知に使うAPIです
type SFNClient interface {
	SendTaskSuccess(ctx context.Context, params *sfn.SendTaskSuccessInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskSuccessOutput, error)
	SendTaskFailure(ctx context.Context, params *sfn.SendTaskFailureInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskFailureOutput, error)
}

// ItemFailure は処理に失敗した入力1件の情報です
type ItemFailure struct {
	Item      string `json:"item"`
	ID        string `json:"id"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error"`
}

// Result は予約バッチの処理結果です
type Result struct {
	CustomersCreated []string                 `json:"customers_created"`
	HotelsCreated    []string                 `json:"hotels_created"`
	Reserved         []model.ReservationEvent `json:"reserved"`
	Canceled         []model.ReservationEvent `json:"canceled"`
	Failures         []ItemFailure            `json:"failures"`
}

func newResult() Result {
	return Result{
		CustomersCreated: []string{},
		HotelsCreated:    []string{},
		Reserved:         []model.ReservationEvent{},
		Canceled:         []model.ReservationEvent{},
		Failures:         []ItemFailure{},
	}
}

// ReservationBatchService は予約バッチ処理を担当します
type ReservationBatchService struct {
	args         Input
	result       Result
	hotels       *service.HotelService
	customers    *service.CustomerService
	reservations *service.ReservationService
	sfnClient    SFNClient
	cfg          *config.Config
	log          *slog.Logger
	now          func() time.Time
	closers      []func() error
}

// NewReservationBatchService は設定に従ってストレージを開き、新しいReservationBatchServiceを作成します
func NewReservationBatchService(ctx context.Context, cfg *config.Config, sfnClient SFNClient, log *slog.Logger) (*ReservationBatchService, error) {
	s := &ReservationBatchService{
		sfnClient: sfnClient,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}

	store, err := s.openStore(ctx)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	opts := []service.Option{service.WithLock(&sync.Mutex{})}
	if cfg.Queue.URL != "" {
		publisher := queue.NewPublisher(cfg.Queue.URL, cfg.Queue.Name, log)
		s.closers = append(s.closers, publisher.Close)
		opts = append(opts, service.WithPublisher(publisher))
	} else {
		log.Info("RABBITMQ_URL is not set, reservation events are disabled")
	}

	hotelRepo := repository.NewHotelRepository(store, cfg.Storage.HotelsLocation, log)
	customerRepo := repository.NewCustomerRepository(store, cfg.Storage.CustomersLocation, log)
	reservationRepo := repository.NewReservationRepository(store, cfg.Storage.ReservationsLocation, log)

	s.hotels = service.NewHotelService(hotelRepo, customerRepo, reservationRepo, log, opts...)
	s.customers = service.NewCustomerService(customerRepo, reservationRepo, log, opts...)
	s.reservations = service.NewReservationService(reservationRepo, s.hotels)

	return s, nil
}

func (s *ReservationBatchService) openStore(ctx context.Context) (storage.Store, error) {
	switch s.cfg.Storage.Backend {
	case config.BackendPostgres:
		db, err := database.NewDB(ctx, s.cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection: %w", err)
		}
		s.closers = append(s.closers, db.Close)

		store := postgres.New(db, s.log)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     s.cfg.Redis.Addr,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
		})
		s.closers = append(s.closers, client.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", s.cfg.Redis.Addr, err)
		}
		return redisstore.New(client, s.cfg.Redis.Prefix, s.log), nil

	default:
		return jsonfile.New(s.log), nil
	}
}

// Close は終了処理を行います
func (s *ReservationBatchService) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// SetArgs は予約バッチ処理の引数を設定します
func (s *ReservationBatchService) SetArgs(args Input) {
	s.args = args
}

// Result は直近の Run の処理結果を返します
func (s *ReservationBatchService) Result() Result {
	return s.result
}

// Run は予約バッチ処理を実行します
// 1件ごとの失敗は記録して処理を続け、結果をStep Functionsに通知します
func (s *ReservationBatchService) Run(ctx context.Context) (err error) {
	const op = "ReservationBatchService.Run"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	log := s.log.With(slog.String("op", op))
	log.Info("starting reservation batch", slog.Int("items", s.args.Size()))
	utils.AddMetadata(ctx, log, "item_count", s.args.Size())

	startTime := s.now()
	s.result = newResult()

	s.createCustomers(ctx, log)
	s.createHotels(ctx, log)
	s.reserve(ctx, log)
	s.cancel(ctx, log)

	if err := s.sendTaskSuccess(ctx, s.result); err != nil {
		return utils.WithStack(fmt.Errorf("failed to send task success: %w", err))
	}

	duration := s.now().Sub(startTime)
	utils.AddMetadata(ctx, log, "duration", duration.String())
	utils.AddMetadata(ctx, log, "failure_count", len(s.result.Failures))

	log.Info("reservation batch completed",
		slog.Int("reserved", len(s.result.Reserved)),
		slog.Int("canceled", len(s.result.Canceled)),
		slog.Int("failures", len(s.result.Failures)),
		slog.Duration("duration", duration))
	return nil
}

func (s *ReservationBatchService) createCustomers(ctx context.Context, log *slog.Logger) {
	for _, rec := range s.args.Customers {
		id, _ := rec["customer_id"].(string)

		customer, err := model.CustomerFromRecord(rec)
		if err == nil {
			customer, err = s.customers.CreateCustomer(ctx, customer)
		}
		if err != nil {
			s.fail(log, "customer", id, err)
			continue
		}
		s.result.CustomersCreated = append(s.result.CustomersCreated, customer.CustomerID)
	}
}

func (s *ReservationBatchService) createHotels(ctx context.Context, log *slog.Logger) {
	for _, rec := range s.args.Hotels {
		id, _ := rec["hotel_id"].(string)

		hotel, err := model.HotelFromRecord(rec)
		if err == nil {
			hotel, err = s.hotels.CreateHotel(ctx, hotel)
		}
		if err != nil {
			s.fail(log, "hotel", id, err)
			continue
		}
		s.result.HotelsCreated = append(s.result.HotelsCreated, hotel.HotelID)
	}
}

func (s *ReservationBatchService) reserve(ctx context.Context, log *slog.Logger) {
	for _, b := range s.args.Bookings {
		id := b.ReservationID
		if id == "" {
			id = b.CustomerID + "@" + b.HotelID
		}

		req, err := b.request()
		if err != nil {
			s.fail(log, "booking", id, err)
			continue
		}
		reservation, err := s.reservations.Create(ctx, req)
		if err != nil {
			s.fail(log, "booking", id, err)
			continue
		}
		s.result.Reserved = append(s.result.Reserved,
			model.NewReservationEvent(model.EventReservationCreated, reservation, s.now().UTC()))
	}
}

func (s *ReservationBatchService) cancel(ctx context.Context, log *slog.Logger) {
	for _, id := range s.args.Cancellations {
		reservation, err := s.reservations.Cancel(ctx, id)
		if err != nil {
			s.fail(log, "cancellation", id, err)
			continue
		}
		s.result.Canceled = append(s.result.Canceled,
			model.NewReservationEvent(model.EventReservationCanceled, reservation, s.now().UTC()))
	}
}

func (s *ReservationBatchService) fail(log *slog.Logger, item, id string, err error) {
	log.Warn("batch item failed", slog.String("item", item), slog.String("id", id), sl.Err(err))

	failure := ItemFailure{Item: item, ID: id, Error: err.Error()}
	if kind, ok := apperror.KindOf(err); ok {
		failure.ErrorKind = string(kind)
	}
	s.result.Failures = append(s.result.Failures, failure)
}

func (b Booking) request() (service.ReserveRequest, error) {
	const op = "batch.Booking"

	checkIn, err := model.ParseDate(b.CheckIn)
	if err != nil {
		return service.ReserveRequest{}, apperror.Validation(op, "invalid check_in %q (expected YYYY-MM-DD)", b.CheckIn)
	}
	checkOut, err := model.ParseDate(b.CheckOut)
	if err != nil {
		return service.ReserveRequest{}, apperror.Validation(op, "invalid check_out %q (expected YYYY-MM-DD)", b.CheckOut)
	}
	return service.ReserveRequest{
		ReservationID: b.ReservationID,
		CustomerID:    b.CustomerID,
		HotelID:       b.HotelID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		RoomNumber:    b.RoomNumber,
	}, nil
}

// sendTaskSuccess は、Step Functionsのタスク成功を通知し、処理結果を返却します
func (s *ReservationBatchService) sendTaskSuccess(ctx context.Context, result Result) error {
	// ローカルの場合はStep Functionsの処理をスキップ
	if s.cfg.IsLocal() || s.sfnClient == nil {
		s.log.Info("local environment detected, skipping Step Functions task success notification")
		return nil
	}

	output, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	taskToken := s.cfg.SFN.TaskToken
	if taskToken == "" {
		return fmt.Errorf("SFN task token is not set in config")
	}

	_, err = s.sfnClient.SendTaskSuccess(ctx, &sfn.SendTaskSuccessInput{
		TaskToken: aws.String(taskToken),
		Output:    aws.String(string(output)),
	})
	if err != nil {
		return fmt.Errorf("failed to send task success: %w", err)
	}

	s.log.Info("sent task success", slog.Int("output_bytes", len(output)))
	return nil
}

// SendTaskFailure は、バッチ全体が失敗したことをStep Functionsに通知します
func (s *ReservationBatchService) SendTaskFailure(ctx context.Context, cause error) error {
	if s.cfg.IsLocal() || s.sfnClient == nil {
		s.log.Info("local environment detected, skipping Step Functions task failure notification")
		return nil
	}

	errorCode := "BatchError"
	if kind, ok := apperror.KindOf(cause); ok {
		errorCode = string(kind)
	} else if errors.Is(cause, utils.ErrTimeout) {
		errorCode = "Timeout"
	}

	_, err := s.sfnClient.SendTaskFailure(ctx, &sfn.SendTaskFailureInput{
		TaskToken: aws.String(s.cfg.SFN.TaskToken),
		Error:     aws.String(errorCode),
		Cause:     aws.String(cause.Error()),
	})
	if err != nil {
		return fmt.Errorf("failed to send task failure: %w", err)
	}
	return nil
}
