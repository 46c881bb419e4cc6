package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/availability"
	"github.com/uma-arai/sbcntr-hotel/internal/common/apperror"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
)

// HotelUpdate はホテルの部分更新です。nil のフィールドは変更しません
type HotelUpdate struct {
	Name       *string
	City       *string
	TotalRooms *int
	Address    *string
	Rating     *float64
}

// ReserveRequest は予約の作成要求です
// ReservationID が空の場合は自動採番されます
type ReserveRequest struct {
	ReservationID string
	CustomerID    string
	HotelID       string
	CheckIn       time.Time
	CheckOut      time.Time
	RoomNumber    *int
}

// HotelService はホテルと、その空室・予約のライフサイクルを管理します
type HotelService struct {
	hotels       repository.HotelRepository
	customers    repository.CustomerRepository
	reservations repository.ReservationRepository
	log          *slog.Logger
	opts         options

	// mu は確認から保存までを直列化します
	mu sync.Locker
}

func NewHotelService(
	hotels repository.HotelRepository,
	customers repository.CustomerRepository,
	reservations repository.ReservationRepository,
	log *slog.Logger,
	opts ...Option,
) *HotelService {
	o := newOptions(opts)
	return &HotelService{
		hotels:       hotels,
		customers:    customers,
		reservations: reservations,
		log:          log,
		opts:         o,
		mu:           o.lock,
	}
}

// CreateHotel はホテルを登録します。IDが既に存在する場合は DuplicateID エラーになります
func (s *HotelService) CreateHotel(ctx context.Context, h model.Hotel) (_ model.Hotel, err error) {
	const op = "HotelService.CreateHotel"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	log := s.log.With(slog.String("op", op), slog.String("hotel_id", h.HotelID))

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists, err := s.hotels.GetByID(ctx, h.HotelID)
	if err != nil {
		return model.Hotel{}, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return model.Hotel{}, apperror.DuplicateID(op, "hotel %q already exists", h.HotelID)
	}

	hotel, err := model.NewHotel(h)
	if err != nil {
		return model.Hotel{}, err
	}
	if err := s.hotels.Upsert(ctx, hotel); err != nil {
		return model.Hotel{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("hotel created", slog.Int("total_rooms", hotel.TotalRooms))
	return hotel, nil
}

// GetHotel はホテルを返します。存在しない場合は NotFound エラーになります
func (s *HotelService) GetHotel(ctx context.Context, hotelID string) (model.Hotel, error) {
	const op = "HotelService.GetHotel"

	hotel, found, err := s.hotels.GetByID(ctx, hotelID)
	if err != nil {
		return model.Hotel{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return model.Hotel{}, apperror.NotFound(op, "hotel %q does not exist", hotelID)
	}
	return hotel, nil
}

func (s *HotelService) ListHotels(ctx context.Context) ([]model.Hotel, error) {
	const op = "HotelService.ListHotels"

	hotels, err := s.hotels.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return hotels, nil
}

// UpdateHotel はホテルを部分更新します
// 客室数は現在の同時予約数のピークを下回る値にはできません
func (s *HotelService) UpdateHotel(ctx context.Context, hotelID string, upd HotelUpdate) (_ model.Hotel, err error) {
	const op = "HotelService.UpdateHotel"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	log := s.log.With(slog.String("op", op), slog.String("hotel_id", hotelID))

	s.mu.Lock()
	defer s.mu.Unlock()

	hotel, err := s.GetHotel(ctx, hotelID)
	if err != nil {
		return model.Hotel{}, err
	}

	if upd.TotalRooms != nil {
		if *upd.TotalRooms <= 0 {
			return model.Hotel{}, apperror.Validation(op, "'total_rooms' must be a positive integer")
		}

		reservations, err := s.reservations.ListByHotel(ctx, hotelID)
		if err != nil {
			return model.Hotel{}, fmt.Errorf("%s: %w", op, err)
		}
		if peak := availability.PeakConcurrent(reservations); *upd.TotalRooms < peak {
			return model.Hotel{}, apperror.BusinessRule(op,
				"cannot reduce total_rooms to %d below existing peak occupancy (%d)", *upd.TotalRooms, peak)
		}
	}

	if upd.Name != nil {
		hotel.Name = *upd.Name
	}
	if upd.City != nil {
		hotel.City = *upd.City
	}
	if upd.TotalRooms != nil {
		hotel.TotalRooms = *upd.TotalRooms
	}
	if upd.Address != nil {
		hotel.Address = upd.Address
	}
	if upd.Rating != nil {
		hotel.Rating = upd.Rating
	}

	updated, err := model.HotelFromRecord(hotel.ToRecord())
	if err != nil {
		return model.Hotel{}, err
	}
	if err := s.hotels.Upsert(ctx, updated); err != nil {
		return model.Hotel{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("hotel updated")
	return updated, nil
}

// DeleteHotel はホテルを削除します
// 有効かつ check_out が今日より後の予約が残っている場合は削除できません
func (s *HotelService) DeleteHotel(ctx context.Context, hotelID string) (err error) {
	const op = "HotelService.DeleteHotel"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	log := s.log.With(slog.String("op", op), slog.String("hotel_id", hotelID))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.GetHotel(ctx, hotelID); err != nil {
		return err
	}

	reservations, err := s.reservations.ListByHotel(ctx, hotelID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if blocking := availability.BlockingReservations(reservations, s.opts.today()); len(blocking) > 0 {
		return apperror.BusinessRule(op,
			"cannot delete hotel %q with %d active current or future reservation(s)", hotelID, len(blocking))
	}

	removed, err := s.hotels.Delete(ctx, hotelID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !removed {
		return apperror.NotFound(op, "hotel %q does not exist (deleted concurrently)", hotelID)
	}

	log.Info("hotel deleted")
	return nil
}

// ReserveRoom は空室がある場合に予約を作成します
func (s *HotelService) ReserveRoom(ctx context.Context, req ReserveRequest) (_ model.Reservation, err error) {
	const op = "HotelService.ReserveRoom"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	log := s.log.With(slog.String("op", op),
		slog.String("hotel_id", req.HotelID), slog.String("customer_id", req.CustomerID))

	if err := availability.ValidateDateRange(req.CheckIn, req.CheckOut); err != nil {
		return model.Reservation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hotel, err := s.GetHotel(ctx, req.HotelID)
	if err != nil {
		return model.Reservation{}, err
	}

	customer, found, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return model.Reservation{}, apperror.NotFound(op, "customer %q does not exist", req.CustomerID)
	}

	reservationID := req.ReservationID
	if reservationID == "" {
		reservationID = model.NewReservationID()
	} else {
		_, exists, err := s.reservations.GetByID(ctx, reservationID)
		if err != nil {
			return model.Reservation{}, fmt.Errorf("%s: %w", op, err)
		}
		if exists {
			return model.Reservation{}, apperror.DuplicateID(op, "reservation %q already exists", reservationID)
		}
	}

	reservation, err := model.NewReservation(model.Reservation{
		ReservationID: reservationID,
		HotelID:       hotel.HotelID,
		CustomerID:    customer.CustomerID,
		CheckIn:       req.CheckIn,
		CheckOut:      req.CheckOut,
		RoomNumber:    req.RoomNumber,
		Status:        model.StatusActive,
	})
	if err != nil {
		return model.Reservation{}, err
	}

	existing, err := s.reservations.ListByHotel(ctx, hotel.HotelID)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}
	available, err := availability.AvailableRooms(hotel.TotalRooms, existing, reservation.CheckIn, reservation.CheckOut)
	if err != nil {
		return model.Reservation{}, err
	}
	if available <= 0 {
		return model.Reservation{}, apperror.BusinessRule(op,
			"no rooms available at hotel %q for %s..%s", hotel.HotelID,
			model.FormatDate(reservation.CheckIn), model.FormatDate(reservation.CheckOut))
	}

	if err := s.reservations.Upsert(ctx, reservation); err != nil {
		return model.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("reservation created",
		slog.String("reservation_id", reservation.ReservationID),
		slog.String("check_in", model.FormatDate(reservation.CheckIn)),
		slog.String("check_out", model.FormatDate(reservation.CheckOut)))
	s.opts.publish(ctx, log, model.EventReservationCreated, reservation)

	return reservation, nil
}

// CancelReservation は有効な予約をキャンセルします
// キャンセル済みの予約を再度キャンセルすると Conflict エラーになります
func (s *HotelService) CancelReservation(ctx context.Context, reservationID string) (_ model.Reservation, err error) {
	const op = "HotelService.CancelReservation"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	log := s.log.With(slog.String("op", op), slog.String("reservation_id", reservationID))

	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, found, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return model.Reservation{}, apperror.NotFound(op, "reservation %q does not exist", reservationID)
	}
	if !reservation.IsActive() {
		return model.Reservation{}, apperror.Conflict(op, "reservation %q is already canceled", reservationID)
	}

	canceled := reservation.Cancel()
	if err := s.reservations.Upsert(ctx, canceled); err != nil {
		return model.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("reservation canceled", slog.String("hotel_id", canceled.HotelID))
	s.opts.publish(ctx, log, model.EventReservationCanceled, canceled)

	return canceled, nil
}

// CheckAvailability は期間内に残っている部屋数を返します
func (s *HotelService) CheckAvailability(ctx context.Context, hotelID string, checkIn, checkOut time.Time) (int, error) {
	const op = "HotelService.CheckAvailability"

	if err := availability.ValidateDateRange(checkIn, checkOut); err != nil {
		return 0, err
	}
	hotel, err := s.GetHotel(ctx, hotelID)
	if err != nil {
		return 0, err
	}
	reservations, err := s.reservations.ListByHotel(ctx, hotelID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	available, err := availability.AvailableRooms(hotel.TotalRooms, reservations, checkIn, checkOut)
	if err != nil {
		return 0, err
	}
	return max(available, 0), nil
}

// PeakOccupancy は有効な予約の同時最大数を返します
func (s *HotelService) PeakOccupancy(ctx context.Context, hotelID string) (int, error) {
	const op = "HotelService.PeakOccupancy"

	if _, err := s.GetHotel(ctx, hotelID); err != nil {
		return 0, err
	}
	reservations, err := s.reservations.ListByHotel(ctx, hotelID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return availability.PeakConcurrent(reservations), nil
}
