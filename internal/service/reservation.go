package service

import (
	"context"
	"fmt"

	"github.com/uma-arai/sbcntr-hotel/internal/common/apperror"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
)

// ReservationService は予約の参照と、HotelService への作成・キャンセルの委譲を行います
type ReservationService struct {
	reservations repository.ReservationRepository
	hotels       *HotelService
}

func NewReservationService(reservations repository.ReservationRepository, hotels *HotelService) *ReservationService {
	return &ReservationService{reservations: reservations, hotels: hotels}
}

func (s *ReservationService) Create(ctx context.Context, req ReserveRequest) (model.Reservation, error) {
	return s.hotels.ReserveRoom(ctx, req)
}

func (s *ReservationService) Cancel(ctx context.Context, reservationID string) (model.Reservation, error) {
	return s.hotels.CancelReservation(ctx, reservationID)
}

// Get は予約を返します。存在しない場合は NotFound エラーになります
func (s *ReservationService) Get(ctx context.Context, reservationID string) (model.Reservation, error) {
	const op = "ReservationService.Get"

	reservation, found, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return model.Reservation{}, apperror.NotFound(op, "reservation %q does not exist", reservationID)
	}
	return reservation, nil
}

func (s *ReservationService) ListByHotel(ctx context.Context, hotelID string) ([]model.Reservation, error) {
	reservations, err := s.reservations.ListByHotel(ctx, hotelID)
	if err != nil {
		return nil, fmt.Errorf("ReservationService.ListByHotel: %w", err)
	}
	return reservations, nil
}

func (s *ReservationService) ListByCustomer(ctx context.Context, customerID string) ([]model.Reservation, error) {
	reservations, err := s.reservations.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("ReservationService.ListByCustomer: %w", err)
	}
	return reservations, nil
}
