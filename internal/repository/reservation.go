package repository

import (
	"context"
	"log/slog"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/storage"
)

type ReservationRepository interface {
	Repository[model.Reservation]
	ListByHotel(ctx context.Context, hotelID string) ([]model.Reservation, error)
	ListByCustomer(ctx context.Context, customerID string) ([]model.Reservation, error)
}

type ReservationRepositoryImpl struct {
	*Collection[model.Reservation]
}

func NewReservationRepository(store storage.Store, location string, log *slog.Logger) *ReservationRepositoryImpl {
	return &ReservationRepositoryImpl{
		Collection: NewCollection[model.Reservation]("ReservationRepository", store, location, model.ReservationFromRecord, log),
	}
}

// ListByHotel は指定したホテルの予約を返します（キャンセル済みを含む）
func (r *ReservationRepositoryImpl) ListByHotel(ctx context.Context, hotelID string) ([]model.Reservation, error) {
	return r.Filter(ctx, "ReservationRepository.ListByHotel", func(res model.Reservation) bool {
		return res.HotelID == hotelID
	})
}

// ListByCustomer は指定した顧客の予約を返します（キャンセル済みを含む）
func (r *ReservationRepositoryImpl) ListByCustomer(ctx context.Context, customerID string) ([]model.Reservation, error) {
	return r.Filter(ctx, "ReservationRepository.ListByCustomer", func(res model.Reservation) bool {
		return res.CustomerID == customerID
	})
}
