package repository

import (
	"log/slog"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/storage"
)

type HotelRepository interface {
	Repository[model.Hotel]
}

type HotelRepositoryImpl struct {
	*Collection[model.Hotel]
}

func NewHotelRepository(store storage.Store, location string, log *slog.Logger) *HotelRepositoryImpl {
	return &HotelRepositoryImpl{
		Collection: NewCollection[model.Hotel]("HotelRepository", store, location, model.HotelFromRecord, log),
	}
}
