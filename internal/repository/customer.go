package repository

import (
	"log/slog"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/storage"
)

type CustomerRepository interface {
	Repository[model.Customer]
}

type CustomerRepositoryImpl struct {
	*Collection[model.Customer]
}

func NewCustomerRepository(store storage.Store, location string, log *slog.Logger) *CustomerRepositoryImpl {
	return &CustomerRepositoryImpl{
		Collection: NewCollection[model.Customer]("CustomerRepository", store, location, model.CustomerFromRecord, log),
	}
}
