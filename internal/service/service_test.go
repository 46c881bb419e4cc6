package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/uma-arai/sbcntr-hotel/internal/lib/logger/sl"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
	"github.com/uma-arai/sbcntr-hotel/internal/storage/jsonfile"
)

var today = model.Date(2025, time.June, 15)

// day は today からの相対日付を返します
func day(offset int) time.Time {
	return today.AddDate(0, 0, offset)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e model.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

type fixture struct {
	ctx             context.Context
	dir             string
	hotels          *HotelService
	customers       *CustomerService
	reservations    *ReservationService
	reservationRepo *repository.ReservationRepositoryImpl
	events          *recordingPublisher
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	dir := t.TempDir()
	log := sl.Discard()
	store := jsonfile.New(log)

	hotelRepo := repository.NewHotelRepository(store, filepath.Join(dir, "hotels.json"), log)
	customerRepo := repository.NewCustomerRepository(store, filepath.Join(dir, "customers.json"), log)
	reservationRepo := repository.NewReservationRepository(store, filepath.Join(dir, "reservations.json"), log)

	events := &recordingPublisher{}
	opts = append([]Option{
		WithClock(func() time.Time { return today.Add(10 * time.Hour) }),
		WithPublisher(events),
		WithLock(&sync.Mutex{}),
	}, opts...)

	hotels := NewHotelService(hotelRepo, customerRepo, reservationRepo, log, opts...)
	f := &fixture{
		ctx:             context.Background(),
		dir:             dir,
		hotels:          hotels,
		customers:       NewCustomerService(customerRepo, reservationRepo, log, opts...),
		reservations:    NewReservationService(reservationRepo, hotels),
		reservationRepo: reservationRepo,
		events:          events,
	}

	for _, id := range []string{"C1", "C2", "C3"} {
		_, err := f.customers.CreateCustomer(f.ctx, model.Customer{
			CustomerID: id,
			FullName:   "Customer " + id,
			Email:      fmt.Sprintf("%s@example.com", id),
		})
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) createHotel(t *testing.T, id string, rooms int) model.Hotel {
	t.Helper()
	h, err := f.hotels.CreateHotel(f.ctx, model.Hotel{HotelID: id, Name: "Hotel " + id, City: "Kyoto", TotalRooms: rooms})
	require.NoError(t, err)
	return h
}

func (f *fixture) reserve(customerID, hotelID string, in, out int) (model.Reservation, error) {
	return f.hotels.ReserveRoom(f.ctx, ReserveRequest{
		CustomerID: customerID,
		HotelID:    hotelID,
		CheckIn:    day(in),
		CheckOut:   day(out),
	})
}

func ptr[T any](v T) *T { return &v }
