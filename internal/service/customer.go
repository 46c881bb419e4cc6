package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/uma-arai/sbcntr-hotel/internal/availability"
	"github.com/uma-arai/sbcntr-hotel/internal/common/apperror"
	"github.com/uma-arai/sbcntr-hotel/internal/common/utils"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
	"github.com/uma-arai/sbcntr-hotel/internal/repository"
)

// CustomerUpdate は顧客の部分更新です。nil のフィールドは変更しません
type CustomerUpdate struct {
	FullName *string
	Email    *string
	Phone    *string
}

type CustomerService struct {
	customers    repository.CustomerRepository
	reservations repository.ReservationRepository
	log          *slog.Logger
	opts         options

	mu sync.Locker
}

func NewCustomerService(
	customers repository.CustomerRepository,
	reservations repository.ReservationRepository,
	log *slog.Logger,
	opts ...Option,
) *CustomerService {
	o := newOptions(opts)
	return &CustomerService{
		customers:    customers,
		reservations: reservations,
		log:          log,
		opts:         o,
		mu:           o.lock,
	}
}

// CreateCustomer は顧客を登録します。IDが既に存在する場合は DuplicateID エラーになります
func (s *CustomerService) CreateCustomer(ctx context.Context, c model.Customer) (_ model.Customer, err error) {
	const op = "CustomerService.CreateCustomer"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists, err := s.customers.GetByID(ctx, c.CustomerID)
	if err != nil {
		return model.Customer{}, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return model.Customer{}, apperror.DuplicateID(op, "customer %q already exists", c.CustomerID)
	}

	customer, err := model.NewCustomer(c)
	if err != nil {
		return model.Customer{}, err
	}
	if err := s.customers.Upsert(ctx, customer); err != nil {
		return model.Customer{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("customer created", slog.String("op", op), slog.String("customer_id", customer.CustomerID))
	return customer, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, customerID string) (model.Customer, error) {
	const op = "CustomerService.GetCustomer"

	customer, found, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return model.Customer{}, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return model.Customer{}, apperror.NotFound(op, "customer %q does not exist", customerID)
	}
	return customer, nil
}

func (s *CustomerService) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	customers, err := s.customers.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("CustomerService.ListCustomers: %w", err)
	}
	return customers, nil
}

// UpdateCustomer は顧客を部分更新し、更新後の内容を検証してから保存します
func (s *CustomerService) UpdateCustomer(ctx context.Context, customerID string, upd CustomerUpdate) (_ model.Customer, err error) {
	const op = "CustomerService.UpdateCustomer"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	customer, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return model.Customer{}, err
	}
	if upd.FullName != nil {
		customer.FullName = *upd.FullName
	}
	if upd.Email != nil {
		customer.Email = *upd.Email
	}
	if upd.Phone != nil {
		customer.Phone = upd.Phone
	}

	updated, err := model.CustomerFromRecord(customer.ToRecord())
	if err != nil {
		return model.Customer{}, err
	}
	if err := s.customers.Upsert(ctx, updated); err != nil {
		return model.Customer{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("customer updated", slog.String("op", op), slog.String("customer_id", customerID))
	return updated, nil
}

// DeleteCustomer は顧客を削除します
// 有効かつ check_out が今日より後の予約が残っている場合は削除できません
func (s *CustomerService) DeleteCustomer(ctx context.Context, customerID string) (err error) {
	const op = "CustomerService.DeleteCustomer"
	ctx, end := utils.BeginSubsegment(ctx, op)
	defer func() { end(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return err
	}

	reservations, err := s.reservations.ListByCustomer(ctx, customerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if blocking := availability.BlockingReservations(reservations, s.opts.today()); len(blocking) > 0 {
		return apperror.BusinessRule(op,
			"cannot delete customer %q with %d active current or future reservation(s)", customerID, len(blocking))
	}

	removed, err := s.customers.Delete(ctx, customerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !removed {
		return apperror.NotFound(op, "customer %q does not exist (deleted concurrently)", customerID)
	}

	s.log.Info("customer deleted", slog.String("op", op), slog.String("customer_id", customerID))
	return nil
}
