package model

import (
	"github.com/uma-arai/sbcntr-hotel/internal/common/apperror"
)

// Customer は顧客のドメインモデルです
type Customer struct {
	CustomerID string  `json:"customer_id" validate:"notblank"`
	FullName   string  `json:"full_name" validate:"notblank"`
	Email      string  `json:"email" validate:"email_tld"`
	Phone      *string `json:"phone"`
}

// NewCustomer は検証済みのCustomerを返します
func NewCustomer(c Customer) (Customer, error) {
	c.Phone = normalizeOpt(c.Phone, false)
	if err := c.Validate(); err != nil {
		return Customer{}, err
	}
	return c, nil
}

func (c Customer) Validate() error {
	return validateStruct("model.Customer", c)
}

func (c Customer) EntityID() string {
	return c.CustomerID
}

func (c Customer) ToRecord() Record {
	rec := Record{
		"customer_id": c.CustomerID,
		"full_name":   c.FullName,
		"email":       c.Email,
		"phone":       nil,
	}
	if c.Phone != nil {
		rec["phone"] = *c.Phone
	}
	return rec
}

// CustomerFromRecord はレコードからCustomerを復元し、再検証します
func CustomerFromRecord(rec Record) (Customer, error) {
	const op = "model.CustomerFromRecord"

	if err := rec.missing("customer_id", "full_name", "email"); err != nil {
		return Customer{}, apperror.Wrap(apperror.KindValidation, op, "invalid customer record", err)
	}

	var (
		c   Customer
		err error
	)
	if c.CustomerID, err = rec.str("customer_id"); err != nil {
		return Customer{}, apperror.Wrap(apperror.KindValidation, op, "invalid customer record", err)
	}
	if c.FullName, err = rec.str("full_name"); err != nil {
		return Customer{}, apperror.Wrap(apperror.KindValidation, op, "invalid customer record", err)
	}
	if c.Email, err = rec.str("email"); err != nil {
		return Customer{}, apperror.Wrap(apperror.KindValidation, op, "invalid customer record", err)
	}
	if c.Phone, err = rec.optStr("phone", false); err != nil {
		return Customer{}, apperror.Wrap(apperror.KindValidation, op, "invalid customer record", err)
	}

	return NewCustomer(c)
}
