package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/uma-arai/sbcntr-hotel/internal/common/apperror"
)

// Status は予約のステータスです
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusCanceled Status = "CANCELED"
)

// ReservationIDPrefix は自動採番される予約IDの接頭辞です
const ReservationIDPrefix = "RES"

// Reservation は顧客とホテルの間の予約です
// 宿泊期間は [CheckIn, CheckOut) の半開区間です
type Reservation struct {
	ReservationID string    `json:"reservation_id" validate:"notblank"`
	HotelID       string    `json:"hotel_id" validate:"notblank"`
	CustomerID    string    `json:"customer_id" validate:"notblank"`
	CheckIn       time.Time `json:"check_in"`
	CheckOut      time.Time `json:"check_out" validate:"gtfield=CheckIn"`
	RoomNumber    *int      `json:"room_number" validate:"omitnil,gt=0"`
	Status        Status    `json:"status" validate:"oneof=ACTIVE CANCELED"`
}

// NewReservationID は RES-<uuid> 形式の予約IDを生成します
func NewReservationID() string {
	return ReservationIDPrefix + "-" + uuid.NewString()
}

// NewReservation は検証済みのReservationを返します
// Statusが空の場合はACTIVEになります
func NewReservation(r Reservation) (Reservation, error) {
	if r.Status == "" {
		r.Status = StatusActive
	}
	if !r.CheckIn.IsZero() {
		r.CheckIn = DateOf(r.CheckIn)
	}
	if !r.CheckOut.IsZero() {
		r.CheckOut = DateOf(r.CheckOut)
	}
	if err := r.Validate(); err != nil {
		return Reservation{}, err
	}
	return r, nil
}

func (r Reservation) Validate() error {
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		return apperror.Validation("model.Reservation", "'check_in' and 'check_out' are required")
	}
	return validateStruct("model.Reservation", r)
}

func (r Reservation) EntityID() string {
	return r.ReservationID
}

// IsActive は予約が有効（キャンセルされていない）かどうかを返します
func (r Reservation) IsActive() bool {
	return r.Status == StatusActive
}

// Cancel はキャンセル済みの予約のコピーを返します
func (r Reservation) Cancel() Reservation {
	r.Status = StatusCanceled
	return r
}

func (r Reservation) ToRecord() Record {
	rec := Record{
		"reservation_id": r.ReservationID,
		"hotel_id":       r.HotelID,
		"customer_id":    r.CustomerID,
		"check_in":       FormatDate(r.CheckIn),
		"check_out":      FormatDate(r.CheckOut),
		"room_number":    nil,
		"status":         string(r.Status),
	}
	if r.RoomNumber != nil {
		rec["room_number"] = *r.RoomNumber
	}
	return rec
}

// ReservationFromRecord はレコードからReservationを復元し、再検証します
// status が無い場合はACTIVEとして扱います
func ReservationFromRecord(rec Record) (Reservation, error) {
	const op = "model.ReservationFromRecord"

	if err := rec.missing("reservation_id", "hotel_id", "customer_id", "check_in", "check_out"); err != nil {
		return Reservation{}, apperror.Wrap(apperror.KindValidation, op, "invalid reservation record", err)
	}

	var (
		r   Reservation
		err error
	)
	if r.ReservationID, err = rec.str("reservation_id"); err != nil {
		return Reservation{}, apperror.Wrap(apperror.KindValidation, op, "invalid reservation record", err)
	}
	if r.HotelID, err = rec.str("hotel_id"); err != nil {
		return Reservation{}, apperror.Wrap(apperror.KindValidation, op, "invalid reservation record", err)
	}
	if r.CustomerID, err = rec.str("customer_id"); err != nil {
		return Reservation{}, apperror.Wrap(apperror.KindValidation, op, "invalid reservation record", err)
	}
	if r.CheckIn, err = rec.date("check_in"); err != nil {
		return Reservation{}, apperror.Wrap(apperror.KindValidation, op, "invalid reservation record", err)
	}
	if r.CheckOut, err = rec.date("check_out"); err != nil {
		return Reservation{}, apperror.Wrap(apperror.KindValidation, op, "invalid reservation record", err)
	}
	if r.RoomNumber, err = rec.optInt("room_number"); err != nil {
		return Reservation{}, apperror.Wrap(apperror.KindValidation, op, "invalid reservation record", err)
	}
	if v, ok := rec["status"]; ok && v != nil {
		s, err := rec.str("status")
		if err != nil {
			return Reservation{}, apperror.Wrap(apperror.KindValidation, op, "invalid reservation record", err)
		}
		r.Status = Status(s)
	}

	return NewReservation(r)
}
