package model

import (
	"github.com/uma-arai/sbcntr-hotel/internal/common/apperror"
)

// Hotel はホテルのドメインモデルです
// TotalRooms は同時に有効な予約数のピークを下回ってはいけません（サービス層で保証）
type Hotel struct {
	HotelID    string   `json:"hotel_id" validate:"notblank"`
	Name       string   `json:"name" validate:"notblank"`
	City       string   `json:"city" validate:"notblank"`
	TotalRooms int      `json:"total_rooms" validate:"gt=0"`
	Address    *string  `json:"address"`
	Rating     *float64 `json:"rating" validate:"omitnil,gte=0,lte=5"`
}

// NewHotel は検証済みのHotelを返します
// Address は前後の空白を除き、空の場合は未指定になります
func NewHotel(h Hotel) (Hotel, error) {
	h.Address = normalizeOpt(h.Address, true)
	if err := h.Validate(); err != nil {
		return Hotel{}, err
	}
	return h, nil
}

// Validate はHotelの不変条件を検証します
func (h Hotel) Validate() error {
	return validateStruct("model.Hotel", h)
}

func (h Hotel) EntityID() string {
	return h.HotelID
}

// ToRecord はHotelをレコードに変換します
func (h Hotel) ToRecord() Record {
	rec := Record{
		"hotel_id":    h.HotelID,
		"name":        h.Name,
		"city":        h.City,
		"total_rooms": h.TotalRooms,
		"address":     nil,
		"rating":      nil,
	}
	if h.Address != nil {
		rec["address"] = *h.Address
	}
	if h.Rating != nil {
		rec["rating"] = *h.Rating
	}
	return rec
}

// HotelFromRecord はレコードからHotelを復元し、再検証します
func HotelFromRecord(rec Record) (Hotel, error) {
	const op = "model.HotelFromRecord"

	if err := rec.missing("hotel_id", "name", "city", "total_rooms"); err != nil {
		return Hotel{}, apperror.Wrap(apperror.KindValidation, op, "invalid hotel record", err)
	}

	var (
		h   Hotel
		err error
	)
	if h.HotelID, err = rec.str("hotel_id"); err != nil {
		return Hotel{}, apperror.Wrap(apperror.KindValidation, op, "invalid hotel record", err)
	}
	if h.Name, err = rec.str("name"); err != nil {
		return Hotel{}, apperror.Wrap(apperror.KindValidation, op, "invalid hotel record", err)
	}
	if h.City, err = rec.str("city"); err != nil {
		return Hotel{}, apperror.Wrap(apperror.KindValidation, op, "invalid hotel record", err)
	}
	if h.TotalRooms, err = rec.integer("total_rooms"); err != nil {
		return Hotel{}, apperror.Wrap(apperror.KindValidation, op, "invalid hotel record", err)
	}
	if h.Address, err = rec.optStr("address", true); err != nil {
		return Hotel{}, apperror.Wrap(apperror.KindValidation, op, "invalid hotel record", err)
	}
	if h.Rating, err = rec.optFloat("rating"); err != nil {
		return Hotel{}, apperror.Wrap(apperror.KindValidation, op, "invalid hotel record", err)
	}

	return NewHotel(h)
}
