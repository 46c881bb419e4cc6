package batch

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// Input は予約バッチの入力です。customers, hotels, bookings, cancellations の順に処理します
type Input struct {
	Customers     []model.Record `json:"customers"`
	Hotels        []model.Record `json:"hotels"`
	Bookings      []Booking      `json:"bookings"`
	Cancellations []string       `json:"cancellations"`
}

// Booking は予約の作成要求です。日付は YYYY-MM-DD 形式です
type Booking struct {
	ReservationID string `json:"reservation_id,omitempty"`
	CustomerID    string `json:"customer_id"`
	HotelID       string `json:"hotel_id"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	RoomNumber    *int   `json:"room_number,omitempty"`
}

// ParseInput はJSONの入力を解析します
func ParseInput(data []byte) (Input, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var input Input
	if err := dec.Decode(&input); err != nil {
		return Input{}, fmt.Errorf("failed to parse batch input: %w", err)
	}
	return input, nil
}

// Size は入力に含まれる処理対象の件数です
func (in Input) Size() int {
	return len(in.Customers) + len(in.Hotels) + len(in.Bookings) + len(in.Cancellations)
}
