// Package availability は予約の期間計算を行う純粋関数群です。
// 期間はすべて [check_in, check_out) の半開区間として扱います。
package availability

import (
	"cmp"
	"slices"
	"time"

	"github.com/uma-arai/sbcntr-hotel/internal/common/apperror"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

// ValidateDateRange は check_in と check_out が指定され、check_in < check_out であることを検証します
func ValidateDateRange(checkIn, checkOut time.Time) error {
	const op = "availability.ValidateDateRange"

	if checkIn.IsZero() || checkOut.IsZero() {
		return apperror.Validation(op, "'check_in' and 'check_out' are required")
	}
	if !model.DateOf(checkIn).Before(model.DateOf(checkOut)) {
		return apperror.Validation(op, "'check_in' (%s) must be before 'check_out' (%s)",
			model.FormatDate(checkIn), model.FormatDate(checkOut))
	}
	return nil
}

// Overlaps は [aStart, aEnd) と [bStart, bEnd) が重なるかどうかを返します
// 連泊の境界（一方のチェックアウト日が他方のチェックイン日）は重なりません
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Active は有効な予約のみを返します
func Active(reservations []model.Reservation) []model.Reservation {
	active := make([]model.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if r.IsActive() {
			active = append(active, r)
		}
	}
	return active
}

// ActiveOverlaps は候補期間と重なる有効な予約を返します
func ActiveOverlaps(reservations []model.Reservation, checkIn, checkOut time.Time) ([]model.Reservation, error) {
	if err := ValidateDateRange(checkIn, checkOut); err != nil {
		return nil, err
	}
	checkIn, checkOut = model.DateOf(checkIn), model.DateOf(checkOut)

	var overlapping []model.Reservation
	for _, r := range Active(reservations) {
		if Overlaps(r.CheckIn, r.CheckOut, checkIn, checkOut) {
			overlapping = append(overlapping, r)
		}
	}
	return overlapping, nil
}

// AvailableRooms は候補期間に残っている部屋数を返します
// 部屋は区別しないため、客室数から重なる有効予約数を引いた値になります
func AvailableRooms(totalRooms int, reservations []model.Reservation, checkIn, checkOut time.Time) (int, error) {
	overlapping, err := ActiveOverlaps(reservations, checkIn, checkOut)
	if err != nil {
		return 0, err
	}
	return totalRooms - len(overlapping), nil
}

// HasAvailability は候補期間に1部屋以上空いているかどうかを返します
func HasAvailability(totalRooms int, reservations []model.Reservation, checkIn, checkOut time.Time) (bool, error) {
	available, err := AvailableRooms(totalRooms, reservations, checkIn, checkOut)
	if err != nil {
		return false, err
	}
	return available > 0, nil
}

type event struct {
	date  time.Time
	delta int
}

// PeakConcurrent は有効な予約が同時に重なる最大数をラインスイープで求めます
// 同日のイベントはチェックアウト(-1)をチェックイン(+1)より先に処理します
func PeakConcurrent(reservations []model.Reservation) int {
	active := Active(reservations)
	events := make([]event, 0, 2*len(active))
	for _, r := range active {
		events = append(events, event{date: r.CheckIn, delta: 1}, event{date: r.CheckOut, delta: -1})
	}
	slices.SortFunc(events, func(a, b event) int {
		if c := a.date.Compare(b.date); c != 0 {
			return c
		}
		return cmp.Compare(a.delta, b.delta)
	})

	current, peak := 0, 0
	for _, e := range events {
		current += e.delta
		peak = max(peak, current)
	}
	return peak
}

// BlockingReservations は削除を妨げる予約（有効かつ check_out が today より後）を返します
// check_out が過去の有効予約は妨げになりません
func BlockingReservations(reservations []model.Reservation, today time.Time) []model.Reservation {
	today = model.DateOf(today)

	var blocking []model.Reservation
	for _, r := range Active(reservations) {
		if r.CheckOut.After(today) {
			blocking = append(blocking, r)
		}
	}
	return blocking
}
