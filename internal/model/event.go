package model

import (
	"fmt"
	"time"
)

// EventType は予約イベントの種類を表します
type EventType string

const (
	// EventReservationCreated は予約が作成されたことを表します
	EventReservationCreated EventType = "reservation.created"
	// EventReservationCanceled は予約がキャンセルされたことを表します
	EventReservationCanceled EventType = "reservation.canceled"
)

// ReservationEvent は予約の作成・キャンセル時に発行されるイベントです
type ReservationEvent struct {
	Type          EventType `json:"type"`
	ReservationID string    `json:"reservation_id"`
	HotelID       string    `json:"hotel_id"`
	CustomerID    string    `json:"customer_id"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	RoomNumber    *int      `json:"room_number,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewReservationEvent は予約からイベントを作成します
func NewReservationEvent(eventType EventType, r Reservation, occurredAt time.Time) ReservationEvent {
	return ReservationEvent{
		Type:          eventType,
		ReservationID: r.ReservationID,
		HotelID:       r.HotelID,
		CustomerID:    r.CustomerID,
		CheckIn:       FormatDate(r.CheckIn),
		CheckOut:      FormatDate(r.CheckOut),
		RoomNumber:    r.RoomNumber,
		OccurredAt:    occurredAt,
	}
}

// Message はイベントを1行の人が読める形式で返します
func (e ReservationEvent) Message() string {
	switch e.Type {
	case EventReservationCreated:
		return fmt.Sprintf("Reservation confirmed | reservation_id=%s | hotel_id=%s | customer_id=%s | stay=%s..%s",
			e.ReservationID, e.HotelID, e.CustomerID, e.CheckIn, e.CheckOut)
	case EventReservationCanceled:
		return fmt.Sprintf("Reservation canceled | reservation_id=%s | hotel_id=%s | customer_id=%s",
			e.ReservationID, e.HotelID, e.CustomerID)
	default:
		return fmt.Sprintf("Reservation event %s | reservation_id=%s", e.Type, e.ReservationID)
	}
}
