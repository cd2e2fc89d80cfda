package service

import (
	"tourbook/internal/calendar"
)

const (
	MsgReservationsError = "Error loading reservations"
	MsgNoReservations    = "No reservations found"
	MsgPaymentError      = "Error loading payment data"
	MsgNoPayment         = "No payment data found."
	MsgMapError          = "Error loading map data"
	MsgNoPlaces          = "No places found"

	ReceiptHeading = "Reservation confirmed"
	MapHeading     = "Where you’ll tour"
	PriceUnit      = "/Person"
	ChatButton     = "Message Tourist"
)

// PostSummary is the post card shared by the reservation list and receipt.
type PostSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Image     string `json:"image"`
	Dates     string `json:"dates"`
	Price     string `json:"price"`
	PriceUnit string `json:"price_unit"`
	Liked     *bool  `json:"liked,omitempty"`
}

type ReservationRow struct {
	Number   string `json:"number"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Date     string `json:"date"`
	Tourist  int    `json:"tourist"`
	Amount   string `json:"amount"`
	State    string `json:"state"`
	ChatURL  string `json:"chat_url"`
}

type ReservationListView struct {
	Status       string           `json:"status"`
	Message      string           `json:"message,omitempty"`
	Post         *PostSummary     `json:"post,omitempty"`
	Reservations []ReservationRow `json:"reservations"`
}

type ReservationInfo struct {
	Number   string `json:"number"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Tourist  string `json:"tourist"`
}

type PaymentInfo struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
	Method string `json:"method"`
}

type PaymentReceiptView struct {
	Status      string           `json:"status"`
	Message     string           `json:"message,omitempty"`
	Heading     string           `json:"heading,omitempty"`
	Post        *PostSummary     `json:"post,omitempty"`
	Reservation *ReservationInfo `json:"reservation,omitempty"`
	Payment     *PaymentInfo     `json:"payment,omitempty"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type DayTab struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

type Marker struct {
	Label    string `json:"label"`
	Title    string `json:"title"`
	Position LatLng `json:"position"`
}

type PlaceItem struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type MapView struct {
	Status      string      `json:"status"`
	Message     string      `json:"message,omitempty"`
	Heading     string      `json:"heading,omitempty"`
	ScriptURL   string      `json:"script_url,omitempty"`
	Center      *LatLng     `json:"center,omitempty"`
	Zoom        int         `json:"zoom,omitempty"`
	SelectedDay int         `json:"selected_day"`
	Days        []DayTab    `json:"days,omitempty"`
	Markers     []Marker    `json:"markers,omitempty"`
	Places      []PlaceItem `json:"places,omitempty"`
}

// SelectionView is the calendar state returned after every interaction.
type SelectionView struct {
	SessionID string          `json:"session_id"`
	Phase     string          `json:"phase"`
	Start     string          `json:"start,omitempty"`
	End       string          `json:"end,omitempty"`
	Days      int             `json:"days"`
	Summary   string          `json:"summary,omitempty"`
	Outcome   string          `json:"outcome,omitempty"`
	Warning   string          `json:"warning,omitempty"`
	Month     *calendar.Month `json:"month,omitempty"`
}
