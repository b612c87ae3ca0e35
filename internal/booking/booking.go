package booking

import "time"

// Booking and payment status values written on commit.  The demo flow
// confirms and marks paid immediately; pending/failed exist for the
// cancellation and payment transitions handled outside this package.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"

	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
	PaymentFailed   = "failed"
)

// Schedule statuses relevant to booking: anything other than "scheduled"
// refuses new bookings, and "cancelled" is reported as not found.
const (
	ScheduleActive    = "scheduled"
	ScheduleCancelled = "cancelled"
)

// Request is a validated booking submission.  SeatLabels and Passengers
// are paired positionally: passenger i receives SeatLabels[i].  The
// total amount is trusted as supplied; pricing is computed upstream.
type Request struct {
	UserID        uint64           `json:"-"`
	ScheduleID    uint64           `json:"scheduleId"`
	SeatLabels    []string         `json:"seatLabels"`
	Passengers    []PassengerInput `json:"passengers"`
	TotalAmount   float64          `json:"totalAmount"`
	PaymentMethod string           `json:"paymentMethod,omitempty"`
}

// PassengerInput carries one traveller's details from the request body.
type PassengerInput struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	IDType   string `json:"idType,omitempty"`
	IDNumber string `json:"idNumber,omitempty"`
}

// Schedule is the slice of a bus_schedules row the transaction needs:
// the capacity counter and the status, re-read under lock inside the
// unit of work so that no stale value can permit overselling.
type Schedule struct {
	ID             uint64
	TotalSeats     int
	AvailableSeats int
	Status         string
}

// Booking is the committed record returned to the caller.
type Booking struct {
	ID             uint64    `json:"id"`
	UUID           string    `json:"uuid"`
	UserID         uint64    `json:"user_id"`
	ScheduleID     uint64    `json:"schedule_id"`
	SeatLabels     []string  `json:"seats"`
	PassengerCount int       `json:"passenger_count"`
	TotalAmount    float64   `json:"total_amount"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"payment_status"`
	PaymentMethod  string    `json:"payment_method"`
	CreatedAt      time.Time `json:"created_at"`
}

// Passenger is one committed passenger row.
type Passenger struct {
	ID        uint64 `json:"id"`
	BookingID uint64 `json:"booking_id"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	SeatLabel string `json:"seat_label"`
	IDType    string `json:"id_type,omitempty"`
	IDNumber  string `json:"id_number,omitempty"`
}

// Result bundles the booking and its passengers after a successful
// commit.  On failure no partial result is ever returned.
type Result struct {
	Booking    *Booking    `json:"booking"`
	Passengers []Passenger `json:"passengers"`
}
