package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Genders accepted for passengers.
var validGenders = map[string]bool{"male": true, "female": true, "other": true}

// Manager runs the booking transaction.  It owns the only write path to a
// schedule's available-seat counter: validation, the capacity and
// seat-uniqueness checks, and the writes all happen inside one unit of
// work so that concurrent submissions for the same schedule can never
// both succeed beyond capacity or claim the same seat.
type Manager struct {
	store          Store
	notifier       Notifier
	maxSeats       int
	defaultPayment string
	timeout        time.Duration
}

// NewManager constructs a Manager.  The notifier may be nil, in which
// case commits are simply not announced.  maxSeats and timeout fall back
// to demo defaults when non-positive.
func NewManager(store Store, notifier Notifier, maxSeats int, defaultPayment string, timeout time.Duration) *Manager {
	if store == nil {
		panic("nil store passed to NewManager")
	}
	if maxSeats <= 0 {
		maxSeats = 6
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if defaultPayment == "" {
		defaultPayment = "online"
	}
	return &Manager{
		store:          store,
		notifier:       notifier,
		maxSeats:       maxSeats,
		defaultPayment: defaultPayment,
		timeout:        timeout,
	}
}

// Submit validates the request, then runs the atomic reserve-and-write
// sequence: re-read the schedule under lock, check capacity, check seat
// uniqueness, insert booking + passengers, decrement the seat counter,
// commit.  Any failure aborts the unit of work so no partial state is
// ever observable.  Only after a successful commit is the notifier
// invoked, best-effort.
func (m *Manager) Submit(ctx context.Context, req Request) (*Result, error) {
	if err := m.validate(req); err != nil {
		return nil, err
	}
	payment := strings.TrimSpace(req.PaymentMethod)
	if payment == "" {
		payment = m.defaultPayment
	}

	// Bound the whole unit of work; a timeout is a failure, not a hang.
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	tx, err := m.store.Begin(ctx)
	if err != nil {
		return nil, m.classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Re-read inside the unit of work; a value read before Begin could be
	// stale and permit overselling under concurrency.
	sched, err := tx.ScheduleForUpdate(ctx, req.ScheduleID)
	if err != nil {
		return nil, m.classify(err)
	}
	if sched.Status != ScheduleActive {
		return nil, fmt.Errorf("%w: schedule %d is %s", ErrScheduleNotFound, req.ScheduleID, sched.Status)
	}

	n := len(req.SeatLabels)
	if sched.AvailableSeats < n {
		return nil, fmt.Errorf("%w: %d requested, %d available", ErrInsufficientSeats, n, sched.AvailableSeats)
	}

	taken, err := tx.TakenSeats(ctx, req.ScheduleID)
	if err != nil {
		return nil, m.classify(err)
	}
	if conflict := overlap(req.SeatLabels, taken); len(conflict) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrSeatTaken, strings.Join(conflict, ", "))
	}

	b := &Booking{
		UUID:           uuid.NewString(),
		UserID:         req.UserID,
		ScheduleID:     req.ScheduleID,
		SeatLabels:     append([]string(nil), req.SeatLabels...),
		PassengerCount: n,
		TotalAmount:    req.TotalAmount,
		Status:         StatusConfirmed,
		PaymentStatus:  PaymentPaid,
		PaymentMethod:  payment,
	}
	if err := tx.InsertBooking(ctx, b); err != nil {
		return nil, m.classify(err)
	}

	passengers := make([]Passenger, 0, n)
	for i, p := range req.Passengers {
		passengers = append(passengers, Passenger{
			BookingID: b.ID,
			Name:      strings.TrimSpace(p.Name),
			Age:       p.Age,
			Gender:    p.Gender,
			SeatLabel: req.SeatLabels[i], // positional pairing
			IDType:    p.IDType,
			IDNumber:  p.IDNumber,
		})
	}
	if err := tx.InsertPassengers(ctx, b.ID, passengers); err != nil {
		return nil, m.classify(err)
	}

	if err := tx.DecrementSeats(ctx, req.ScheduleID, n); err != nil {
		return nil, m.classify(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, m.classify(err)
	}
	committed = true

	if m.notifier != nil {
		// Fire-and-forget: runs after commit on a fresh context so an
		// almost-expired transaction deadline cannot starve it.
		if err := m.notifier.BookingCreated(context.WithoutCancel(ctx), req.ScheduleID, b.SeatLabels); err != nil {
			log.Printf("booking: notify failed for schedule %d: %v", req.ScheduleID, err)
		}
	}
	return &Result{Booking: b, Passengers: passengers}, nil
}

// validate enforces the structural rules of a booking request.  Every
// violation maps to ErrInvalidRequest with a specific reason.
func (m *Manager) validate(req Request) error {
	if req.ScheduleID == 0 {
		return fmt.Errorf("%w: schedule id is required", ErrInvalidRequest)
	}
	n := len(req.SeatLabels)
	if n == 0 {
		return fmt.Errorf("%w: at least one seat is required", ErrInvalidRequest)
	}
	if n > m.maxSeats {
		return fmt.Errorf("%w: at most %d seats per booking", ErrInvalidRequest, m.maxSeats)
	}
	seen := make(map[string]struct{}, n)
	for _, label := range req.SeatLabels {
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("%w: empty seat label", ErrInvalidRequest)
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("%w: duplicate seat label %q", ErrInvalidRequest, label)
		}
		seen[label] = struct{}{}
	}
	if len(req.Passengers) != n {
		return fmt.Errorf("%w: %d passengers for %d seats", ErrInvalidRequest, len(req.Passengers), n)
	}
	for i, p := range req.Passengers {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: passenger %d has no name", ErrInvalidRequest, i+1)
		}
		if p.Age <= 0 {
			return fmt.Errorf("%w: passenger %d has invalid age", ErrInvalidRequest, i+1)
		}
		if !validGenders[p.Gender] {
			return fmt.Errorf("%w: passenger %d has invalid gender %q", ErrInvalidRequest, i+1, p.Gender)
		}
	}
	if req.TotalAmount < 0 {
		return fmt.Errorf("%w: total amount must not be negative", ErrInvalidRequest)
	}
	return nil
}

// classify maps storage-layer failures onto the package's sentinels.
// Business sentinels raised inside the unit of work pass through;
// deadline expiry becomes ErrTimeout; everything else is reported as
// the storage layer being unavailable (safe to retry either way, since
// nothing was committed).
func (m *Manager) classify(err error) error {
	switch {
	case errors.Is(err, ErrScheduleNotFound),
		errors.Is(err, ErrSeatTaken),
		errors.Is(err, ErrInsufficientSeats):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
}

// overlap returns the requested labels that already appear in taken,
// preserving request order.
func overlap(requested, taken []string) []string {
	if len(taken) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(taken))
	for _, s := range taken {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range requested {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
