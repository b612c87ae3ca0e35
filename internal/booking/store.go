package booking

import "context"

// Store opens atomic units of work against the persistence layer.  The
// manager is written once against this interface; any storage technology
// may implement it as long as reads inside one unit observe that unit's
// own writes and are not satisfied from a stale cache.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one atomic unit of work.  All reads and writes between Begin and
// Commit become visible together or not at all.  Implementations must
// make ScheduleForUpdate block out concurrent bookings for the same
// schedule until Commit or Rollback (row lock, serialized queue, or an
// equivalent compare-and-swap).
type Tx interface {
	// ScheduleForUpdate re-reads the schedule's seat counters inside the
	// unit of work, acquiring whatever lock the backend uses to serialize
	// bookings per schedule.  Returns ErrScheduleNotFound (possibly
	// wrapped) when no such schedule exists.
	ScheduleForUpdate(ctx context.Context, scheduleID uint64) (*Schedule, error)

	// TakenSeats lists seat labels claimed by active (non-cancelled)
	// bookings for the schedule, as observed inside this unit of work.
	TakenSeats(ctx context.Context, scheduleID uint64) ([]string, error)

	// InsertBooking persists the booking row and its seat claims,
	// populating b.ID and b.CreatedAt.  Implementations must surface a
	// seat-uniqueness violation as ErrSeatTaken.
	InsertBooking(ctx context.Context, b *Booking) error

	// InsertPassengers persists one row per passenger.  Always called
	// after InsertBooking within the same unit.
	InsertPassengers(ctx context.Context, bookingID uint64, passengers []Passenger) error

	// DecrementSeats reduces the schedule's available seat count by n.
	// Implementations must guard the decrement (available_seats >= n)
	// and return ErrInsufficientSeats when the guard fails, as a last
	// line of defense independent of the manager's own capacity check.
	DecrementSeats(ctx context.Context, scheduleID uint64, n int) error

	Commit() error
	Rollback() error
}

// Notifier receives a fire-and-forget signal after a successful commit.
// Its failure is logged and never affects the booking's outcome.
type Notifier interface {
	BookingCreated(ctx context.Context, scheduleID uint64, seatLabels []string) error
}

// Submitter is the capability handlers depend on; *Manager implements it.
type Submitter interface {
	Submit(ctx context.Context, req Request) (*Result, error)
}
