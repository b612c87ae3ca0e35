package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/swiftbus/bus-booking-api/internal/booking"
)

// BookingStore is the MySQL implementation of booking.Store.  One
// BookingStore wraps the shared pool; each Begin opens a dedicated
// transaction whose row lock on bus_schedules serializes all booking
// attempts for a schedule.
type BookingStore struct {
	db *sql.DB
}

// NewBookingStore returns a BookingStore bound to the given database.
func NewBookingStore(db *sql.DB) *BookingStore { return &BookingStore{db: db} }

// Begin opens the atomic unit of work for one booking attempt.
func (s *BookingStore) Begin(ctx context.Context) (booking.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &bookingTx{tx: tx}, nil
}

// bookingTx implements booking.Tx over one *sql.Tx.
type bookingTx struct {
	tx *sql.Tx
}

// ScheduleForUpdate re-reads the schedule's counters with FOR UPDATE so
// the row stays locked until Commit or Rollback.  Concurrent bookings on
// the same schedule queue here, which is exactly the serialization the
// capacity check depends on.
func (t *bookingTx) ScheduleForUpdate(ctx context.Context, scheduleID uint64) (*booking.Schedule, error) {
	const q = `SELECT id, total_seats, available_seats, status
               FROM bus_schedules WHERE id = ? FOR UPDATE`
	var s booking.Schedule
	err := t.tx.QueryRowContext(ctx, q, scheduleID).Scan(&s.ID, &s.TotalSeats, &s.AvailableSeats, &s.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", booking.ErrScheduleNotFound, scheduleID)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// TakenSeats lists seat labels claimed by active bookings.  Cancelled
// bookings do not appear because cancellation deletes their seat rows.
func (t *bookingTx) TakenSeats(ctx context.Context, scheduleID uint64) ([]string, error) {
	const q = `SELECT seat_label FROM booking_seats WHERE schedule_id = ? ORDER BY seat_label`
	rows, err := t.tx.QueryContext(ctx, q, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// InsertBooking writes the bookings row and one booking_seats row per
// label.  The unique key on (schedule_id, seat_label) is the last line
// of defense against double-selling; a 1062 duplicate-key error from it
// is surfaced as booking.ErrSeatTaken.
func (t *bookingTx) InsertBooking(ctx context.Context, b *booking.Booking) error {
	const q = `INSERT INTO bookings
               (uuid, user_id, schedule_id, passenger_count, total_amount,
                booking_status, payment_status, payment_method)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q,
		b.UUID, b.UserID, b.ScheduleID, b.PassengerCount, b.TotalAmount,
		b.Status, b.PaymentStatus, b.PaymentMethod)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	seatQ := `INSERT INTO booking_seats (booking_id, schedule_id, seat_label) VALUES `
	args := make([]interface{}, 0, len(b.SeatLabels)*3)
	for i, label := range b.SeatLabels {
		if i > 0 {
			seatQ += ","
		}
		seatQ += "(?, ?, ?)"
		args = append(args, b.ID, b.ScheduleID, label)
	}
	if _, err := t.tx.ExecContext(ctx, seatQ, args...); err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %v", booking.ErrSeatTaken, err)
		}
		return err
	}

	// Query back the DB-assigned creation timestamp.
	const sel = `SELECT created_at FROM bookings WHERE id = ?`
	return t.tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt)
}

// InsertPassengers bulk-inserts all passenger rows in one statement.
func (t *bookingTx) InsertPassengers(ctx context.Context, bookingID uint64, passengers []booking.Passenger) error {
	if len(passengers) == 0 {
		return nil
	}
	q := `INSERT INTO passengers (booking_id, name, age, gender, seat_label, id_type, id_number) VALUES `
	args := make([]interface{}, 0, len(passengers)*7)
	for i, p := range passengers {
		if i > 0 {
			q += ","
		}
		q += "(?, ?, ?, ?, ?, ?, ?)"
		args = append(args, bookingID, p.Name, p.Age, p.Gender, p.SeatLabel,
			nullable(p.IDType), nullable(p.IDNumber))
	}
	_, err := t.tx.ExecContext(ctx, q, args...)
	return err
}

// DecrementSeats applies the guarded decrement.  The WHERE guard repeats
// the capacity condition so that even if the manager's check were ever
// bypassed the counter cannot go negative; zero affected rows means the
// guard failed.
func (t *bookingTx) DecrementSeats(ctx context.Context, scheduleID uint64, n int) error {
	const q = `UPDATE bus_schedules
               SET available_seats = available_seats - ?
               WHERE id = ? AND available_seats >= ?`
	res, err := t.tx.ExecContext(ctx, q, n, scheduleID, n)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: seat counter guard rejected decrement of %d", booking.ErrInsufficientSeats, n)
	}
	return nil
}

func (t *bookingTx) Commit() error   { return t.tx.Commit() }
func (t *bookingTx) Rollback() error { return t.tx.Rollback() }

// isDuplicateKey reports whether err is a MySQL 1062 unique-key violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// nullable maps an empty string to NULL for optional columns.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
