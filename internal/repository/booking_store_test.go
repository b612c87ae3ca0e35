package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftbus/bus-booking-api/internal/booking"
)

func newMockStore(t *testing.T) (*BookingStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBookingStore(db), mock
}

func TestBookingStoreHappyPath(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, total_seats, available_seats, status FROM bus_schedules").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "total_seats", "available_seats", "status"}).
			AddRow(7, 40, 12, "scheduled"))
	mock.ExpectQuery("SELECT seat_label FROM booking_seats").
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_label"}).AddRow("B1"))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(55, 1))
	mock.ExpectExec("INSERT INTO booking_seats").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectQuery("SELECT created_at FROM bookings").
		WithArgs(uint64(55)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectExec("INSERT INTO passengers").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectExec("UPDATE bus_schedules").
		WithArgs(2, uint64(7), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	sched, err := tx.ScheduleForUpdate(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 12, sched.AvailableSeats)
	assert.Equal(t, "scheduled", sched.Status)

	taken, err := tx.TakenSeats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"B1"}, taken)

	b := &booking.Booking{
		UUID:           "u-1",
		UserID:         3,
		ScheduleID:     7,
		SeatLabels:     []string{"A1", "A2"},
		PassengerCount: 2,
		TotalAmount:    900,
		Status:         booking.StatusConfirmed,
		PaymentStatus:  booking.PaymentPaid,
		PaymentMethod:  "online",
	}
	require.NoError(t, tx.InsertBooking(ctx, b))
	assert.Equal(t, uint64(55), b.ID)
	assert.Equal(t, now, b.CreatedAt)

	passengers := []booking.Passenger{
		{BookingID: 55, Name: "One", Age: 30, Gender: "female", SeatLabel: "A1"},
		{BookingID: 55, Name: "Two", Age: 31, Gender: "male", SeatLabel: "A2"},
	}
	require.NoError(t, tx.InsertPassengers(ctx, 55, passengers))
	require.NoError(t, tx.DecrementSeats(ctx, 7, 2))
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleForUpdateMissing(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, total_seats, available_seats, status FROM bus_schedules").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "total_seats", "available_seats", "status"}))
	mock.ExpectRollback()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.ScheduleForUpdate(ctx, 404)
	assert.ErrorIs(t, err, booking.ErrScheduleNotFound)
	require.NoError(t, tx.Rollback())
}

func TestInsertBookingDuplicateSeat(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(56, 1))
	mock.ExpectExec("INSERT INTO booking_seats").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7-A1'"})
	mock.ExpectRollback()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	b := &booking.Booking{UUID: "u-2", UserID: 3, ScheduleID: 7, SeatLabels: []string{"A1"}, PassengerCount: 1}
	err = tx.InsertBooking(ctx, b)
	assert.ErrorIs(t, err, booking.ErrSeatTaken)
	require.NoError(t, tx.Rollback())
}

func TestDecrementSeatsGuard(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bus_schedules").
		WithArgs(5, uint64(7), 5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	err = tx.DecrementSeats(ctx, 7, 5)
	assert.ErrorIs(t, err, booking.ErrInsufficientSeats)
	require.NoError(t, tx.Rollback())
}
