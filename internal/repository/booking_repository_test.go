package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockBookingRepo(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBookingRepo(db), mock
}

func futureDeparture() (string, string) {
	dep := time.Now().UTC().Add(48 * time.Hour)
	return dep.Format("2006-01-02"), dep.Format("15:04:05")
}

func TestCancelRestoresSeats(t *testing.T) {
	repo, mock := newMockBookingRepo(t)
	depDate, depTime := futureDeparture()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, user_id, schedule_id, booking_status").
		WithArgs("uuid-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "schedule_id", "booking_status"}).
			AddRow(9, 3, 7, "confirmed"))
	mock.ExpectQuery(`SELECT DATE_FORMAT\(departure_date`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"departure_date", "departure_time"}).
			AddRow(depDate, depTime))
	mock.ExpectExec("UPDATE bookings").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM booking_seats").
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE bus_schedules").
		WithArgs(2, uint64(7), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	released, err := repo.Cancel(context.Background(), "uuid-1", 3, "change of plans")
	require.NoError(t, err)
	assert.Equal(t, 2, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRejectsForeignBooking(t *testing.T) {
	repo, mock := newMockBookingRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, user_id, schedule_id, booking_status").
		WithArgs("uuid-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "schedule_id", "booking_status"}).
			AddRow(9, 42, 7, "confirmed"))
	mock.ExpectRollback()

	_, err := repo.Cancel(context.Background(), "uuid-1", 3, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCancelRejectsNonConfirmed(t *testing.T) {
	repo, mock := newMockBookingRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, user_id, schedule_id, booking_status").
		WithArgs("uuid-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "schedule_id", "booking_status"}).
			AddRow(9, 3, 7, "cancelled"))
	mock.ExpectRollback()

	_, err := repo.Cancel(context.Background(), "uuid-1", 3, "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCancelRejectsDepartedBus(t *testing.T) {
	repo, mock := newMockBookingRepo(t)
	past := time.Now().UTC().Add(-2 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, user_id, schedule_id, booking_status").
		WithArgs("uuid-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "schedule_id", "booking_status"}).
			AddRow(9, 3, 7, "confirmed"))
	mock.ExpectQuery(`SELECT DATE_FORMAT\(departure_date`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"departure_date", "departure_time"}).
			AddRow(past.Format("2006-01-02"), past.Format("15:04:05")))
	mock.ExpectRollback()

	_, err := repo.Cancel(context.Background(), "uuid-1", 3, "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCancelUnknownBooking(t *testing.T) {
	repo, mock := newMockBookingRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, user_id, schedule_id, booking_status").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "schedule_id", "booking_status"}))
	mock.ExpectRollback()

	_, err := repo.Cancel(context.Background(), "missing", 3, "")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
