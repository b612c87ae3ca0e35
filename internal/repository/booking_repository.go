package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// BookingRepo provides the read and lifecycle operations on bookings
// that live outside the booking transaction itself: history listing,
// detail lookup and cancellation.  All timestamps are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying sql.DB for callers that need to begin
// transactions spanning multiple repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// HistoryItem is one row of a user's booking history, joined with route,
// operator and bus information for display.
type HistoryItem struct {
	ID             uint64   `json:"id"`
	UUID           string   `json:"uuid"`
	BookedAt       string   `json:"booked_at"`
	FromCity       string   `json:"from_city"`
	ToCity         string   `json:"to_city"`
	DepartureDate  string   `json:"departure_date"`
	DepartureTime  string   `json:"departure_time"`
	ArrivalTime    string   `json:"arrival_time"`
	BusNumber      string   `json:"bus_number"`
	BusType        string   `json:"bus_type"`
	OperatorName   string   `json:"operator"`
	OperatorRating float64  `json:"operator_rating"`
	PassengerCount uint32   `json:"passenger_count"`
	Seats          []string `json:"seats"`
	TotalAmount    float64  `json:"total_amount"`
	PaymentMethod  *string  `json:"payment_method,omitempty"`
	PaymentStatus  string   `json:"payment_status"`
	Status         string   `json:"status"`
}

// PassengerDetail is one passenger inside a booking detail response.
type PassengerDetail struct {
	Name      string  `json:"name"`
	Age       uint32  `json:"age"`
	Gender    string  `json:"gender"`
	SeatLabel string  `json:"seat_label"`
	IDType    *string `json:"id_type,omitempty"`
	IDNumber  *string `json:"id_number,omitempty"`
}

// BookingDetail extends HistoryItem with route distance and the full
// passenger list.  Returned by GetByUUIDForUser and consumed by both
// the detail endpoint and the PDF e-ticket.
type BookingDetail struct {
	HistoryItem
	FromState  string            `json:"from_state"`
	ToState    string            `json:"to_state"`
	DistanceKm uint32            `json:"distance_km"`
	Passengers []PassengerDetail `json:"passengers"`
}

const historyJoin = `
    FROM bookings b
    JOIN bus_schedules bs ON bs.id = b.schedule_id
    JOIN buses bus        ON bus.id = bs.bus_id
    JOIN bus_operators bo ON bo.id = bus.operator_id
    JOIN bus_types bt     ON bt.id = bus.bus_type_id
    JOIN routes rt        ON rt.id = bus.route_id
    JOIN cities fc        ON fc.id = rt.from_city_id
    JOIN cities tc        ON tc.id = rt.to_city_id`

// ListByUser returns a page of the user's bookings, newest first, plus
// the total row count for pagination.  The status filter accepts "all",
// "upcoming" (confirmed, not yet departed), "completed" (departed) and
// "cancelled", mirroring the tabs of the booking-history UI.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64, page, limit int, status string) ([]HistoryItem, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	where := ` WHERE b.user_id = ?`
	args := []interface{}{userID}
	switch strings.ToLower(status) {
	case "", "all":
	case "upcoming":
		where += ` AND bs.departure_date >= UTC_DATE() AND b.booking_status = 'confirmed'`
	case "completed":
		where += ` AND bs.departure_date < UTC_DATE() AND b.booking_status IN ('confirmed','completed')`
	case "cancelled":
		where += ` AND b.booking_status = 'cancelled'`
	default:
		where += ` AND b.booking_status = ?`
		args = append(args, strings.ToLower(status))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+historyJoin+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT b.id, b.uuid, b.created_at,
                 fc.name, tc.name,
                 DATE_FORMAT(bs.departure_date, '%Y-%m-%d'), bs.departure_time, bs.arrival_time,
                 bus.bus_number, bt.name, bo.name, bo.rating,
                 b.passenger_count, b.total_amount, b.payment_method,
                 b.payment_status, b.booking_status` +
		historyJoin + where +
		` ORDER BY b.created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]HistoryItem, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var it HistoryItem
		var booked time.Time
		var payMethod sql.NullString
		if err := rows.Scan(
			&it.ID, &it.UUID, &booked,
			&it.FromCity, &it.ToCity,
			&it.DepartureDate, &it.DepartureTime, &it.ArrivalTime,
			&it.BusNumber, &it.BusType, &it.OperatorName, &it.OperatorRating,
			&it.PassengerCount, &it.TotalAmount, &payMethod,
			&it.PaymentStatus, &it.Status,
		); err != nil {
			return nil, 0, err
		}
		it.BookedAt = booked.UTC().Format(time.RFC3339)
		if payMethod.Valid {
			pm := payMethod.String
			it.PaymentMethod = &pm
		}
		it.Seats = []string{}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(items) == 0 {
		return items, total, nil
	}

	// Seats come from passengers rather than booking_seats so cancelled
	// bookings still show what was booked.
	ids := make([]interface{}, 0, len(items))
	placeholders := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
		placeholders = append(placeholders, "?")
	}
	seatQ := `SELECT booking_id, seat_label FROM passengers
              WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)
              ORDER BY booking_id, id`
	srows, err := r.db.QueryContext(ctx, seatQ, ids...)
	if err != nil {
		return nil, 0, err
	}
	defer srows.Close()
	for srows.Next() {
		var bid uint64
		var label string
		if err := srows.Scan(&bid, &label); err != nil {
			return nil, 0, err
		}
		if idx, ok := index[bid]; ok {
			items[idx].Seats = append(items[idx].Seats, label)
		}
	}
	return items, total, srows.Err()
}

// GetByUUIDForUser loads a single booking with journey, operator and
// passenger details.  Ownership is enforced in the query, so a booking
// belonging to someone else surfaces as sql.ErrNoRows.
func (r *BookingRepo) GetByUUIDForUser(ctx context.Context, uuid string, userID uint64) (*BookingDetail, error) {
	q := `SELECT b.id, b.uuid, b.created_at,
                 fc.name, fc.state, tc.name, tc.state,
                 DATE_FORMAT(bs.departure_date, '%Y-%m-%d'), bs.departure_time, bs.arrival_time,
                 bus.bus_number, bt.name, bo.name, bo.rating, rt.distance_km,
                 b.passenger_count, b.total_amount, b.payment_method,
                 b.payment_status, b.booking_status` +
		historyJoin +
		` WHERE b.uuid = ? AND b.user_id = ?`
	var det BookingDetail
	var booked time.Time
	var payMethod sql.NullString
	err := r.db.QueryRowContext(ctx, q, uuid, userID).Scan(
		&det.ID, &det.UUID, &booked,
		&det.FromCity, &det.FromState, &det.ToCity, &det.ToState,
		&det.DepartureDate, &det.DepartureTime, &det.ArrivalTime,
		&det.BusNumber, &det.BusType, &det.OperatorName, &det.OperatorRating, &det.DistanceKm,
		&det.PassengerCount, &det.TotalAmount, &payMethod,
		&det.PaymentStatus, &det.Status,
	)
	if err != nil {
		return nil, err
	}
	det.BookedAt = booked.UTC().Format(time.RFC3339)
	if payMethod.Valid {
		pm := payMethod.String
		det.PaymentMethod = &pm
	}
	det.Seats = []string{}
	det.Passengers = []PassengerDetail{}

	const pq = `SELECT name, age, gender, seat_label, id_type, id_number
                FROM passengers WHERE booking_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, pq, det.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p PassengerDetail
		var idType, idNumber sql.NullString
		if err := rows.Scan(&p.Name, &p.Age, &p.Gender, &p.SeatLabel, &idType, &idNumber); err != nil {
			return nil, err
		}
		if idType.Valid {
			v := idType.String
			p.IDType = &v
		}
		if idNumber.Valid {
			v := idNumber.String
			p.IDNumber = &v
		}
		det.Seats = append(det.Seats, p.SeatLabel)
		det.Passengers = append(det.Passengers, p)
	}
	return &det, rows.Err()
}

// Cancel cancels a confirmed booking before departure and restores the
// schedule's seat inventory.  The whole sequence runs in one transaction
// under the same locking discipline as booking creation: the booking row
// and then the schedule row are locked, seats are released by deleting
// booking_seats rows, and the available counter is incremented with a
// total_seats guard.  Returns the number of seats released.
//
// Errors: sql.ErrNoRows when the booking does not exist, ErrForbidden
// when it belongs to another user, ErrConflict when it is not confirmed
// or the bus has already departed.
func (r *BookingRepo) Cancel(ctx context.Context, uuid string, userID uint64, reason string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const sel = `SELECT id, user_id, schedule_id, booking_status
                 FROM bookings WHERE uuid = ? FOR UPDATE`
	var (
		bookingID  uint64
		ownerID    uint64
		scheduleID uint64
		status     string
	)
	if err := tx.QueryRowContext(ctx, sel, uuid).Scan(&bookingID, &ownerID, &scheduleID, &status); err != nil {
		return 0, err
	}
	if ownerID != userID {
		return 0, ErrForbidden
	}
	if status != "confirmed" {
		return 0, ErrConflict
	}

	// Lock the schedule row before touching seat rows, matching the lock
	// order of the booking transaction.
	const schedQ = `SELECT DATE_FORMAT(departure_date, '%Y-%m-%d'), departure_time
                    FROM bus_schedules WHERE id = ? FOR UPDATE`
	var depDate, depTime string
	if err := tx.QueryRowContext(ctx, schedQ, scheduleID).Scan(&depDate, &depTime); err != nil {
		return 0, err
	}
	if dep, err := time.Parse("2006-01-02 15:04:05", depDate+" "+depTime); err == nil {
		if !dep.After(time.Now().UTC()) {
			return 0, ErrConflict
		}
	}

	const upd = `UPDATE bookings
                 SET booking_status = 'cancelled', payment_status = 'refunded',
                     cancellation_reason = ?, cancelled_at = UTC_TIMESTAMP()
                 WHERE id = ?`
	if _, err := tx.ExecContext(ctx, upd, nullableStr(reason), bookingID); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM booking_seats WHERE booking_id = ?`, bookingID)
	if err != nil {
		return 0, err
	}
	released64, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	released := int(released64)

	if released > 0 {
		const inc = `UPDATE bus_schedules
                     SET available_seats = available_seats + ?
                     WHERE id = ? AND available_seats + ? <= total_seats`
		incRes, err := tx.ExecContext(ctx, inc, released, scheduleID, released)
		if err != nil {
			return 0, err
		}
		if n, err := incRes.RowsAffected(); err != nil {
			return 0, err
		} else if n == 0 {
			// Restoring these seats would exceed capacity; the inventory
			// is inconsistent and the cancellation must not make it worse.
			return 0, errors.New("seat counter restore exceeds capacity")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return released, nil
}

func nullableStr(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
