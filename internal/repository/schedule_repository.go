package repository

import (
	"context"
	"database/sql"
)

// ScheduleRepo serves schedule search and the per-schedule seat map.
// Writes to schedules happen elsewhere: the booking transaction and the
// seeder are the only writers of available_seats.
type ScheduleRepo struct{ DB *sql.DB }

func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{DB: db} }

// ScheduleSearch holds the filters of a schedule search.  Date is the
// departure date in "2006-01-02" form.
type ScheduleSearch struct {
	FromCityID uint64
	ToCityID   uint64
	Date       string
}

// ScheduleRow is one search result joined with bus, operator and route
// information, shaped for direct JSON serialization.
type ScheduleRow struct {
	ID              uint64  `json:"id"`
	FromCity        string  `json:"from_city"`
	ToCity          string  `json:"to_city"`
	DepartureDate   string  `json:"departure_date"`
	DepartureTime   string  `json:"departure_time"`
	ArrivalTime     string  `json:"arrival_time"`
	DurationMinutes uint32  `json:"duration_minutes"`
	DistanceKm      uint32  `json:"distance_km"`
	BusNumber       string  `json:"bus_number"`
	BusType         string  `json:"bus_type"`
	Amenities       *string `json:"amenities,omitempty"`
	OperatorName    string  `json:"operator"`
	OperatorRating  float64 `json:"operator_rating"`
	TotalReviews    uint32  `json:"total_reviews"`
	BasePrice       float64 `json:"base_price"`
	DynamicPrice    float64 `json:"price"`
	TotalSeats      uint32  `json:"total_seats"`
	AvailableSeats  uint32  `json:"available_seats"`
}

// Search lists bookable departures between two cities on a date,
// cheapest first.  Only schedules still in 'scheduled' state on active
// buses appear; sold-out departures are included so clients can show
// them greyed out.
func (r *ScheduleRepo) Search(ctx context.Context, q ScheduleSearch) ([]ScheduleRow, error) {
	const sqlQ = `SELECT
            bs.id,
            fc.name, tc.name,
            DATE_FORMAT(bs.departure_date, '%Y-%m-%d'), bs.departure_time, bs.arrival_time,
            rt.estimated_duration_minutes, rt.distance_km,
            bus.bus_number, bt.name, bt.amenities,
            bo.name, bo.rating, bo.total_reviews,
            bs.base_price, bs.dynamic_price,
            bs.total_seats, bs.available_seats
        FROM bus_schedules bs
        JOIN buses bus        ON bus.id = bs.bus_id
        JOIN bus_operators bo ON bo.id = bus.operator_id
        JOIN bus_types bt     ON bt.id = bus.bus_type_id
        JOIN routes rt        ON rt.id = bus.route_id
        JOIN cities fc        ON fc.id = rt.from_city_id
        JOIN cities tc        ON tc.id = rt.to_city_id
        WHERE rt.from_city_id = ? AND rt.to_city_id = ?
          AND bs.departure_date = ?
          AND bs.status = 'scheduled'
          AND bus.status = 'active'
        ORDER BY bs.dynamic_price ASC, bs.departure_time ASC`
	rows, err := r.DB.QueryContext(ctx, sqlQ, q.FromCityID, q.ToCityID, q.Date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ScheduleRow, 0)
	for rows.Next() {
		var s ScheduleRow
		var amenities sql.NullString
		if err := rows.Scan(
			&s.ID,
			&s.FromCity, &s.ToCity,
			&s.DepartureDate, &s.DepartureTime, &s.ArrivalTime,
			&s.DurationMinutes, &s.DistanceKm,
			&s.BusNumber, &s.BusType, &amenities,
			&s.OperatorName, &s.OperatorRating, &s.TotalReviews,
			&s.BasePrice, &s.DynamicPrice,
			&s.TotalSeats, &s.AvailableSeats,
		); err != nil {
			return nil, err
		}
		if amenities.Valid {
			v := amenities.String
			s.Amenities = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SeatMap is the availability snapshot for one schedule.  BookedSeats
// lists labels held by active bookings; anything else is free.  The
// snapshot is advisory only, the booking transaction re-checks under
// lock.
type SeatMap struct {
	ScheduleID     uint64   `json:"schedule_id"`
	BusType        string   `json:"bus_type"`
	TotalSeats     uint32   `json:"total_seats"`
	AvailableSeats uint32   `json:"available_seats"`
	BookedSeats    []string `json:"booked_seats"`
}

// Seats returns the seat map of a schedule, or sql.ErrNoRows when the
// schedule does not exist.
func (r *ScheduleRepo) Seats(ctx context.Context, scheduleID uint64) (*SeatMap, error) {
	const headQ = `SELECT bs.id, bt.name, bs.total_seats, bs.available_seats
                   FROM bus_schedules bs
                   JOIN buses bus   ON bus.id = bs.bus_id
                   JOIN bus_types bt ON bt.id = bus.bus_type_id
                   WHERE bs.id = ?`
	var m SeatMap
	if err := r.DB.QueryRowContext(ctx, headQ, scheduleID).
		Scan(&m.ScheduleID, &m.BusType, &m.TotalSeats, &m.AvailableSeats); err != nil {
		return nil, err
	}
	const seatsQ = `SELECT seat_label FROM booking_seats WHERE schedule_id = ? ORDER BY seat_label`
	rows, err := r.DB.QueryContext(ctx, seatsQ, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	m.BookedSeats = []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		m.BookedSeats = append(m.BookedSeats, label)
	}
	return &m, rows.Err()
}
