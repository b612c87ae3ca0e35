package repository

import (
	"context"
	"database/sql"
)

// StatsRepo computes the aggregate counters shown on the landing page.
type StatsRepo struct{ DB *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{DB: db} }

// Stats is the landing-page counter set.
type Stats struct {
	Cities         int `json:"cities"`
	Operators      int `json:"operators"`
	Routes         int `json:"routes"`
	SchedulesToday int `json:"schedules_today"`
	BookingsTotal  int `json:"bookings_total"`
	SeatsBookedNow int `json:"seats_booked_now"`
}

// Collect runs the counter queries.  Each count is an independent
// statement; a torn read across them is acceptable for display data.
func (r *StatsRepo) Collect(ctx context.Context) (*Stats, error) {
	var s Stats
	steps := []struct {
		q    string
		dest *int
	}{
		{`SELECT COUNT(*) FROM cities`, &s.Cities},
		{`SELECT COUNT(*) FROM bus_operators WHERE is_active = 1`, &s.Operators},
		{`SELECT COUNT(*) FROM routes WHERE is_active = 1`, &s.Routes},
		{`SELECT COUNT(*) FROM bus_schedules WHERE departure_date = UTC_DATE() AND status = 'scheduled'`, &s.SchedulesToday},
		{`SELECT COUNT(*) FROM bookings WHERE booking_status IN ('confirmed','completed')`, &s.BookingsTotal},
		{`SELECT COUNT(*) FROM booking_seats`, &s.SeatsBookedNow},
	}
	for _, st := range steps {
		if err := r.DB.QueryRowContext(ctx, st.q).Scan(st.dest); err != nil && err != sql.ErrNoRows {
			return nil, err
		}
	}
	return &s, nil
}
