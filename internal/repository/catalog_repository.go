package repository

import (
	"context"
	"database/sql"

	"github.com/swiftbus/bus-booking-api/internal/model"
)

// CatalogRepo serves the read-only browse data: cities and operators.
// Both endpoints sit behind the response cache, so these queries run
// far less often than their traffic suggests.
type CatalogRepo struct{ DB *sql.DB }

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{DB: db} }

// Cities lists all cities, popular ones first, then alphabetically.
func (r *CatalogRepo) Cities(ctx context.Context) ([]model.City, error) {
	const q = `SELECT id, name, state, country, latitude, longitude, population, is_popular, created_at
               FROM cities ORDER BY is_popular DESC, name ASC`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.City, 0)
	for rows.Next() {
		var c model.City
		var pop sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &c.State, &c.Country,
			&c.Latitude, &c.Longitude, &pop, &c.IsPopular, &c.CreatedAt); err != nil {
			return nil, err
		}
		if pop.Valid {
			v := uint64(pop.Int64)
			c.Population = &v
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// BusTypes lists all bus types with their seating and pricing profile.
func (r *CatalogRepo) BusTypes(ctx context.Context) ([]model.BusType, error) {
	const q = `SELECT id, name, base_price_per_km, average_speed, total_seats, amenities, created_at
               FROM bus_types ORDER BY base_price_per_km ASC`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.BusType, 0)
	for rows.Next() {
		var bt model.BusType
		var amenities sql.NullString
		if err := rows.Scan(&bt.ID, &bt.Name, &bt.BasePricePerKm, &bt.AverageSpeed,
			&bt.TotalSeats, &amenities, &bt.CreatedAt); err != nil {
			return nil, err
		}
		if amenities.Valid {
			v := amenities.String
			bt.Amenities = &v
		}
		out = append(out, bt)
	}
	return out, rows.Err()
}

// Operators lists active operators ordered by rating.
func (r *CatalogRepo) Operators(ctx context.Context) ([]model.Operator, error) {
	const q = `SELECT id, name, rating, total_reviews, founded_year, headquarters, fleet_size, is_active, created_at
               FROM bus_operators WHERE is_active = 1 ORDER BY rating DESC, name ASC`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Operator, 0)
	for rows.Next() {
		var o model.Operator
		var founded sql.NullInt64
		var hq sql.NullString
		var fleet sql.NullInt64
		if err := rows.Scan(&o.ID, &o.Name, &o.Rating, &o.TotalReviews,
			&founded, &hq, &fleet, &o.IsActive, &o.CreatedAt); err != nil {
			return nil, err
		}
		if founded.Valid {
			v := uint16(founded.Int64)
			o.FoundedYear = &v
		}
		if hq.Valid {
			v := hq.String
			o.Headquarters = &v
		}
		if fleet.Valid {
			v := uint32(fleet.Int64)
			o.FleetSize = &v
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
