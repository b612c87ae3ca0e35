package model

import "time"

// Operator represents a bus operator company (`bus_operators` table).
// Rating and review counts are demo content written by the seeder.
type Operator struct {
	ID           uint64    // bus_operators.id
	Name         string    // bus_operators.name
	Rating       float64   // bus_operators.rating
	TotalReviews uint32    // bus_operators.total_reviews
	FoundedYear  *uint16   // bus_operators.founded_year (nullable)
	Headquarters *string   // bus_operators.headquarters (nullable)
	FleetSize    *uint32   // bus_operators.fleet_size (nullable)
	IsActive     bool      // bus_operators.is_active
	CreatedAt    time.Time // bus_operators.created_at
}

// BusType represents a row in `bus_types`.  BasePricePerKm is the input
// to the seeder's fare computation; Amenities is a JSON-encoded list.
type BusType struct {
	ID             uint64    // bus_types.id
	Name           string    // bus_types.name
	BasePricePerKm float64   // bus_types.base_price_per_km
	AverageSpeed   uint32    // bus_types.average_speed
	TotalSeats     uint32    // bus_types.total_seats
	Amenities      *string   // bus_types.amenities (JSON, nullable)
	CreatedAt      time.Time // bus_types.created_at
}
