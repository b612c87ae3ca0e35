package model

import "time"

// City represents a row in the `cities` table.  Coordinates feed the
// route distance computation in the seeder; IsPopular drives the demo
// front page ordering.
type City struct {
	ID         uint64    // cities.id
	Name       string    // cities.name
	State      string    // cities.state
	Country    string    // cities.country
	Latitude   float64   // cities.latitude
	Longitude  float64   // cities.longitude
	Population *uint64   // cities.population (nullable)
	IsPopular  bool      // cities.is_popular
	CreatedAt  time.Time // cities.created_at
}
