// Package seed populates the database with demo content: Indian cities,
// operators, bus types, routes, a small fleet and a week of schedules.
// All inserts are idempotent (INSERT IGNORE or keyed lookups), so the
// seeder can run repeatedly against the same database.
package seed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"
)

type city struct {
	Name, State string
	Lat, Lng    float64
	Population  uint64
	Popular     bool
}

type operator struct {
	Name    string
	Rating  float64
	Reviews uint32
	Founded uint16
	HQ      string
	Fleet   uint32
}

type busType struct {
	Name       string
	PricePerKm float64
	Speed      uint32
	Seats      uint32
	Amenities  []string
}

type route struct {
	From, To string
	Distance uint32
	Duration uint32
}

var cities = []city{
	{"Mumbai", "Maharashtra", 19.0760, 72.8777, 12442373, true},
	{"Delhi", "Delhi", 28.6139, 77.2090, 16787941, true},
	{"Bangalore", "Karnataka", 12.9716, 77.5946, 8443675, true},
	{"Chennai", "Tamil Nadu", 13.0827, 80.2707, 4646732, true},
	{"Pune", "Maharashtra", 18.5204, 73.8567, 3124458, true},
	{"Hyderabad", "Telangana", 17.3850, 78.4867, 6809970, true},
	{"Kolkata", "West Bengal", 22.5726, 88.3639, 4496694, false},
	{"Ahmedabad", "Gujarat", 23.0225, 72.5714, 5570585, false},
	{"Jaipur", "Rajasthan", 26.9124, 75.7873, 3046163, false},
	{"Goa", "Goa", 15.2993, 74.1240, 1457723, true},
}

var operators = []operator{
	{"RedBus", 4.2, 125847, 2006, "Bangalore", 2500},
	{"VRL Travels", 4.1, 89234, 1976, "Hubli", 1800},
	{"SRS Travels", 4.0, 67891, 1995, "Chennai", 1200},
	{"Orange Tours", 4.3, 94567, 1999, "Mumbai", 2200},
	{"Patel Travels", 3.9, 45623, 1985, "Ahmedabad", 800},
	{"Kallada Travels", 4.4, 78912, 1962, "Kerala", 1500},
}

var busTypes = []busType{
	{"AC Seater", 1.2, 65, 45, []string{"AC", "Charging Point", "Reading Light"}},
	{"Non-AC Seater", 0.8, 55, 50, []string{"Charging Point", "Reading Light"}},
	{"AC Sleeper", 1.8, 70, 40, []string{"AC", "Blanket", "Pillow", "Charging Point"}},
	{"Non-AC Sleeper", 1.4, 60, 45, []string{"Blanket", "Pillow", "Charging Point"}},
	{"Volvo AC", 2.2, 75, 35, []string{"AC", "Entertainment", "WiFi", "Snacks"}},
	{"Mercedes", 2.8, 80, 32, []string{"AC", "Entertainment", "WiFi", "Meal Service"}},
}

var routes = []route{
	{"Mumbai", "Pune", 149, 180},
	{"Mumbai", "Delhi", 1154, 1200},
	{"Delhi", "Jaipur", 280, 300},
	{"Bangalore", "Chennai", 347, 360},
	{"Mumbai", "Goa", 464, 480},
	{"Delhi", "Ahmedabad", 934, 900},
	{"Pune", "Hyderabad", 559, 600},
	{"Chennai", "Hyderabad", 629, 660},
}

var departureTimes = []string{"06:00:00", "09:30:00", "14:00:00", "21:30:00"}

// Run seeds everything in dependency order.  Schedules are generated for
// today plus the next six days, one per bus and departure slot, priced
// off route distance and bus type.
func Run(ctx context.Context, db *sql.DB) error {
	if err := seedCities(ctx, db); err != nil {
		return fmt.Errorf("cities: %w", err)
	}
	if err := seedOperators(ctx, db); err != nil {
		return fmt.Errorf("operators: %w", err)
	}
	if err := seedBusTypes(ctx, db); err != nil {
		return fmt.Errorf("bus types: %w", err)
	}
	if err := seedRoutes(ctx, db); err != nil {
		return fmt.Errorf("routes: %w", err)
	}
	if err := seedBuses(ctx, db); err != nil {
		return fmt.Errorf("buses: %w", err)
	}
	if err := seedSchedules(ctx, db); err != nil {
		return fmt.Errorf("schedules: %w", err)
	}
	return nil
}

func seedCities(ctx context.Context, db *sql.DB) error {
	for _, c := range cities {
		_, err := db.ExecContext(ctx,
			`INSERT IGNORE INTO cities (name, state, country, latitude, longitude, population, is_popular)
             VALUES (?,?,?,?,?,?,?)`,
			c.Name, c.State, "India", c.Lat, c.Lng, c.Population, c.Popular)
		if err != nil {
			return err
		}
	}
	log.Printf("seed: %d cities", len(cities))
	return nil
}

func seedOperators(ctx context.Context, db *sql.DB) error {
	for _, o := range operators {
		_, err := db.ExecContext(ctx,
			`INSERT IGNORE INTO bus_operators (name, rating, total_reviews, founded_year, headquarters, fleet_size)
             VALUES (?,?,?,?,?,?)`,
			o.Name, o.Rating, o.Reviews, o.Founded, o.HQ, o.Fleet)
		if err != nil {
			return err
		}
	}
	log.Printf("seed: %d operators", len(operators))
	return nil
}

func seedBusTypes(ctx context.Context, db *sql.DB) error {
	for _, bt := range busTypes {
		amenities, err := json.Marshal(bt.Amenities)
		if err != nil {
			return err
		}
		_, err = db.ExecContext(ctx,
			`INSERT IGNORE INTO bus_types (name, base_price_per_km, average_speed, total_seats, amenities)
             VALUES (?,?,?,?,?)`,
			bt.Name, bt.PricePerKm, bt.Speed, bt.Seats, string(amenities))
		if err != nil {
			return err
		}
	}
	log.Printf("seed: %d bus types", len(busTypes))
	return nil
}

func seedRoutes(ctx context.Context, db *sql.DB) error {
	ids, err := cityIDs(ctx, db)
	if err != nil {
		return err
	}
	count := 0
	for _, r := range routes {
		fromID, ok1 := ids[r.From]
		toID, ok2 := ids[r.To]
		if !ok1 || !ok2 {
			continue
		}
		// Both directions; the reverse uses the same distance and duration.
		for _, pair := range [][2]uint64{{fromID, toID}, {toID, fromID}} {
			if _, err := db.ExecContext(ctx,
				`INSERT IGNORE INTO routes (from_city_id, to_city_id, distance_km, estimated_duration_minutes)
                 VALUES (?,?,?,?)`,
				pair[0], pair[1], r.Distance, r.Duration); err != nil {
				return err
			}
			count++
		}
	}
	log.Printf("seed: %d routes", count)
	return nil
}

func seedBuses(ctx context.Context, db *sql.DB) error {
	var existing int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM buses`).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	operatorIDs, err := idList(ctx, db, `SELECT id FROM bus_operators`)
	if err != nil {
		return err
	}
	routeIDs, err := idList(ctx, db, `SELECT id FROM routes`)
	if err != nil {
		return err
	}
	typeSeats := map[uint64]uint32{}
	rows, err := db.QueryContext(ctx, `SELECT id, total_seats FROM bus_types`)
	if err != nil {
		return err
	}
	defer rows.Close()
	var typeIDs []uint64
	for rows.Next() {
		var id uint64
		var seats uint32
		if err := rows.Scan(&id, &seats); err != nil {
			return err
		}
		typeIDs = append(typeIDs, id)
		typeSeats[id] = seats
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(operatorIDs) == 0 || len(routeIDs) == 0 || len(typeIDs) == 0 {
		return fmt.Errorf("prerequisite tables are empty")
	}

	// Fixed seed keeps the demo fleet reproducible across runs.
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		typeID := typeIDs[rng.Intn(len(typeIDs))]
		_, err := db.ExecContext(ctx,
			`INSERT INTO buses (bus_number, operator_id, bus_type_id, route_id, total_seats, status)
             VALUES (?,?,?,?,?, 'active')`,
			fmt.Sprintf("BUS%d", 1000+i),
			operatorIDs[rng.Intn(len(operatorIDs))],
			typeID,
			routeIDs[rng.Intn(len(routeIDs))],
			typeSeats[typeID])
		if err != nil {
			return err
		}
	}
	log.Printf("seed: 20 buses")
	return nil
}

func seedSchedules(ctx context.Context, db *sql.DB) error {
	type busRow struct {
		id         uint64
		totalSeats uint32
		distance   uint32
		duration   uint32
		pricePerKm float64
	}
	rows, err := db.QueryContext(ctx, `
        SELECT b.id, b.total_seats, rt.distance_km, rt.estimated_duration_minutes, bt.base_price_per_km
        FROM buses b
        JOIN routes rt   ON rt.id = b.route_id
        JOIN bus_types bt ON bt.id = b.bus_type_id
        WHERE b.status = 'active'`)
	if err != nil {
		return err
	}
	defer rows.Close()
	var buses []busRow
	for rows.Next() {
		var b busRow
		if err := rows.Scan(&b.id, &b.totalSeats, &b.distance, &b.duration, &b.pricePerKm); err != nil {
			return err
		}
		buses = append(buses, b)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(7))
	count := 0
	today := time.Now().UTC()
	for day := 0; day < 7; day++ {
		date := today.AddDate(0, 0, day).Format("2006-01-02")
		for _, b := range buses {
			dep := departureTimes[rng.Intn(len(departureTimes))]
			depT, _ := time.Parse("15:04:05", dep)
			arr := depT.Add(time.Duration(b.duration) * time.Minute).Format("15:04:05")

			base := float64(b.distance) * b.pricePerKm
			// Demand factor between 0.9 and 1.3.
			dynamic := base * (0.9 + rng.Float64()*0.4)

			_, err := db.ExecContext(ctx, `
                INSERT IGNORE INTO bus_schedules
                    (bus_id, departure_date, departure_time, arrival_time,
                     base_price, dynamic_price, total_seats, available_seats, status)
                VALUES (?,?,?,?,?,?,?,?, 'scheduled')`,
				b.id, date, dep, arr,
				round2(base), round2(dynamic), b.totalSeats, b.totalSeats)
			if err != nil {
				return err
			}
			count++
		}
	}
	log.Printf("seed: %d schedules", count)
	return nil
}

func cityIDs(ctx context.Context, db *sql.DB) (map[string]uint64, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM cities`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]uint64{}
	for rows.Next() {
		var id uint64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[name] = id
	}
	return out, rows.Err()
}

func idList(ctx context.Context, db *sql.DB, q string) ([]uint64, error) {
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
