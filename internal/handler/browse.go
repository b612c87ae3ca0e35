package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swiftbus/bus-booking-api/internal/repository"
)

// BrowseHandler serves the public read-only endpoints: cities,
// operators, schedule search, seat maps and landing-page stats.
type BrowseHandler struct {
	Catalog   *repository.CatalogRepo
	Schedules *repository.ScheduleRepo
	Stats     *repository.StatsRepo
}

func NewBrowseHandler(cat *repository.CatalogRepo, sch *repository.ScheduleRepo, st *repository.StatsRepo) *BrowseHandler {
	return &BrowseHandler{Catalog: cat, Schedules: sch, Stats: st}
}

// Cities lists all cities, popular first.
func (h *BrowseHandler) Cities(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cities, err := h.Catalog.Cities(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(cities))
	for _, ct := range cities {
		out = append(out, echo.Map{
			"id":         ct.ID,
			"name":       ct.Name,
			"state":      ct.State,
			"is_popular": ct.IsPopular,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"cities": out})
}

// Operators lists active operators by rating.
func (h *BrowseHandler) Operators(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ops, err := h.Catalog.Operators(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(ops))
	for _, op := range ops {
		out = append(out, echo.Map{
			"id":            op.ID,
			"name":          op.Name,
			"rating":        op.Rating,
			"total_reviews": op.TotalReviews,
			"headquarters":  op.Headquarters,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"operators": out})
}

// BusTypes lists bus types for search filters, cheapest first.
func (h *BrowseHandler) BusTypes(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	types, err := h.Catalog.BusTypes(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(types))
	for _, bt := range types {
		out = append(out, echo.Map{
			"id":                bt.ID,
			"name":              bt.Name,
			"base_price_per_km": bt.BasePricePerKm,
			"total_seats":       bt.TotalSeats,
			"amenities":         bt.Amenities,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"bus_types": out})
}

// SearchSchedules lists departures between two cities on a date.
// All three query parameters are required.
func (h *BrowseHandler) SearchSchedules(c echo.Context) error {
	fromID, err1 := strconv.ParseUint(c.QueryParam("from_city_id"), 10, 64)
	toID, err2 := strconv.ParseUint(c.QueryParam("to_city_id"), 10, 64)
	date := c.QueryParam("date")
	if err1 != nil || err2 != nil || fromID == 0 || toID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from_city_id and to_city_id required"})
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Schedules.Search(ctx, repository.ScheduleSearch{
		FromCityID: fromID,
		ToCityID:   toID,
		Date:       date,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"schedules": rows,
		"count":     len(rows),
	})
}

// ScheduleSeats returns the seat map of one schedule.  The snapshot is
// advisory: the booking transaction re-checks availability under lock,
// so a stale map costs the client a 409, never an oversell.
func (h *BrowseHandler) ScheduleSeats(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Schedules.Seats(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, m)
}

// SiteStats returns the landing-page counters.
func (h *BrowseHandler) SiteStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Stats.Collect(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, s)
}
