package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swiftbus/bus-booking-api/internal/booking"
	"github.com/swiftbus/bus-booking-api/internal/middleware"
	"github.com/swiftbus/bus-booking-api/internal/repository"
	"github.com/swiftbus/bus-booking-api/internal/ticket"
)

// BookingHandler serves the booking lifecycle: create, list, detail,
// cancel and the PDF e-ticket.  Creation goes through the booking
// manager; everything else reads committed state via the repository.
type BookingHandler struct {
	Submitter booking.Submitter
	Bookings  *repository.BookingRepo
}

func NewBookingHandler(s booking.Submitter, b *repository.BookingRepo) *BookingHandler {
	return &BookingHandler{Submitter: s, Bookings: b}
}

// Create runs the atomic booking transaction.  Status codes follow the
// error kind: validation 400, unknown schedule 404, capacity or seat
// conflicts 409, timeout or storage trouble 503.
func (h *BookingHandler) Create(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req booking.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.UserID = uid

	res, err := h.Submitter.Submit(c.Request().Context(), req)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "booking confirmed",
		"booking": res.Booking,
	})
}

// List returns the user's booking history, paginated and filtered.
func (h *BookingHandler) List(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	status := c.QueryParam("status")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, total, err := h.Bookings.ListByUser(ctx, uid, page, limit, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return c.JSON(http.StatusOK, echo.Map{
		"bookings": items,
		"pagination": echo.Map{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + limit - 1) / limit,
		},
	})
}

// Get returns one booking with passengers and journey details.
func (h *BookingHandler) Get(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	det, err := h.Bookings.GetByUUIDForUser(ctx, c.Param("uuid"), uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, det)
}

type cancelReq struct {
	Reason string `json:"reason"`
}

// Cancel cancels a confirmed, not-yet-departed booking and puts its
// seats back into the schedule's inventory.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req cancelReq
	_ = c.Bind(&req)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	released, err := h.Bookings.Cancel(ctx, c.Param("uuid"), uid, req.Reason)
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking cannot be cancelled"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":        "booking cancelled",
		"seats_released": released,
	})
}

// Ticket renders and streams the PDF e-ticket for a confirmed booking.
func (h *BookingHandler) Ticket(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	det, err := h.Bookings.GetByUUIDForUser(ctx, c.Param("uuid"), uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !strings.EqualFold(det.Status, "confirmed") && !strings.EqualFold(det.Status, "completed") {
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket available for confirmed bookings only"})
	}

	pdf, err := ticket.Render(det)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "render failed"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="ticket-%s.pdf"`, det.UUID))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// bookingError translates booking manager sentinels into HTTP responses.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrScheduleNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrSeatTaken), errors.Is(err, booking.ErrInsufficientSeats):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrTimeout), errors.Is(err, booking.ErrStorageUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "booking temporarily unavailable, please retry"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
}
