package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftbus/bus-booking-api/internal/booking"
)

// stubSubmitter returns a canned result or error and records the last
// request it saw.
type stubSubmitter struct {
	lastReq booking.Request
	res     *booking.Result
	err     error
}

func (s *stubSubmitter) Submit(ctx context.Context, req booking.Request) (*booking.Result, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

func newBookingContext(t *testing.T, body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user_id", userID)
	}
	return c, rec
}

const createBody = `{
    "scheduleId": 7,
    "seatLabels": ["A1", "A2"],
    "passengers": [
        {"name": "Asha", "age": 29, "gender": "female"},
        {"name": "Ravi", "age": 31, "gender": "male"}
    ],
    "totalAmount": 900
}`

func TestCreateBookingSuccess(t *testing.T) {
	sub := &stubSubmitter{res: &booking.Result{
		Booking: &booking.Booking{
			ID:             55,
			UUID:           "u-55",
			UserID:         3,
			ScheduleID:     7,
			SeatLabels:     []string{"A1", "A2"},
			PassengerCount: 2,
			TotalAmount:    900,
			Status:         booking.StatusConfirmed,
			PaymentStatus:  booking.PaymentPaid,
			PaymentMethod:  "online",
			CreatedAt:      time.Now().UTC(),
		},
	}}
	h := NewBookingHandler(sub, nil)

	c, rec := newBookingContext(t, createBody, 3)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, uint64(3), sub.lastReq.UserID, "user id must come from the token, not the body")
	assert.Equal(t, []string{"A1", "A2"}, sub.lastReq.SeatLabels)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, string(resp["booking"]), `"uuid":"u-55"`)
}

func TestCreateBookingErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{booking.ErrInvalidRequest, http.StatusBadRequest},
		{booking.ErrScheduleNotFound, http.StatusNotFound},
		{booking.ErrSeatTaken, http.StatusConflict},
		{booking.ErrInsufficientSeats, http.StatusConflict},
		{booking.ErrTimeout, http.StatusServiceUnavailable},
		{booking.ErrStorageUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h := NewBookingHandler(&stubSubmitter{err: tc.err}, nil)
			c, rec := newBookingContext(t, createBody, 3)
			require.NoError(t, h.Create(c))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestCreateBookingRequiresAuth(t *testing.T) {
	h := NewBookingHandler(&stubSubmitter{}, nil)
	c, rec := newBookingContext(t, createBody, 0)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateBookingRejectsMalformedBody(t *testing.T) {
	h := NewBookingHandler(&stubSubmitter{}, nil)
	c, rec := newBookingContext(t, `{"scheduleId": "not-a-number"}`, 3)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
