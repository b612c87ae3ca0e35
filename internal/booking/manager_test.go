package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store whose mutex plays the role of the
// database row lock: ScheduleForUpdate acquires it and Commit/Rollback
// release it, so concurrent submissions serialize exactly as they would
// against MySQL.
type memStore struct {
	mu         sync.Mutex
	schedule   Schedule
	seats      map[string]uint64 // label -> booking id
	nextID     uint64
	bookings   map[uint64]*Booking
	passengers map[uint64][]Passenger

	failPassengers error // injected failure for InsertPassengers
}

func newMemStore(id uint64, total, available int) *memStore {
	return &memStore{
		schedule:   Schedule{ID: id, TotalSeats: total, AvailableSeats: available, Status: ScheduleActive},
		seats:      map[string]uint64{},
		bookings:   map[uint64]*Booking{},
		passengers: map[uint64][]Passenger{},
	}
}

func (s *memStore) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memTx{s: s}, nil
}

type memTx struct {
	s      *memStore
	locked bool
	done   bool

	stagedBooking    *Booking
	stagedPassengers []Passenger
	stagedSeats      []string
	stagedDecrement  int
}

func (t *memTx) ScheduleForUpdate(ctx context.Context, scheduleID uint64) (*Schedule, error) {
	t.s.mu.Lock()
	t.locked = true
	if scheduleID != t.s.schedule.ID {
		return nil, ErrScheduleNotFound
	}
	cp := t.s.schedule
	return &cp, nil
}

func (t *memTx) TakenSeats(ctx context.Context, scheduleID uint64) ([]string, error) {
	out := make([]string, 0, len(t.s.seats))
	for label := range t.s.seats {
		out = append(out, label)
	}
	return out, nil
}

func (t *memTx) InsertBooking(ctx context.Context, b *Booking) error {
	for _, label := range b.SeatLabels {
		if _, taken := t.s.seats[label]; taken {
			return ErrSeatTaken // unique key stand-in
		}
	}
	t.s.nextID++
	b.ID = t.s.nextID
	b.CreatedAt = time.Now().UTC()
	cp := *b
	t.stagedBooking = &cp
	t.stagedSeats = append([]string(nil), b.SeatLabels...)
	return nil
}

func (t *memTx) InsertPassengers(ctx context.Context, bookingID uint64, passengers []Passenger) error {
	if t.s.failPassengers != nil {
		return t.s.failPassengers
	}
	t.stagedPassengers = append([]Passenger(nil), passengers...)
	return nil
}

func (t *memTx) DecrementSeats(ctx context.Context, scheduleID uint64, n int) error {
	if t.s.schedule.AvailableSeats < n {
		return ErrInsufficientSeats
	}
	t.stagedDecrement = n
	return nil
}

func (t *memTx) Commit() error {
	if t.stagedBooking != nil {
		t.s.bookings[t.stagedBooking.ID] = t.stagedBooking
		for _, label := range t.stagedSeats {
			t.s.seats[label] = t.stagedBooking.ID
		}
		t.s.passengers[t.stagedBooking.ID] = t.stagedPassengers
	}
	t.s.schedule.AvailableSeats -= t.stagedDecrement
	t.done = true
	t.unlock()
	return nil
}

func (t *memTx) Rollback() error {
	t.done = true
	t.unlock()
	return nil
}

func (t *memTx) unlock() {
	if t.locked {
		t.locked = false
		t.s.mu.Unlock()
	}
}

// recordNotifier captures post-commit notifications.
type recordNotifier struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (n *recordNotifier) BookingCreated(ctx context.Context, scheduleID uint64, seatLabels []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, append([]string(nil), seatLabels...))
	return n.err
}

func validRequest(scheduleID uint64, labels ...string) Request {
	passengers := make([]PassengerInput, len(labels))
	for i := range labels {
		passengers[i] = PassengerInput{Name: "Passenger " + labels[i], Age: 30, Gender: "female"}
	}
	return Request{
		UserID:      1,
		ScheduleID:  scheduleID,
		SeatLabels:  labels,
		Passengers:  passengers,
		TotalAmount: float64(len(labels)) * 450,
	}
}

func TestSubmitConfirmsBooking(t *testing.T) {
	store := newMemStore(10, 40, 40)
	notifier := &recordNotifier{}
	m := NewManager(store, notifier, 6, "online", time.Second)

	res, err := m.Submit(context.Background(), validRequest(10, "A1", "A2"))
	require.NoError(t, err)
	require.NotNil(t, res.Booking)

	assert.Equal(t, StatusConfirmed, res.Booking.Status)
	assert.Equal(t, PaymentPaid, res.Booking.PaymentStatus)
	assert.Equal(t, "online", res.Booking.PaymentMethod)
	assert.NotEmpty(t, res.Booking.UUID)
	assert.Equal(t, 38, store.schedule.AvailableSeats)
	assert.Len(t, store.seats, 2)

	require.Len(t, res.Passengers, 2)
	assert.Equal(t, "A1", res.Passengers[0].SeatLabel)
	assert.Equal(t, "A2", res.Passengers[1].SeatLabel)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, []string{"A1", "A2"}, notifier.calls[0])
}

func TestSubmitPairsPassengersPositionally(t *testing.T) {
	store := newMemStore(10, 40, 40)
	m := NewManager(store, nil, 6, "online", time.Second)

	req := validRequest(10, "C3", "B2", "A1")
	req.Passengers[0].Name = "First"
	req.Passengers[1].Name = "Second"
	req.Passengers[2].Name = "Third"

	res, err := m.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "C3", res.Passengers[0].SeatLabel)
	assert.Equal(t, "First", res.Passengers[0].Name)
	assert.Equal(t, "B2", res.Passengers[1].SeatLabel)
	assert.Equal(t, "Second", res.Passengers[1].Name)
	assert.Equal(t, "A1", res.Passengers[2].SeatLabel)
	assert.Equal(t, "Third", res.Passengers[2].Name)
}

func TestConcurrentBookingsNeverOversell(t *testing.T) {
	const capacity = 3
	store := newMemStore(10, capacity, capacity)
	m := NewManager(store, nil, 6, "online", 5*time.Second)

	labels := []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "A10"}
	var wg sync.WaitGroup
	errs := make([]error, len(labels))
	for i, label := range labels {
		wg.Add(1)
		go func(i int, label string) {
			defer wg.Done()
			_, errs[i] = m.Submit(context.Background(), validRequest(10, label))
		}(i, label)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientSeats)
		}
	}
	assert.Equal(t, capacity, succeeded)
	assert.Equal(t, 0, store.schedule.AvailableSeats)
	assert.Len(t, store.seats, capacity)
}

func TestConcurrentSameSeatSingleWinner(t *testing.T) {
	store := newMemStore(10, 40, 40)
	m := NewManager(store, nil, 6, "online", 5*time.Second)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Submit(context.Background(), validRequest(10, "A1"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrSeatTaken)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 39, store.schedule.AvailableSeats)
}

func TestFailureLeavesNoPartialState(t *testing.T) {
	store := newMemStore(10, 40, 40)
	store.failPassengers = errors.New("disk full")
	m := NewManager(store, nil, 6, "online", time.Second)

	_, err := m.Submit(context.Background(), validRequest(10, "A1", "A2"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	// Nothing committed: counter untouched, no seats, no bookings.
	assert.Equal(t, 40, store.schedule.AvailableSeats)
	assert.Empty(t, store.seats)
	assert.Empty(t, store.bookings)

	// The same request succeeds once the fault clears (retry safety).
	store.failPassengers = nil
	_, err = m.Submit(context.Background(), validRequest(10, "A1", "A2"))
	assert.NoError(t, err)
}

func TestSeatTakenThenRetryWithFreeSeat(t *testing.T) {
	store := newMemStore(10, 40, 40)
	m := NewManager(store, nil, 6, "online", time.Second)

	_, err := m.Submit(context.Background(), validRequest(10, "A1"))
	require.NoError(t, err)

	_, err = m.Submit(context.Background(), validRequest(10, "A1", "A2"))
	require.ErrorIs(t, err, ErrSeatTaken)
	assert.Equal(t, 39, store.schedule.AvailableSeats, "failed attempt must not consume seats")
	assert.Len(t, store.seats, 1, "A2 must not be claimed by the failed attempt")

	_, err = m.Submit(context.Background(), validRequest(10, "B1", "A2"))
	assert.NoError(t, err)
	assert.Equal(t, 37, store.schedule.AvailableSeats)
}

func TestScheduleMissingOrInactive(t *testing.T) {
	store := newMemStore(10, 40, 40)
	m := NewManager(store, nil, 6, "online", time.Second)

	_, err := m.Submit(context.Background(), validRequest(999, "A1"))
	assert.ErrorIs(t, err, ErrScheduleNotFound)

	store.schedule.Status = ScheduleCancelled
	_, err = m.Submit(context.Background(), validRequest(10, "A1"))
	assert.ErrorIs(t, err, ErrScheduleNotFound)
	assert.Equal(t, 40, store.schedule.AvailableSeats)
}

func TestInsufficientSeats(t *testing.T) {
	store := newMemStore(10, 40, 1)
	m := NewManager(store, nil, 6, "online", time.Second)

	_, err := m.Submit(context.Background(), validRequest(10, "A1", "A2"))
	require.ErrorIs(t, err, ErrInsufficientSeats)
	assert.Equal(t, 1, store.schedule.AvailableSeats)
	assert.Empty(t, store.seats)
}

func TestValidation(t *testing.T) {
	store := newMemStore(10, 40, 40)
	m := NewManager(store, nil, 3, "online", time.Second)

	cases := map[string]Request{
		"zero schedule id":   validRequest(0, "A1"),
		"no seats":           {UserID: 1, ScheduleID: 10},
		"too many seats":     validRequest(10, "A1", "A2", "A3", "A4"),
		"blank seat label":   validRequest(10, " "),
		"negative amount": func() Request {
			r := validRequest(10, "A1")
			r.TotalAmount = -1
			return r
		}(),
		"duplicate labels": func() Request {
			r := validRequest(10, "A1", "A2")
			r.SeatLabels = []string{"A1", "A1"}
			return r
		}(),
		"passenger count mismatch": func() Request {
			r := validRequest(10, "A1", "A2")
			r.Passengers = r.Passengers[:1]
			return r
		}(),
		"unnamed passenger": func() Request {
			r := validRequest(10, "A1")
			r.Passengers[0].Name = "  "
			return r
		}(),
		"invalid age": func() Request {
			r := validRequest(10, "A1")
			r.Passengers[0].Age = 0
			return r
		}(),
		"invalid gender": func() Request {
			r := validRequest(10, "A1")
			r.Passengers[0].Gender = "unknown"
			return r
		}(),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.Submit(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
	assert.Empty(t, store.bookings, "invalid requests must never reach the store")
}

func TestDefaultPaymentMethodApplied(t *testing.T) {
	store := newMemStore(10, 40, 40)
	m := NewManager(store, nil, 6, "wallet", time.Second)

	res, err := m.Submit(context.Background(), validRequest(10, "A1"))
	require.NoError(t, err)
	assert.Equal(t, "wallet", res.Booking.PaymentMethod)

	req := validRequest(10, "A2")
	req.PaymentMethod = "cash"
	res, err = m.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "cash", res.Booking.PaymentMethod)
}

// slowStore parks Begin until the context expires, standing in for a
// database that stops answering.
type slowStore struct{}

func (slowStore) Begin(ctx context.Context) (Tx, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTimeoutClassified(t *testing.T) {
	m := NewManager(slowStore{}, nil, 6, "online", 20*time.Millisecond)

	start := time.Now()
	_, err := m.Submit(context.Background(), validRequest(10, "A1"))
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Second, "submit must give up at the deadline")
}

func TestNotifierFailureDoesNotFailBooking(t *testing.T) {
	store := newMemStore(10, 40, 40)
	notifier := &recordNotifier{err: errors.New("broker down")}
	m := NewManager(store, notifier, 6, "online", time.Second)

	res, err := m.Submit(context.Background(), validRequest(10, "A1"))
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, res.Booking.Status)
	assert.Len(t, notifier.calls, 1)
}
