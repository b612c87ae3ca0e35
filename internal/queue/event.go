// Package queue defines message payloads exchanged over the message
// broker and the background consumer that drains them.
package queue

// BookingCreatedEvent is published after a booking transaction commits.
// It carries what downstream consumers need for seat-map refreshes and
// audit logging without querying the primary database.
type BookingCreatedEvent struct {
	ScheduleID uint64   `json:"schedule_id"`
	SeatLabels []string `json:"seats"`
	CreatedAt  string   `json:"created_at"`
}
