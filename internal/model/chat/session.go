package chat

import "time"

// Session captures an anonymous conversation with one coordinator.
type Session struct {
	ID            string    `json:"id"`
	CoordinatorID string    `json:"coordinatorId"`
	CreatedAt     time.Time `json:"createdAt"`
}
