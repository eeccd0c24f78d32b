package domain

import "time"

// Account is a user's credit balance.
type Account struct {
	UserID    string    `json:"user_id"`
	Balance   int       `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}
