package model

import "time"

// Category represents a user-owned transaction category.
type Category struct {
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Color     string    `json:"color,omitempty"`
	Icon      string    `json:"icon,omitempty"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
}
