package models

import (
	"time"
)

// Patient holds the directory entry used to personalize threshold bands.
// Conditions are free-text tags (e.g. "hypertension", "diabetes"); unknown
// tags are carried but have no effect on thresholds.
type Patient struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Age        int       `json:"age"`
	Conditions []string  `json:"conditions"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
