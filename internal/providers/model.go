package providers

import "time"

type Provider struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Name            string    `json:"name"`
	Specializations []string  `json:"specializations"`
	HourlyRate      *int64    `json:"hourly_rate,omitempty"`
	Location        *string   `json:"location,omitempty"`
	Bio             *string   `json:"bio,omitempty"`
	Verified        bool      `json:"verified"`
	CreatedAt       time.Time `json:"created_at"`
}
