package session

import "time"

// LoginResponse returns created session metadata after a successful login.
type LoginResponse struct {
	Token           string    `json:"token"`
	UserID          string    `json:"user_id"`
	Status          Status    `json:"status"`
	StartedAt       time.Time `json:"started_at"`
	InactivityTTLMS int64     `json:"inactivity_ttl_ms"`
}
