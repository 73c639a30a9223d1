package models

import "time"

// Device represents a sensor node publishing readings
type Device struct {
	DeviceID     string    `json:"device_id"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	RegisteredAt time.Time `json:"registered_at"`
	LastSeen     time.Time `json:"last_seen"`
	IsActive     bool      `json:"is_active"`
}
