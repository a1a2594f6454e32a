package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// AlertID is a UUID-based identifier for a veille alert
type AlertID string

// NewAlertID generates a new UUID v4 AlertID
func NewAlertID() AlertID {
	return AlertID(uuid.New().String())
}

// Validate checks if the AlertID is valid
func (a AlertID) Validate() error {
	if a == "" {
		return goerr.New("alert ID cannot be empty")
	}
	return nil
}

// String returns the string representation of AlertID
func (a AlertID) String() string {
	return string(a)
}
