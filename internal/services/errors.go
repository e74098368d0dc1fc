package services

import (
	"errors"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("conflict")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrSessionNotPublished    = errors.New("session not published")
	ErrNoPayment              = errors.New("no payment to refund")
	ErrAlreadyRefunded        = errors.New("payment already refunded")
	ErrPaymentFailed          = errors.New("payment provider error")
	ErrCapacityFull           = errors.New("session is at capacity")
)

func canManageSession(role string, actorID int64, hostID int64) bool {
	if role == models.RoleNeuromancer {
		return true
	}
	return role == models.RolePeer && actorID == hostID
}
