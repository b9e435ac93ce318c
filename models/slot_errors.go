package models

import (
	"errors"
	"fmt"
	"time"
)

type SlotErrorCode string

const (
	SlotErrOffDay      SlotErrorCode = "OFF_DAY"
	SlotErrNotFound    SlotErrorCode = "SLOT_NOT_FOUND"
	SlotErrHeld        SlotErrorCode = "SLOT_HELD"
	SlotErrBooked      SlotErrorCode = "SLOT_BOOKED"
	SlotErrBlocked     SlotErrorCode = "SLOT_BLOCKED"
	SlotErrUnavailable SlotErrorCode = "SLOT_UNAVAILABLE"
)

// SlotError is returned by the calendar aggregate when a slot cannot take the
// requested transition.
type SlotError struct {
	Code      SlotErrorCode
	StartTime string
	HeldUntil *time.Time // set for SLOT_HELD
}

func (e *SlotError) Error() string {
	if e.StartTime == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: slot %s", e.Code, e.StartTime)
}

// SlotErrorCodeOf extracts the slot error code from err, if any.
func SlotErrorCodeOf(err error) (SlotErrorCode, bool) {
	var se *SlotError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}
