package repository

import "errors"

// ErrNotFound is returned when no ladder exists for an account and slot.
var ErrNotFound = errors.New("not found")

// ErrInvalidSlot is returned for slots other than draft and active.
var ErrInvalidSlot = errors.New("invalid slot")
