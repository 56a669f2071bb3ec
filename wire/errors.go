// wire/errors.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package wire

import (
	"errors"
)

var (
	ErrBadMagic      = errors.New("Bad frame magic")
	ErrBadVersion    = errors.New("Unsupported frame version")
	ErrClosed        = errors.New("Conduit closed")
	ErrFrameTooLarge = errors.New("Frame exceeds maximum size")
	ErrNoPeer        = errors.New("No peer connected to conduit")
	ErrUnknownSchema = errors.New("Unknown message schema")
)

// IsFramingError reports whether err indicates a corrupt or foreign
// frame, after which the byte stream can no longer be trusted.
func IsFramingError(err error) bool {
	return errors.Is(err, ErrBadMagic) || errors.Is(err, ErrBadVersion) ||
		errors.Is(err, ErrFrameTooLarge) || errors.Is(err, ErrUnknownSchema)
}
