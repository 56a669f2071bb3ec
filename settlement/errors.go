// settlement/errors.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package settlement

import (
	"errors"
)

var (
	ErrEmptyAirline = errors.New("Airline name is empty")
	ErrNoReply      = errors.New("No reply from settlement service")
)
