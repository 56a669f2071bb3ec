// wire/fifo_other.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build !unix

package wire

import (
	"errors"
	"fmt"

	"github.com/aircontrolx/aircontrolx/log"
)

func MakeFIFO(path string) error {
	return fmt.Errorf("%s: named pipes: %w", path, errors.ErrUnsupported)
}

func OpenFIFOSender(path string, lg *log.Logger) (Sender, error) {
	return nil, MakeFIFO(path)
}

func OpenFIFOReceiver(path string, lg *log.Logger) (Receiver, error) {
	return nil, MakeFIFO(path)
}
