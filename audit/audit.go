// audit/audit.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package audit provides the append-only, human-readable ledgers that the
// services write violations, fines, settlements and run summaries to.
// They are never read back by the program.
package audit

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Ledger serializes appends to an underlying writer. Each Record is a
// single timestamped line; Write passes bytes through unchanged so that
// multi-line blocks such as run summaries stay contiguous.
type Ledger struct {
	mu  sync.Mutex
	w   io.Writer
	c   io.Closer
	now func() time.Time
}

// Open opens (creating if necessary) the ledger file at path for
// appending.
func Open(path string) (*Ledger, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	return &Ledger{w: f, c: f, now: time.Now}, nil
}

// New returns a ledger that appends to w; w is not closed by Close.
func New(w io.Writer) *Ledger {
	return &Ledger{w: w, now: time.Now}
}

// Discard returns a ledger that drops everything written to it.
func Discard() *Ledger {
	return New(io.Discard)
}

func (l *Ledger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Record appends one line, prefixed with the current time and the given
// category, e.g. "2025-03-14 09:26:53 [FINE] ...".
func (l *Ledger) Record(category string, format string, args ...any) error {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	line := fmt.Sprintf("%s [%s] %s\n", l.now().Format(time.DateTime), strings.ToUpper(category), msg)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := io.WriteString(l.w, line)
	return err
}

func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.c == nil {
		return nil
	}
	err := l.c.Close()
	l.c, l.w = nil, io.Discard
	return err
}
